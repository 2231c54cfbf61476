package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	gatorhttp "github.com/aretw0/gator/pkg/adapters/http"
	"github.com/aretw0/gator/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the HTTP API of env with /metrics mounted.
func Handler(env *Env) http.Handler {
	env.Metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := gatorhttp.NewHandler(env.Session, gatorhttp.WithLogger(env.Logger))
	r.Handle("/metrics", promhttp.HandlerFor(env.Metrics, promhttp.HandlerOpts{}))
	return r
}

// Serve runs the HTTP API on addr until ctx ends, then shuts down gracefully.
func Serve(ctx context.Context, env *Env, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: Handler(env),
	}

	serverErrors := make(chan error, 1)
	go func() {
		env.Logger.Info("Starting gator server", "addr", addr, "profile", env.Session.Profile())
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			env.Logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		return nil
	}
}

// ServeMCP runs the MCP server over stdio or, with transport "sse", on port.
func ServeMCP(ctx context.Context, env *Env, transport string, port int) error {
	srv := mcp.NewServer(env.Session, env.Logger)
	switch transport {
	case "stdio":
		return srv.ServeStdio()
	case "sse":
		err := srv.ServeSSE(ctx, port)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return errors.New("unknown transport " + transport + " (want stdio or sse)")
	}
}
