package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/gator"
	redisstore "github.com/aretw0/gator/pkg/adapters/redis"
	"github.com/aretw0/gator/pkg/config"
	"github.com/aretw0/gator/pkg/ports"
	"github.com/aretw0/gator/pkg/scan"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
)

// Options selects the profile and backing services of a command.
type Options struct {
	ProfileDir string
	Profile    string
	Map        string
	// RedisURL moves calibrations and axis locks to a shared Redis.
	RedisURL string
	Debug    bool
}

// Env is an opened session and what it was built from.
type Env struct {
	Session  *gator.Session
	Profile  *config.Profile
	Profiles *config.Profiles
	Metrics  *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Close releases the backing services.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Open resolves the profile, builds its hardware and restores its calibration.
func Open(ctx context.Context, opts Options, extra ...gator.Option) (*Env, error) {
	ps, err := config.NewProfiles(opts.ProfileDir)
	if err != nil {
		return nil, err
	}
	p, err := ps.Resolve(opts.Profile)
	if err != nil {
		return nil, err
	}

	logger := createLogger(opts.Debug, p.Name)
	env := &Env{Profile: p, Profiles: ps, Logger: logger, Metrics: prometheus.NewRegistry()}
	var store ports.CalibrationStore = ps.Calibrations()
	gopts := []gator.Option{
		gator.WithLogger(logger),
		gator.WithMetrics(scan.NewMetrics(env.Metrics)),
	}
	if opts.RedisURL != "" {
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		client := backend.NewClient(ropts)
		rs := redisstore.NewFromClient(client)
		store = rs
		gopts = append(gopts, gator.WithLocker(redisstore.NewLocker(client, "gator:")))
		env.closers = append(env.closers, rs.Close)
		logger.Debug("Using redis", "addr", ropts.Addr)
	}
	gopts = append(gopts, gator.WithCalibrationStore(store))

	sess, err := gator.Open(ctx, p, config.DefaultRegistry(), append(gopts, extra...)...)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Session = sess

	if opts.Map != "" {
		rep, err := sess.LoadCircuits(opts.Map)
		if err != nil {
			env.Close()
			return nil, err
		}
		for _, pe := range rep.Errors {
			logger.Warn("Catalog line skipped", "err", pe)
		}
		logger.Info("Catalog loaded", "path", opts.Map, "circuits", rep.Loaded, "skipped", rep.Skipped)
	}
	return env, nil
}
