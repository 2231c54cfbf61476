package logging

import (
	"io"
	"log/slog"
	"math"
	"strconv"
)

// New creates the gator logger. It writes text records to w, normally
// Stderr so Stdout stays free for tables and JSON-RPC. Debug enables motion and
// scan traces; otherwise only warnings and errors are written.
//
// Keys are standardized ("error" -> "err") and float values are trimmed to
// nanometre precision so stage positions stay readable.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	if a.Value.Kind() == slog.KindFloat64 {
		f := a.Value.Float64()
		if !math.IsInf(f, 0) && !math.IsNaN(f) {
			a.Value = slog.StringValue(strconv.FormatFloat(math.Round(f*1e6)/1e6, 'g', -1, 64))
		}
	}
	return a
}

// WithProfile tags every record with the hardware profile in use.
func WithProfile(logger *slog.Logger, profile string) *slog.Logger {
	if profile == "" {
		return logger
	}
	return logger.With("profile", profile)
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
