package util

import (
	"log/slog"
	"os"
)

// NewLogger returns text debug output in development and JSON info
// logs elsewhere. The service attribute distinguishes the web and
// worker processes in shared log streams.
func NewLogger(env, service string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var handler slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(slog.String("service", service))
}
