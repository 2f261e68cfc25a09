// Package logging builds the per-Session *slog.Logger. There is no package-
// level logger and no slog.SetDefault call here: the Design Notes forbid
// global logging state so that two Sessions in one process (or a test) never
// fight over stdout/a shared handler.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config selects the handler a Session's logger uses.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"; anything else falls back to text
	Output io.Writer // nil defaults to os.Stdout
}

// New returns a logger built from cfg. Each Session owns its own, so two
// Sessions can run concurrently with independent log streams.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}
