package app

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger writing to stdout: JSON when LOG_FORMAT=json,
// text otherwise.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	attrs := []slog.Attr{slog.String("service", "gestao")}
	if cfg != nil && cfg.AppEnv != "" {
		attrs = append(attrs, slog.String("env", cfg.AppEnv))
	}
	return slog.New(handler.WithAttrs(attrs))
}
