package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout. Handlers and
// middleware log through this so request_id and error attributes stay
// machine-parseable.
func New(env string) *slog.Logger {
	level := slog.LevelDebug
	if env == "production" {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
