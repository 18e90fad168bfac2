// Package logger centralizes construction of the process logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns the structured JSON logger used across services.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
