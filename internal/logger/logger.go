// Package logger configures structured logging for the gateway.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a structured logger tagged with the service name. Level and
// format come from LOG_LEVEL (debug|info|warn|error) and LOG_FORMAT
// (json|text); production defaults are info and json.
func New(service string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level: level,
		// Source locations only when we are likely debugging.
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", service)
}

// SetDefault installs the logger process-wide so package-level slog calls
// share it.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
