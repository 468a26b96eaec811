// Package logging provides slog helpers shared across the application:
// context propagation, HTTP request logging, and safe resource cleanup.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// WithLogger returns a copy of ctx carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger stored by WithLogger, falling back to
// slog.Default when none is present.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// LogHTTPRequest emits a single structured line for a completed HTTP request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...any) {
	args := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}
	args = append(args, attrs...)
	logger.Info("http_request", args...)
}

// LogOperation records a named operation at info level.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) {
	args := []any{slog.String("operation", operation)}
	args = append(args, attrs...)
	logger.Info("operation", args...)
}

// LogError records an error with a human-readable message.
func LogError(logger *slog.Logger, message string, err error, attrs ...any) {
	args := []any{slog.String("error", err.Error())}
	args = append(args, attrs...)
	logger.Error(message, args...)
}

// SafeCloseWithLogging closes c and logs any close failure instead of
// silently dropping it. Intended for use in defer statements.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, resourceName string) {
	if err := c.Close(); err != nil {
		logger.Warn("failed to close resource",
			slog.String("resource", resourceName),
			slog.String("error", err.Error()))
	}
}
