package middleware

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey    = contextKey("logger")
	initiatorKey = contextKey("initiator")
)

// WithLogger returns a context carrying the given request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLoggerFromCtx retrieves the request-scoped logger from the context,
// falling back to the default logger.
func GetLoggerFromCtx(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithInitiator returns a context carrying the authenticated initiator.
func WithInitiator(ctx context.Context, initiator string) context.Context {
	return context.WithValue(ctx, initiatorKey, initiator)
}

// GetInitiatorFromCtx retrieves the authenticated initiator identity, if any.
func GetInitiatorFromCtx(ctx context.Context) (string, bool) {
	initiator, ok := ctx.Value(initiatorKey).(string)
	return initiator, ok && initiator != ""
}
