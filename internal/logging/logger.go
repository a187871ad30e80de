// Package logging defines the structured-logging interface used across the
// service, with slog and zap backed implementations.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "batch created", "collector", name, "count", n)
type Logger interface {
	// Debug logs verbose diagnostics, usually disabled in production.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// New builds the Logger selected by backend ("slog" or "zap"). Unknown
// backends fall back to slog.
func New(backend string, development bool) (Logger, error) {
	switch backend {
	case "zap":
		return NewZapLogger(development)
	default:
		return NewDefaultSlogLogger(development), nil
	}
}
