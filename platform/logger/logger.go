// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithComponent returns a logger scoped to a named component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("component", name)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// BatchJob logs the outcome of a batch run (RFV recalculation, lead
// redistribution). Errors here are best-effort partial failures, not
// invocation failures.
func (l *Logger) BatchJob(job string, processed, updated, errCount int) {
	l.Info("batch_job",
		slog.String("job", job),
		slog.Int("processed", processed),
		slog.Int("updated", updated),
		slog.Int("errors", errCount),
	)
}

// CapabilityError logs a downstream capability failure that was swallowed
// (qualification, gamification, recommendations, message dispatch).
func (l *Logger) CapabilityError(capability string, err error) {
	l.Warn("capability_error",
		slog.String("capability", capability),
		slog.String("error", err.Error()),
	)
}
