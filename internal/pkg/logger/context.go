package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextKey for storing values in context
type ContextKey string

const (
	// LoggerKey is the key for storing logger in context
	LoggerKey ContextKey = "logger"
	// CorrelationIDKey is the key for correlation ID
	CorrelationIDKey ContextKey = "correlation_id"
	// ProjectIDKey is the key for the project identifier
	ProjectIDKey ContextKey = "project_id"
	// RequestIDKey is the key for request ID
	RequestIDKey ContextKey = "request_id"
)

// FromContext extracts logger from context or returns a no-op logger
func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return NewNop()
	}

	if l, ok := ctx.Value(LoggerKey).(*Logger); ok && l != nil {
		return l
	}

	return NewNop()
}

// WithLogger adds logger to context
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// WithCorrelationIDCtx adds correlation ID to context
func WithCorrelationIDCtx(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID extracts correlation ID from context
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithProjectIDCtx adds the project identifier to context
func WithProjectIDCtx(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ProjectIDKey, id)
}

// GetProjectID extracts the project identifier from context
func GetProjectID(ctx context.Context) string {
	if id, ok := ctx.Value(ProjectIDKey).(string); ok {
		return id
	}
	return ""
}

// NewNop creates a no-op logger for testing or when context has no logger
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}
