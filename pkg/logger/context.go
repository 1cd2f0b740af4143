package logger

import (
	"context"

	"github.com/narwhalmedia/querykit/pkg/interfaces"
)

type contextKey struct{}

type fieldsKey struct{}

var loggerKey = contextKey{}

// FromContext retrieves a logger from the context, falling back to a no-op
// logger so library code never writes output it was not configured for.
func FromContext(ctx context.Context) interfaces.Logger {
	if logger, ok := ctx.Value(loggerKey).(interfaces.Logger); ok {
		return logger
	}
	return NewNoop()
}

// WithContext adds a logger to the context.
func WithContext(ctx context.Context, logger interfaces.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// ContextWithFields attaches fields that loggers pick up through
// Logger.WithContext.
func ContextWithFields(ctx context.Context, fields ...interfaces.Field) context.Context {
	merged := append(append([]interfaces.Field(nil), fieldsFromContext(ctx)...), fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func fieldsFromContext(ctx context.Context) []interfaces.Field {
	fields, _ := ctx.Value(fieldsKey{}).([]interfaces.Field)
	return fields
}
