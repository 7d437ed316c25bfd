package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

type fieldsKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithFields stores request-scoped key/value pairs in the context.
func WithFields(ctx context.Context, fields ...any) context.Context {
	if prev, ok := ctx.Value(fieldsKey{}).([]any); ok {
		fields = append(append([]any{}, prev...), fields...)
	}
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// CtxOr returns the component logger enriched with the request fields stored
// in ctx, so both the component and the request id end up on each entry.
// Without request fields it falls back to the context logger, then to the
// component logger itself.
func CtxOr(ctx context.Context, component zerolog.Logger) zerolog.Logger {
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok && len(fields) > 0 {
		return component.With().Fields(fields).Logger()
	}
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return component
}
