package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithRunID tags the context and its logger with a fresh run identifier.
// Every log line of one sync run can then be correlated, including lines
// written to a rotated log file by an unattended run.
func WithRunID(ctx context.Context) context.Context {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, runIDKey, id)
	return withField(ctx, "run_id", id)
}

// RunID extracts the run ID from context.
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// withField adds a single field to the logger in the context.
func withField(ctx context.Context, key string, value any) context.Context {
	logCtx := addField(FromContext(ctx).With(), key, value)
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithOwner adds owner (character) context to the logger.
func WithOwner(ctx context.Context, owner string) context.Context {
	return withField(ctx, "owner", owner)
}

// WithCategory adds category context to the logger.
func WithCategory(ctx context.Context, category string) context.Context {
	return withField(ctx, "category", category)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return withField(ctx, "operation", operation)
}
