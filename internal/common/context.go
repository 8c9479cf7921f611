package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRunID       contextKey = "run_id"
	ContextKeyContentHash contextKey = "content_hash"
)

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ContextKeyRunID, runID)
}

// RunIDFromContext extracts the run ID from context
func RunIDFromContext(ctx context.Context) string {
	if runID, ok := ctx.Value(ContextKeyRunID).(string); ok {
		return runID
	}
	return ""
}

// WithContentHash adds the source file hash to the context
func WithContentHash(ctx context.Context, hashHex string) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hashHex)
}

// ContentHashFromContext extracts the source file hash from context
func ContentHashFromContext(ctx context.Context) string {
	if h, ok := ctx.Value(ContextKeyContentHash).(string); ok {
		return h
	}
	return ""
}

// LoggerFor returns logger scoped with the run ID carried by ctx, if any.
func LoggerFor(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	if id := RunIDFromContext(ctx); id != "" {
		return logger.With("run_id", id)
	}
	return logger
}
