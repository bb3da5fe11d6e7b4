package http

import (
	"context"
	"log/slog"

	"github.com/example/timeblocks/internal/logging"
)

type contextKey string

const (
	blockIDContextKey     contextKey = "block_id"
	subresourceContextKey contextKey = "subresource_id"
)

// ContextWithLogger returns a derived context carrying the request logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts the request logger if one was attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithBlockID injects the block identifier resolved from the request path.
func ContextWithBlockID(ctx context.Context, blockID string) context.Context {
	return context.WithValue(ctx, blockIDContextKey, blockID)
}

// BlockIDFromContext extracts a block identifier previously associated with the context.
func BlockIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(blockIDContextKey).(string)
	return id, ok
}

// ContextWithSubresourceID injects the trailing path segment of nested
// routes: a checklist item ID or an occurrence date.
func ContextWithSubresourceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, subresourceContextKey, id)
}

// SubresourceIDFromContext extracts the nested path segment.
func SubresourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subresourceContextKey).(string)
	return id, ok
}
