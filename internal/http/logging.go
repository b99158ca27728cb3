package http

import (
	"context"
	"log/slog"
)

// handlerLog scopes log records to one handler. Records prefer the logger
// RequestLogger put in the context so they keep the request_id.
type handlerLog struct {
	name string
	base *slog.Logger
}

func newHandlerLog(name string, base *slog.Logger) handlerLog {
	if base == nil {
		base = slog.Default()
	}
	return handlerLog{name: name, base: base}
}

func (l handlerLog) at(ctx context.Context, operation string) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = l.base
	}
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("handler", l.name, "operation", operation)
}

// rejected records a request refused before any service ran. kind uses the
// same error_kind vocabulary as the services. Never pass PINs or secrets.
func (l handlerLog) rejected(ctx context.Context, operation, kind, msg string, attrs ...any) {
	l.at(ctx, operation).InfoContext(ctx, msg, append([]any{"error_kind", kind}, attrs...)...)
}
