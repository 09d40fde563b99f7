package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/quill/internal/infra/context"
)

// RequestHandler decorates records with the trace ID and the authenticated
// user ID found in the record's context.
type RequestHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*RequestHandler)(nil)

func NewRequestHandler(h slog.Handler) *RequestHandler {
	return &RequestHandler{h: h}
}

func (h *RequestHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("trace", slog.String("id", traceID)))
	}

	if userID, ok := context_.UserIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("session", slog.Int64("user_id", userID)))
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

func (h *RequestHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewRequestHandler(h.h.WithAttrs(attrs))
}

func (h *RequestHandler) WithGroup(name string) Handler {
	return NewRequestHandler(h.h.WithGroup(name))
}

func (h *RequestHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
