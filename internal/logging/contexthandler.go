package logging

import (
	"context"
	"log/slog"
)

// ContextProvider is a function that returns dynamic context attributes.
type ContextProvider func() []slog.Attr

type requestKey struct{}

type requestScope struct {
	requestID string
	deviceID  string
}

// WithRequest tags ctx so every record logged with it carries the request
// and camera ids.
func WithRequest(ctx context.Context, requestID, deviceID string) context.Context {
	return context.WithValue(ctx, requestKey{}, requestScope{requestID: requestID, deviceID: deviceID})
}

// RequestID returns the id set by WithRequest, if any.
func RequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestKey{}).(requestScope); ok {
		return s.requestID
	}
	return ""
}

// ContextHandler wraps another handler and injects dynamic attributes from
// the provider and from request-scoped contexts.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	if ctx != nil {
		if s, ok := ctx.Value(requestKey{}).(requestScope); ok {
			r.AddAttrs(slog.String("req_id", s.requestID))
			if s.deviceID != "" {
				r.AddAttrs(slog.String("device_id", s.deviceID))
			}
		}
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}
