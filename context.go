package dispatch

import (
	"context"
	"log/slog"
)

type contextKey struct{}

type contextData struct {
	eventID    string
	eventType  Type
	listenerID string
	scope      string
	logger     *slog.Logger
}

// ContextEventID returns the ID of the event being dispatched, or "".
func ContextEventID(ctx context.Context) string {
	if d, ok := ctx.Value(contextKey{}).(*contextData); ok {
		return d.eventID
	}
	return ""
}

// ContextEventType returns the type tag of the event being dispatched.
func ContextEventType(ctx context.Context) Type {
	if d, ok := ctx.Value(contextKey{}).(*contextData); ok {
		return d.eventType
	}
	return ""
}

// ContextListenerID returns the ID of the listener being invoked, or "".
func ContextListenerID(ctx context.Context) string {
	if d, ok := ctx.Value(contextKey{}).(*contextData); ok {
		return d.listenerID
	}
	return ""
}

// ContextScope returns the publisher scope name, or "".
func ContextScope(ctx context.Context) string {
	if d, ok := ctx.Value(contextKey{}).(*contextData); ok {
		return d.scope
	}
	return ""
}

// ContextLogger returns the logger carried by the dispatch context.
// Falls back to slog.Default so handlers can always log.
func ContextLogger(ctx context.Context) *slog.Logger {
	if d, ok := ctx.Value(contextKey{}).(*contextData); ok && d.logger != nil {
		return d.logger
	}
	return slog.Default()
}

func contextWithDispatch(ctx context.Context, eventID string, eventType Type, listenerID, scope string, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, &contextData{
		eventID:    eventID,
		eventType:  eventType,
		listenerID: listenerID,
		scope:      scope,
		logger:     logger,
	})
}
