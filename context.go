package dispatch

import (
	"context"
	"log/slog"
)

const (
	dispatchContextKey contextKey = iota
)

type dispatchContextData struct {
	event      string
	dispatchID string
	manager    *Manager
	logger     *slog.Logger
}

// contextKey
type contextKey int

// ContextEventName returns the name of the event being dispatched, or ""
// outside a handler. Handlers on the global event see "GLOBAL" here; the
// member event's name is their first argument.
func ContextEventName(ctx context.Context) string {
	s, ok := ctx.Value(dispatchContextKey).(*dispatchContextData)
	if ok {
		return s.event
	}
	return ""
}

// ContextDispatchID returns the unique ID of the current Fire call, or ""
// outside a handler.
func ContextDispatchID(ctx context.Context) string {
	s, ok := ctx.Value(dispatchContextKey).(*dispatchContextData)
	if ok {
		return s.dispatchID
	}
	return ""
}

// ContextManager returns the manager that owns the firing event, or nil for
// unbound events.
func ContextManager(ctx context.Context) *Manager {
	s, ok := ctx.Value(dispatchContextKey).(*dispatchContextData)
	if ok {
		return s.manager
	}
	return nil
}

// ContextLogger returns the logger of the dispatching manager, falling back
// to slog.Default().
func ContextLogger(ctx context.Context) *slog.Logger {
	s, ok := ctx.Value(dispatchContextKey).(*dispatchContextData)
	if ok && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// contextWithDispatch stamps the dispatch data for the current Fire call.
func contextWithDispatch(ctx context.Context, data *dispatchContextData) context.Context {
	return context.WithValue(ctx, dispatchContextKey, data)
}
