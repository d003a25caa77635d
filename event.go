package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Handler is a callable invoked with the arguments an event was fired with.
// Returning ErrStopPropagation halts the remaining handlers of the current
// Fire call. Any other non-nil error aborts the remaining handlers and is
// returned to the caller of Fire.
type Handler func(ctx context.Context, ev *Event, args ...any) error

// Event is an ordered, mutable list of handlers with an optional name and an
// optional back-reference to the owning Manager. Firing an owned event first
// notifies the manager's global event with the event's name prepended to the
// arguments, then runs the event's own handlers in registration order.
//
// An event not bound to a manager fires handlers only, with no global
// notification step.
type Event struct {
	mu       sync.Mutex
	name     string
	owner    *Manager
	handlers []Handler
}

// New creates a new event, optionally pre-seeded with handlers.
// Nil handlers are ignored. The event has no name and no owner until it is
// registered on a Manager with Set.
func New(handlers ...Handler) *Event {
	e := &Event{}
	for _, h := range handlers {
		if h != nil {
			e.handlers = append(e.handlers, h)
		}
	}
	return e
}

func (e *Event) String() string {
	return e.Name()
}

// Name returns the name stamped by the owning manager, or "" when unbound.
func (e *Event) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Owner returns the manager this event is registered on, or nil.
func (e *Event) Owner() *Manager {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// bind stamps the event with its registered name and owning manager.
func (e *Event) bind(name string, m *Manager) {
	e.mu.Lock()
	e.name = name
	e.owner = m
	e.mu.Unlock()
}

// unbind detaches the event from its manager. The name stamp is kept.
func (e *Event) unbind() {
	e.mu.Lock()
	e.owner = nil
	e.mu.Unlock()
}

// AddHandler appends a handler to the event's handler list.
// Returns ErrInvalidHandler if the handler is nil. Duplicates are allowed
// and are invoked once per registration.
func (e *Event) AddHandler(h Handler) error {
	if h == nil {
		return ErrInvalidHandler
	}
	e.mu.Lock()
	e.handlers = append(e.handlers, h)
	name, owner := e.name, e.owner
	e.mu.Unlock()
	if owner != nil {
		owner.logger.Debug("handler added", "event", name, "handlers", e.Len())
	}
	return nil
}

// RemoveHandler removes the first occurrence of a handler, compared by
// function identity. Returns ErrHandlerNotFound if the handler is not
// registered; the handler list is unchanged in that case.
func (e *Event) RemoveHandler(h Handler) error {
	if h == nil {
		return ErrInvalidHandler
	}
	ptr := reflect.ValueOf(h).Pointer()
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, registered := range e.handlers {
		if reflect.ValueOf(registered).Pointer() == ptr {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: event %q", ErrHandlerNotFound, e.name)
}

// Clear removes all handlers. Idempotent. A subsequent Fire invokes no
// handlers but still triggers the owning manager's global event.
func (e *Event) Clear() {
	e.mu.Lock()
	e.handlers = nil
	e.mu.Unlock()
}

// Len returns the number of registered handlers.
func (e *Event) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// Handler returns the handler at position i, or nil if out of range.
func (e *Event) Handler(i int) Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.handlers) {
		return nil
	}
	return e.handlers[i]
}

// Handlers returns a copy of the handler list in registration order.
func (e *Event) Handlers() []Handler {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]Handler, len(e.handlers))
	copy(result, e.handlers)
	return result
}

// Contains reports whether a handler is registered, compared by function
// identity.
func (e *Event) Contains(h Handler) bool {
	if h == nil {
		return false
	}
	ptr := reflect.ValueOf(h).Pointer()
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, registered := range e.handlers {
		if reflect.ValueOf(registered).Pointer() == ptr {
			return true
		}
	}
	return false
}

// Fire dispatches the event synchronously on the caller's goroutine.
//
// If the event is owned by a manager, the manager's global event is fired
// first with the event's name prepended to the arguments. The event's own
// handlers then run in registration order. A handler returning
// ErrStopPropagation halts the remaining handlers and Fire returns nil; any
// other handler error aborts the remaining handlers and is returned wrapped
// in *HandlerError.
func (e *Event) Fire(ctx context.Context, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.Lock()
	name := e.name
	owner := e.owner
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	ctx = contextWithDispatch(ctx, &dispatchContextData{
		event:      name,
		dispatchID: NewID(),
		manager:    owner,
		logger:     loggerFor(owner),
	})

	if owner != nil {
		if owner.metricsEnabled {
			recordFired(ctx, owner.name, name)
		}
		if owner.tracingEnabled {
			tracer := otel.Tracer(owner.name)
			var span trace.Span
			ctx, span = tracer.Start(ctx, fmt.Sprintf("%s.fire", name),
				trace.WithAttributes(
					attribute.String(spanKeyDispatchID, ContextDispatchID(ctx)),
					attribute.String(spanKeyManager, owner.name),
					attribute.String(spanKeyEventName, name)),
				trace.WithSpanKind(trace.SpanKindInternal))
			defer span.End()
		}
		if err := owner.notify(ctx, name, args); err != nil {
			return err
		}
	}

	return e.dispatch(ctx, owner, name, handlers, args)
}

// dispatch runs the handler chain for a single Fire call.
func (e *Event) dispatch(ctx context.Context, owner *Manager, name string, handlers []Handler, args []any) error {
	recovery := true
	metrics := false
	logger := slog.Default()
	if owner != nil {
		recovery = owner.recoveryEnabled
		metrics = owner.metricsEnabled
		logger = owner.logger
	}
	for i, h := range handlers {
		err := e.call(ctx, h, args, recovery)
		if err == nil {
			if metrics {
				recordHandled(ctx, owner.name, name)
			}
			continue
		}
		if errors.Is(err, ErrStopPropagation) {
			logger.Debug("propagation stopped", "event", name, "handler", i)
			return nil
		}
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			panicErr.Event = name
			panicErr.Index = i
			logger.Error("handler panic", "event", name, "handler", i, "panic", panicErr.Value)
			return err
		}
		return &HandlerError{Event: name, Index: i, Err: err}
	}
	return nil
}

// call invokes a single handler, converting a panic to *PanicError when
// recovery is enabled.
func (e *Event) call(ctx context.Context, h Handler, args []any, recovery bool) (err error) {
	if recovery {
		defer func() {
			if r := recover(); r != nil {
				err = &PanicError{Value: r, Stack: string(debug.Stack())}
			}
		}()
	}
	return h(ctx, e, args...)
}

func loggerFor(m *Manager) *slog.Logger {
	if m != nil {
		return m.logger
	}
	return slog.Default()
}
