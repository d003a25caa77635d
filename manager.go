package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// GlobalEventName is the name stamped on every manager's global event.
const GlobalEventName = "GLOBAL"

// DefaultManagerName is used when NewManager is called with an empty name.
// The name scopes the manager's logger, meter and tracer.
var DefaultManagerName = "dispatch"

// NewID generates a new unique ID
func NewID() string {
	return uuid.NewString()
}

// Manager is a registry mapping names to events. Every event registered on a
// manager participates in global notification: firing it also fires the
// manager's global event with the member event's name prepended to the
// arguments.
//
// Events are created explicitly with Set or GetOrCreate and destroyed only by
// explicit Remove. Get fails on unknown names rather than silently creating
// empty events.
type Manager struct {
	id              string
	name            string
	logger          *slog.Logger
	tracingEnabled  bool
	recoveryEnabled bool
	metricsEnabled  bool

	mu     sync.RWMutex
	events map[string]*Event
	global *Event
}

// NewManager creates a new manager with a global event named "GLOBAL".
//
// The global event is permanently unbound from the manager so that its own
// firing never re-enters the notification path.
func NewManager(name string, opts ...Option) *Manager {
	o := newManagerOptions(opts...)
	if name == "" {
		name = DefaultManagerName
	}
	m := &Manager{
		id:              NewID(),
		name:            name,
		logger:          o.logger.With("component", "dispatch>"+name),
		tracingEnabled:  o.tracingEnabled,
		recoveryEnabled: o.recoveryEnabled,
		metricsEnabled:  o.metricsEnabled,
		events:          make(map[string]*Event),
	}
	m.global = New()
	m.global.name = GlobalEventName
	return m
}

// ID returns the manager ID.
func (m *Manager) ID() string {
	return m.id
}

// Name returns the manager name.
func (m *Manager) Name() string {
	return m.name
}

// Global returns the manager's global event. It observes every member
// event's dispatch as (event_name, original args...). It is never stored as
// a regular entry and never re-triggers itself.
func (m *Manager) Global() *Event {
	return m.global
}

// Set registers an event under a name, stamping the event's name and owner
// before storing it. A nil event registers a fresh empty event. An existing
// entry under the same name is replaced and unbound.
//
// The manager's global event cannot be registered as a member; Set returns
// it unchanged.
func (m *Manager) Set(name string, e *Event) *Event {
	if e == m.global {
		return m.global
	}
	if e == nil {
		e = New()
	}
	e.bind(name, m)
	m.mu.Lock()
	prev := m.events[name]
	m.events[name] = e
	m.mu.Unlock()
	if prev != nil && prev != e {
		prev.unbind()
	}
	m.logger.Debug("registered event", "event", name)
	return e
}

// Get returns the event registered under a name.
// Returns ErrEventNotFound for unknown names; use GetOrCreate or Set for
// explicit creation.
func (m *Manager) Get(name string) (*Event, error) {
	m.mu.RLock()
	e, ok := m.events[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEventNotFound, name)
	}
	return e, nil
}

// GetOrCreate returns the event registered under a name, creating and
// registering an empty one if none exists.
func (m *Manager) GetOrCreate(name string) *Event {
	m.mu.RLock()
	e, ok := m.events[name]
	m.mu.RUnlock()
	if ok {
		return e
	}
	m.mu.Lock()
	if e, ok = m.events[name]; !ok {
		e = New()
		e.bind(name, m)
		m.events[name] = e
		m.logger.Debug("registered event", "event", name)
	}
	m.mu.Unlock()
	return e
}

// Remove deletes the entry under a name and unbinds the event from the
// manager, so further fires no longer notify the global event.
// Returns ErrEventNotFound for unknown names.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	e, ok := m.events[name]
	if ok {
		delete(m.events, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrEventNotFound, name)
	}
	e.unbind()
	m.logger.Debug("unregistered event", "event", name)
	return nil
}

// Len returns the number of registered events, not counting the global
// event.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// Names returns the sorted names of all registered events.
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.events))
	for name := range m.events {
		names = append(names, name)
	}
	m.mu.RUnlock()
	slices.Sort(names)
	return names
}

// NamedHandler pairs an event name with a handler for bulk registration.
type NamedHandler struct {
	Name    string
	Handler Handler
}

// HandlerProvider is implemented by types that expose named handler slots
// for bulk registration with Apply.
type HandlerProvider interface {
	EventHandlers() []NamedHandler
}

// RegisterAll registers each (name, handler) pair, creating missing events.
// Repeat calls accumulate handlers rather than replacing them; no
// de-duplication is performed.
//
// Returns ErrInvalidHandler if any entry carries a nil handler; in that case
// nothing is registered.
func (m *Manager) RegisterAll(handlers []NamedHandler) error {
	for _, nh := range handlers {
		if nh.Handler == nil {
			return fmt.Errorf("%w: event %q", ErrInvalidHandler, nh.Name)
		}
	}
	for _, nh := range handlers {
		if err := m.GetOrCreate(nh.Name).AddHandler(nh.Handler); err != nil {
			return err
		}
	}
	return nil
}

// Apply registers all handler slots exposed by a provider.
// Equivalent to RegisterAll(p.EventHandlers()).
func (m *Manager) Apply(p HandlerProvider) error {
	if p == nil {
		return nil
	}
	return m.RegisterAll(p.EventHandlers())
}

// notify fires the global event with the member event's name prepended to
// the original arguments. The global event is unbound, so this never
// recurses.
func (m *Manager) notify(ctx context.Context, name string, args []any) error {
	gargs := make([]any, 0, len(args)+1)
	gargs = append(gargs, name)
	gargs = append(gargs, args...)
	return m.global.Fire(ctx, gargs...)
}
