// Package dispatch provides a named, ordered, synchronous in-process event
// dispatcher: events hold an ordered list of handlers, and a Manager tracks
// events by name while mirroring every dispatch onto one global event.
//
// Architecture:
// - Event is an ordered handler list; Fire runs handlers on the caller's goroutine in registration order
// - Manager owns infrastructure (logging, tracing, metrics, recovery) and the name-to-event mapping
// - Every member event's Fire first notifies the manager's global event with the event's name prepended
// - Handlers signal early stop by returning ErrStopPropagation; any other error aborts the dispatch
//
// Basic example:
//
//	m := dispatch.NewManager("my-app")
//
//	ping := m.GetOrCreate("ping")
//	ping.AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
//	    fmt.Println("ping:", args)
//	    return nil
//	})
//
//	// Observe every dispatch in the system. The firing event's name is the
//	// first argument.
//	m.Global().AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
//	    fmt.Println("saw:", args[0])
//	    return nil
//	})
//
//	m.GetOrCreate("ping").Fire(ctx, 1, 2, 3)
//
// Manager Options:
//   - WithLogger: set logger for the manager.
//   - WithTracing: enable/disable OpenTelemetry tracing on Fire. Default is true.
//   - WithRecovery: enable/disable panic recovery in handlers. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//
// Bulk registration:
// A type can expose named handler slots and register them in one call:
//
//	type auditLog struct{ ... }
//
//	func (a *auditLog) EventHandlers() []dispatch.NamedHandler {
//	    return []dispatch.NamedHandler{
//	        {Name: "login", Handler: a.onLogin},
//	        {Name: "logout", Handler: a.onLogout},
//	    }
//	}
//
//	m.Apply(a) // creates "login"/"logout" if missing, appends the handlers
//
// Repeat Apply/RegisterAll calls accumulate handlers; nothing is
// de-duplicated.
//
// Early stop:
// A handler halts the remaining handlers of the current Fire by returning
// ErrStopPropagation (or wrapping it with Stop). The global notification is
// unaffected, since it completed before the event's own handlers ran.
//
// Dispatch is fully synchronous and runs on the caller's goroutine. Handler
// lists and the name mapping are guarded internally, but handlers themselves
// run without any locks held and must synchronize their own shared state.
package dispatch
