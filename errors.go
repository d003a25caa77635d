package dispatch

import (
	"errors"
	"fmt"
)

// Registration and lookup errors.
// Use errors.Is() to check for these errors as they may be wrapped with
// additional context.
var (
	// ErrInvalidHandler is returned when a nil handler is registered.
	ErrInvalidHandler = errors.New("handler is not callable")

	// ErrHandlerNotFound is returned when removing a handler that is not
	// present in the event's handler list.
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrEventNotFound is returned when looking up or removing an event
	// name that has no entry in the manager. Use GetOrCreate for explicit
	// auto-creation.
	ErrEventNotFound = errors.New("event not found")
)

// ErrStopPropagation is the control sentinel a handler returns to halt the
// remaining handlers of the current Fire call. It is not a failure: the
// dispatch loop swallows it and Fire returns nil.
//
// Stopping does not undo the global notification, which already completed
// before the event's own handlers ran.
//
// Example usage:
//
//	ev.AddHandler(func(ctx context.Context, ev *dispatch.Event, args ...any) error {
//	    if done(args) {
//	        return dispatch.ErrStopPropagation
//	    }
//	    return nil
//	})
var ErrStopPropagation = errors.New("stop propagation")

// Stop wraps an error to signal that propagation should halt.
// The original error is preserved for logging but the dispatch loop treats
// the result as a clean stop.
func Stop(err error) error {
	if err == nil {
		return ErrStopPropagation
	}
	return fmt.Errorf("%w: %v", ErrStopPropagation, err)
}

// HandlerError wraps an error returned by a handler with the position it
// failed at. Fire aborts the remaining handlers and returns the wrapped
// error to the caller; there is no per-handler isolation.
type HandlerError struct {
	Event string
	Index int
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %d for event %q: %v", e.Index, e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic recovered from a handler as an error.
// Returned by Fire when recovery is enabled on the owning manager.
type PanicError struct {
	Event string
	Index int
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %d for event %q panicked: %v", e.Index, e.Event, e.Value)
}

// IsPanic checks if an error wraps a recovered handler panic.
func IsPanic(err error) bool {
	var panicErr *PanicError
	return errors.As(err, &panicErr)
}

// CircuitOpenError indicates the circuit breaker is open.
type CircuitOpenError struct {
	Event string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker for event %q is open", e.Event)
}

// IsCircuitOpen checks if an error indicates an open circuit breaker.
func IsCircuitOpen(err error) bool {
	var circuitErr *CircuitOpenError
	return errors.As(err, &circuitErr)
}
