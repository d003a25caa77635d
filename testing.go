package dispatch

import (
	"context"
	"sync"
	"time"
)

// TestManager creates a new manager configured for testing.
// Has recovery/tracing/metrics disabled for simpler testing.
func TestManager(name string) *Manager {
	return NewManager(name,
		WithRecovery(false),
		WithTracing(false),
		WithMetrics(false),
	)
}

// RecordedCall represents a single handler invocation captured by a
// Recorder.
type RecordedCall struct {
	Event     string
	Args      []any
	Timestamp time.Time
}

// Recorder captures handler invocations for assertions in tests.
// Its Handler method returns a Handler that records the firing event's name
// and arguments on every call.
type Recorder struct {
	mu    sync.Mutex
	calls []RecordedCall
}

// NewRecorder creates a new invocation recorder.
//
// Example:
//
//	rec := dispatch.NewRecorder()
//	ev.AddHandler(rec.Handler())
//	ev.Fire(ctx, 1, 2)
//	calls := rec.Calls()
func NewRecorder() *Recorder {
	return &Recorder{
		calls: make([]RecordedCall, 0),
	}
}

// Handler returns a recording handler. Each call to Handler returns a
// distinct function value, so the same recorder can be registered on one
// event multiple times.
func (r *Recorder) Handler() Handler {
	return func(ctx context.Context, ev *Event, args ...any) error {
		r.mu.Lock()
		r.calls = append(r.calls, RecordedCall{
			Event:     ContextEventName(ctx),
			Args:      args,
			Timestamp: time.Now(),
		})
		r.mu.Unlock()
		return nil
	}
}

// Calls returns a copy of all recorded calls in invocation order.
func (r *Recorder) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]RecordedCall, len(r.calls))
	copy(result, r.calls)
	return result
}

// CallsFor returns recorded calls for a specific event name.
func (r *Recorder) CallsFor(event string) []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []RecordedCall
	for _, c := range r.calls {
		if c.Event == event {
			result = append(result, c)
		}
	}
	return result
}

// Count returns the number of recorded calls.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// CountFor returns the number of recorded calls for a specific event name.
func (r *Recorder) CountFor(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, c := range r.calls {
		if c.Event == event {
			count++
		}
	}
	return count
}

// Reset clears all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = make([]RecordedCall, 0)
	r.mu.Unlock()
}
