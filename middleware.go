package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Middleware wraps a handler to add behavior around its invocation.
type Middleware func(Handler) Handler

// Chain applies middleware to a handler. The first middleware is the
// outermost wrapper.
//
// Example usage:
//
//	ev.AddHandler(dispatch.Chain(handler,
//	    dispatch.LoggingMiddleware(nil),
//	    dispatch.RateLimitMiddleware(rate.NewLimiter(rate.Limit(100), 10)),
//	))
func Chain(h Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// LoggingMiddleware creates a middleware that logs every invocation of the
// wrapped handler with the event name, dispatch ID, duration and outcome.
// A nil logger falls back to the dispatching manager's logger from context.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event, args ...any) error {
			l := logger
			if l == nil {
				l = ContextLogger(ctx)
			}
			start := time.Now()
			err := next(ctx, ev, args...)
			attrs := []any{
				"event", ContextEventName(ctx),
				"dispatch_id", ContextDispatchID(ctx),
				"duration", time.Since(start),
			}
			switch {
			case err == nil:
				l.Debug("handled", attrs...)
			case errors.Is(err, ErrStopPropagation):
				l.Debug("handled, propagation stopped", attrs...)
			default:
				l.Error("handler failed", append(attrs, "error", err)...)
			}
			return err
		}
	}
}

// RateLimitMiddleware creates a middleware that throttles the wrapped
// handler with a token bucket. Dispatch stays synchronous: the handler
// blocks in Wait until a token is available or the context is done.
//
// Example usage:
//
//	limiter := rate.NewLimiter(rate.Limit(100), 10)
//	ev.AddHandler(dispatch.Chain(handler, dispatch.RateLimitMiddleware(limiter)))
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event, args ...any) error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return fmt.Errorf("rate limit: %w", err)
				}
			}
			return next(ctx, ev, args...)
		}
	}
}

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// CircuitClosed means the circuit is functioning normally
	CircuitClosed CircuitState = iota
	// CircuitOpen means the circuit is open due to failures (requests fail fast)
	CircuitOpen
	// CircuitHalfOpen means the circuit is testing if the handler recovered
	CircuitHalfOpen
)

// CircuitBreaker provides circuit breaker functionality for event handlers.
// When failures exceed a threshold, the circuit opens and invocations fail
// fast.
type CircuitBreaker struct {
	mu sync.RWMutex

	// Configuration
	failureThreshold int           // Number of failures before opening
	successThreshold int           // Number of successes needed to close from half-open
	timeout          time.Duration // How long to wait before trying half-open

	// State
	state         CircuitState
	failures      int
	successes     int
	lastStateTime time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
// failureThreshold: number of consecutive failures before opening (default: 5)
// successThreshold: number of consecutive successes in half-open before closing (default: 2)
// timeout: time to wait before attempting half-open (default: 30s)
func NewCircuitBreaker(failureThreshold, successThreshold int, timeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            CircuitClosed,
		lastStateTime:    time.Now(),
	}
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Allow checks if an invocation should be allowed.
// Returns true if it can proceed, false if it should fail fast.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		// Check if timeout has passed
		if time.Since(cb.lastStateTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			cb.successes = 0
			cb.lastStateTime = time.Now()
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess records a successful invocation
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0

	if cb.state == CircuitHalfOpen {
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = CircuitClosed
			cb.successes = 0
			cb.lastStateTime = time.Now()
		}
	}
}

// RecordFailure records a failed invocation
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successes = 0
	cb.failures++

	if cb.state == CircuitClosed && cb.failures >= cb.failureThreshold {
		cb.state = CircuitOpen
		cb.lastStateTime = time.Now()
	} else if cb.state == CircuitHalfOpen {
		// Any failure in half-open goes back to open
		cb.state = CircuitOpen
		cb.lastStateTime = time.Now()
	}
}

// CircuitBreakerMiddleware creates a middleware that implements the circuit
// breaker pattern. When failures exceed the threshold, subsequent
// invocations fail fast until the timeout. A stop sentinel counts as
// success, not failure.
//
// Example usage:
//
//	cb := dispatch.NewCircuitBreaker(5, 2, 30*time.Second)
//	ev.AddHandler(dispatch.Chain(handler, dispatch.CircuitBreakerMiddleware(cb)))
func CircuitBreakerMiddleware(cb *CircuitBreaker) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev *Event, args ...any) error {
			// Check if circuit allows the invocation
			if !cb.Allow() {
				ContextLogger(ctx).Warn("circuit breaker open, failing fast",
					"event", ContextEventName(ctx),
					"state", cb.State())
				return &CircuitOpenError{Event: ContextEventName(ctx)}
			}

			// Execute handler
			err := next(ctx, ev, args...)

			// Record result
			if err == nil || errors.Is(err, ErrStopPropagation) {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}

			return err
		}
	}
}
