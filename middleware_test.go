package dispatch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, ev *Event, args ...any) error {
				order = append(order, name)
				return next(ctx, ev, args...)
			}
		}
	}
	h := Chain(func(ctx context.Context, ev *Event, args ...any) error {
		order = append(order, "handler")
		return nil
	}, mark("outer"), mark("inner"))

	e := New(h)
	if err := e.Fire(context.Background()); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if diff := cmp.Diff([]string{"outer", "inner", "handler"}, order); diff != "" {
		t.Errorf("order diff: %s", diff)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := TestManager("test")
	e := m.GetOrCreate("foo")
	e.AddHandler(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		return nil
	}, LoggingMiddleware(logger)))
	if err := e.Fire(context.Background(), 1); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "handled") || !strings.Contains(out, "event=foo") {
		t.Errorf("unexpected log output: %q", out)
	}

	buf.Reset()
	e2 := m.GetOrCreate("bar")
	e2.AddHandler(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		return errors.New("boom")
	}, LoggingMiddleware(logger)))
	if err := e2.Fire(context.Background()); err == nil {
		t.Fatal("expected handler error")
	}
	if out := buf.String(); !strings.Contains(out, "handler failed") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)
	e := New(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		return nil
	}, RateLimitMiddleware(limiter)))

	// First fire consumes the only token.
	if err := e.Fire(context.Background()); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	// With the bucket empty and the context cancelled, Wait fails.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Fire(ctx)
	if err == nil {
		t.Fatal("expected rate limit error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	boom := errors.New("boom")
	e := New(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		return boom
	}, CircuitBreakerMiddleware(cb)))

	for i := 0; i < 2; i++ {
		if err := e.Fire(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("fire %d: expected boom, got: %v", i, err)
		}
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open circuit, got: %v", cb.State())
	}
	err := e.Fire(context.Background())
	if !IsCircuitOpen(err) {
		t.Errorf("expected CircuitOpenError, got: %v", err)
	}
}

func TestCircuitBreakerStopIsSuccess(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Hour)
	e := New(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		return ErrStopPropagation
	}, CircuitBreakerMiddleware(cb)))

	for i := 0; i < 5; i++ {
		if err := e.Fire(context.Background()); err != nil {
			t.Fatalf("fire %d failed: %v", i, err)
		}
	}
	if cb.State() != CircuitClosed {
		t.Errorf("stop sentinel tripped the breaker: %v", cb.State())
	}
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Millisecond)
	fail := true
	e := New(Chain(func(ctx context.Context, ev *Event, args ...any) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, CircuitBreakerMiddleware(cb)))

	if err := e.Fire(context.Background()); err == nil {
		t.Fatal("expected failure")
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("expected open circuit, got: %v", cb.State())
	}

	// After the timeout the breaker half-opens and a success closes it.
	time.Sleep(5 * time.Millisecond)
	fail = false
	if err := e.Fire(context.Background()); err != nil {
		t.Fatalf("fire failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("expected closed circuit, got: %v", cb.State())
	}
}
