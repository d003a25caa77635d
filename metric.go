package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Span attribute keys used on fire spans.
const (
	spanKeyDispatchID = "dispatch.id"
	spanKeyEventName  = "event.name"
	spanKeyManager    = "event.manager"
)

// recordFired counts a Fire call on an event.
func recordFired(ctx context.Context, meterName, event string) {
	meter := otel.Meter(meterName)
	fired, _ := meter.Int64Counter("dispatch.fired",
		metric.WithDescription("Total number of events fired"))
	fired.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// recordHandled counts a successful handler invocation.
func recordHandled(ctx context.Context, meterName, event string) {
	meter := otel.Meter(meterName)
	handled, _ := meter.Int64Counter("dispatch.handled",
		metric.WithDescription("Total number of handler invocations"))
	handled.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}
