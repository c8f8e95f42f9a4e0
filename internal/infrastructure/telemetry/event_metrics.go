package telemetry

import (
	"context"
	"fmt"

	"github.com/taskflow/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics counts published domain events by type. Subscribe it to the
// bus without event types to observe every event.
type EventMetrics struct {
	events metric.Int64Counter
}

// NewEventMetrics registers the domain_events_total counter on meter
func NewEventMetrics(meter metric.Meter) (*EventMetrics, error) {
	c, err := meter.Int64Counter("domain_events_total",
		metric.WithDescription("Domain events published by type"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}
	return &EventMetrics{events: c}, nil
}

func (m *EventMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", event.EventType()),
		attribute.String("aggregate.type", event.AggregateType()),
	))
	return nil
}

// EventTypes is empty: the handler receives all events
func (m *EventMetrics) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*EventMetrics)(nil)
