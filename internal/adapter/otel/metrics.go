package otel

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "agentgate"

// Monitor implements the observe.Monitor port with OTel instruments.
// Fail-open events and decision-log append failures show up as
// agentgate.errors with a kind attribute, so operators can alert on
// them separately from normal allows.
type Monitor struct {
	errors  metric.Int64Counter
	latency metric.Float64Histogram
}

// NewMonitor creates the metric instruments.
func NewMonitor() (*Monitor, error) {
	meter := otel.Meter(meterName)
	m := &Monitor{}
	var err error

	m.errors, err = meter.Int64Counter("agentgate.errors",
		metric.WithDescription("Infrastructure errors by kind"))
	if err != nil {
		return nil, err
	}

	m.latency, err = meter.Float64Histogram("agentgate.latency_ms",
		metric.WithDescription("Operation latency in milliseconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordError counts an infrastructure error and logs it. Never blocks.
func (m *Monitor) RecordError(ctx context.Context, kind string, err error) {
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	slog.Warn("infrastructure error", "kind", kind, "error", err)
}

// RecordLatency records a duration in milliseconds under the given name.
func (m *Monitor) RecordLatency(ctx context.Context, name string, ms int64) {
	m.latency.Record(ctx, float64(ms), metric.WithAttributes(attribute.String("name", name)))
}
