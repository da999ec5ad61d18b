// Package observe defines the fire-and-forget error/metrics port the
// core reports through. Implementations must never block or fail the
// caller; a dropped measurement is acceptable, a blocked validation is not.
package observe

import "context"

// Monitor receives infrastructure error and latency signals from the
// core. Fail-open events and decision-log append failures are reported
// here so operators can alert on them separately from normal traffic.
type Monitor interface {
	// RecordError counts an infrastructure error. kind is a stable label
	// such as "policy_fail_open" or "decision_log_append".
	RecordError(ctx context.Context, kind string, err error)

	// RecordLatency records a duration in milliseconds under the given name.
	RecordLatency(ctx context.Context, name string, ms int64)
}

// Nop is a Monitor that discards everything. Useful in tests and as the
// default when telemetry is disabled.
type Nop struct{}

func (Nop) RecordError(context.Context, string, error) {}

func (Nop) RecordLatency(context.Context, string, int64) {}
