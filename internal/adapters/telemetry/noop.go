package telemetry

import "context"

// NoopTelemetry discards everything.
type NoopTelemetry struct{}

// NewNoopTelemetry creates a new no-op telemetry adapter.
func NewNoopTelemetry() *NoopTelemetry {
	return &NoopTelemetry{}
}

func (n *NoopTelemetry) RecordQuery(ctx context.Context, info QueryInfo) {}

func (n *NoopTelemetry) RecordError(ctx context.Context, info ErrorInfo) {}

func (n *NoopTelemetry) RecordConnection(ctx context.Context, info ConnectionInfo) {}

var _ Telemetry = (*NoopTelemetry)(nil)
