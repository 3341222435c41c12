package telemetry

import (
	"context"
	"fmt"
	"log/slog"
)

// Type selects a telemetry implementation.
type Type string

const (
	TypeNoop  Type = "noop"
	TypeLog   Type = "log"
	TypeStats Type = "stats"
)

// New creates a telemetry adapter of the given type. logger is used by
// TypeLog and ignored otherwise.
func New(typ Type, logger *slog.Logger) (Telemetry, error) {
	switch typ {
	case TypeNoop, "":
		return NewNoopTelemetry(), nil
	case TypeLog:
		return NewLogTelemetry(logger), nil
	case TypeStats:
		return NewStatsTelemetry(), nil
	default:
		return nil, fmt.Errorf("unknown telemetry type: %s", typ)
	}
}

// Multi fans events out to several adapters.
type Multi []Telemetry

func (m Multi) RecordQuery(ctx context.Context, info QueryInfo) {
	for _, t := range m {
		t.RecordQuery(ctx, info)
	}
}

func (m Multi) RecordError(ctx context.Context, info ErrorInfo) {
	for _, t := range m {
		t.RecordError(ctx, info)
	}
}

func (m Multi) RecordConnection(ctx context.Context, info ConnectionInfo) {
	for _, t := range m {
		t.RecordConnection(ctx, info)
	}
}

var _ Telemetry = Multi(nil)
