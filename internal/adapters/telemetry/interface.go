// Package telemetry records query timings and failures.
package telemetry

import (
	"context"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordQuery records a query execution.
	RecordQuery(ctx context.Context, info QueryInfo)

	// RecordError records an error.
	RecordError(ctx context.Context, info ErrorInfo)

	// RecordConnection records a connection event.
	RecordConnection(ctx context.Context, info ConnectionInfo)
}

// QueryInfo describes one executed query.
type QueryInfo struct {
	// Operation names the caller (run, count, batch, ...).
	Operation string

	// SQL is the statement text, without bound values.
	SQL string

	Duration time.Duration
	Success  bool

	// Rows is the number of rows materialized.
	Rows int
}

// ErrorInfo describes a failed operation.
type ErrorInfo struct {
	Error     error
	Operation string
	SQL       string
}

// ConnectionInfo describes a connection event.
type ConnectionInfo struct {
	// Event is connect, disconnect or probe.
	Event    string
	Duration time.Duration
	Success  bool
}
