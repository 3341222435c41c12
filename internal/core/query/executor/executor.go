// Package executor runs compiled queries and materializes their rows.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/satishbabariya/ehrquery/internal/adapters/telemetry"
	"github.com/satishbabariya/ehrquery/pkg/frame"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Queryer runs a query that returns rows. database.Adapter satisfies it.
type Queryer interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Executor turns compiled SQL into frames.
type Executor struct {
	db        Queryer
	telemetry telemetry.Telemetry
}

// New creates an executor. A nil tel records nothing.
func New(db Queryer, tel telemetry.Telemetry) *Executor {
	if tel == nil {
		tel = telemetry.NewNoopTelemetry()
	}
	return &Executor{db: db, telemetry: tel}
}

// Fetch executes stmt and reads every row. operation labels the telemetry
// event.
func (e *Executor) Fetch(ctx context.Context, operation string, stmt query.SQL) (*frame.Frame, error) {
	if e.db == nil {
		return nil, fmt.Errorf("database adapter not initialized")
	}

	start := time.Now()
	f, err := e.fetch(ctx, stmt)
	info := telemetry.QueryInfo{
		Operation: operation,
		SQL:       stmt.Query,
		Duration:  time.Since(start),
		Success:   err == nil,
	}
	if f != nil {
		info.Rows = f.Len()
	}
	e.telemetry.RecordQuery(ctx, info)
	if err != nil {
		e.telemetry.RecordError(ctx, telemetry.ErrorInfo{Error: err, Operation: operation, SQL: stmt.Query})
		return nil, err
	}
	return f, nil
}

func (e *Executor) fetch(ctx context.Context, stmt query.SQL) (*frame.Frame, error) {
	rows, err := e.db.Query(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	columns := make([]frame.Column, len(types))
	for i, ct := range types {
		columns[i] = frame.Column{Name: ct.Name(), DatabaseType: strings.ToUpper(ct.DatabaseTypeName())}
	}

	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(data) == 0 {
		for i := range columns {
			columns[i].Kind = KindOf(columns[i].DatabaseType)
		}
		return frame.Empty(columns), nil
	}
	return frame.New(columns, data)
}

// KindOf maps a database type name to the frame kind its values take.
// Unknown types map to KindNull.
func KindOf(dbType string) frame.Kind {
	t := strings.ToUpper(dbType)
	switch {
	case t == "":
		return frame.KindNull
	case frame.IsIntegerType(t):
		return frame.KindInt64
	case frame.IsFloatType(t):
		return frame.KindFloat64
	case t == "BOOL" || t == "BOOLEAN":
		return frame.KindBool
	case strings.HasPrefix(t, "TIMESTAMP"), t == "DATETIME", t == "DATE":
		return frame.KindTimestamp
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), t == "UUID", t == "JSON", t == "JSONB":
		return frame.KindString
	default:
		return frame.KindNull
	}
}
