package client

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/satishbabariya/ehrquery/internal/adapters/export"
	"github.com/satishbabariya/ehrquery/pkg/frame"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Format is an export file format.
type Format = export.Format

const (
	FormatCSV     = export.FormatCSV
	FormatParquet = export.FormatParquet
)

// QueryInterface pairs a query with the database that runs it and keeps the
// data of the last run. Composition methods return new values and leave the
// receiver untouched; Run, RunBatches and ClearData update the receiver, so
// a QueryInterface must not be run from several goroutines at once.
type QueryInterface struct {
	db      *Database
	query   query.Query
	data    *frame.Frame
	batches *BatchIterator
}

// NewQueryInterface wraps q.
func NewQueryInterface(db *Database, q query.Query) *QueryInterface {
	return &QueryInterface{db: db, query: q}
}

// Query returns the wrapped query.
func (qi *QueryInterface) Query() query.Query {
	return qi.query
}

// Database returns the database the query runs against.
func (qi *QueryInterface) Database() *Database {
	return qi.db
}

// Err returns the first error recorded while composing the query.
func (qi *QueryInterface) Err() error {
	return qi.query.Err()
}

// Join joins right onto the query.
func (qi *QueryInterface) Join(right *QueryInterface, spec query.JoinSpec) *QueryInterface {
	return NewQueryInterface(qi.db, qi.query.Join(right.query, spec))
}

// JoinQuery joins a bare query onto the query.
func (qi *QueryInterface) JoinQuery(right query.Query, spec query.JoinSpec) *QueryInterface {
	return NewQueryInterface(qi.db, qi.query.Join(right, spec))
}

// Ops applies ops in order.
func (qi *QueryInterface) Ops(ops ...query.Op) *QueryInterface {
	return NewQueryInterface(qi.db, qi.query.Apply(ops...))
}

// Union combines the query with other, removing duplicate rows.
func (qi *QueryInterface) Union(other *QueryInterface) *QueryInterface {
	return NewQueryInterface(qi.db, qi.query.Union(other.query))
}

// UnionAll combines the query with other, keeping duplicate rows.
func (qi *QueryInterface) UnionAll(other *QueryInterface) *QueryInterface {
	return NewQueryInterface(qi.db, qi.query.UnionAll(other.query))
}

// Run executes the query and keeps the result as Data.
func (qi *QueryInterface) Run(ctx context.Context, opts ...RunOption) (*frame.Frame, error) {
	f, err := qi.db.Run(ctx, qi.query, opts...)
	if err != nil {
		return nil, err
	}
	qi.data, qi.batches = f, nil
	return f, nil
}

// RunBatches partitions the query on index. The iterator is kept so that a
// later Save writes one file per batch.
func (qi *QueryInterface) RunBatches(ctx context.Context, index string, batchSize int64) (*BatchIterator, error) {
	it, err := qi.db.RunBatches(ctx, qi.query, index, batchSize)
	if err != nil {
		return nil, err
	}
	qi.data, qi.batches = nil, it
	return it, nil
}

// Data returns the result of the last Run, or nil.
func (qi *QueryInterface) Data() *frame.Frame {
	return qi.data
}

// ClearData drops the result of the last run.
func (qi *QueryInterface) ClearData() {
	qi.data, qi.batches = nil, nil
}

// Save writes the query result to path and returns the path written.
//
// After Run the kept data is written. After RunBatches the batches not yet
// consumed are fetched and written as path/batch-NNN.<ext>, numbered by batch
// position, and path is returned. Otherwise the query is run and written.
func (qi *QueryInterface) Save(ctx context.Context, path string, format Format) (string, error) {
	if _, err := export.ParseFormat(string(format)); err != nil {
		return "", err
	}

	switch {
	case qi.data != nil:
		return qi.db.SaveFrame(qi.data, path, format)

	case qi.batches != nil:
		for f, err := range qi.batches.All(ctx) {
			if err != nil {
				return "", err
			}
			name := fmt.Sprintf("batch-%03d", qi.batches.Index())
			if _, err := qi.db.SaveFrame(f, filepath.Join(path, name), format); err != nil {
				return "", err
			}
		}
		return path, nil

	default:
		return qi.db.save(ctx, qi.query, path, format)
	}
}
