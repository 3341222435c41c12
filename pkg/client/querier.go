package client

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Accessor builds the query of a custom table.
type Accessor func(q *Querier) (*QueryInterface, error)

// Querier exposes the tables of a database and the custom tables registered
// by dataset packages.
type Querier struct {
	db *Database

	mu     sync.RWMutex
	custom map[string]Accessor
}

// NewQuerier opens the database described by cfg and wraps it.
func NewQuerier(ctx context.Context, cfg Config, opts ...Option) *Querier {
	return NewQuerierFromDatabase(Open(ctx, cfg, opts...))
}

// NewQuerierFromDatabase wraps an open database.
func NewQuerierFromDatabase(db *Database) *Querier {
	if !db.IsConnected() {
		db.Logger().Error("database is not connected, cannot run queries")
	}
	return &Querier{db: db, custom: make(map[string]Accessor)}
}

// Database returns the underlying database.
func (q *Querier) Database() *Database {
	return q.db
}

// ListSchemas returns the exposed schemas.
func (q *Querier) ListSchemas() ([]string, error) {
	return q.db.ListSchemas()
}

// ListTables returns qualified table names, restricted to schema unless it
// is empty.
func (q *Querier) ListTables(schema string) ([]string, error) {
	return q.db.ListTables(schema)
}

// ListColumns returns the column names of a table.
func (q *Querier) ListColumns(schema, table string) ([]string, error) {
	t, err := q.db.Table(schema, table)
	if err != nil {
		return nil, err
	}
	return t.ColumnNames(), nil
}

// ListCustomTables returns the names of the registered custom tables,
// sorted.
func (q *Querier) ListCustomTables() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	names := make([]string, 0, len(q.custom))
	for name := range q.custom {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetTable returns a query over a table. When castTimestamps is set the
// date-time columns are cast to Timestamp so every backend yields the same
// type.
func (q *Querier) GetTable(schema, table string, castTimestamps bool) (query.Query, error) {
	t, err := q.db.Table(schema, table)
	if err != nil {
		return query.Query{}, err
	}
	qry := t.Query()
	if cols := t.TimestampColumns(); castTimestamps && len(cols) > 0 {
		qry = qry.Cast(query.Timestamp, cols...)
	}
	return qry, qry.Err()
}

// Table returns a query interface over a table, without casts.
func (q *Querier) Table(schema, table string) (*QueryInterface, error) {
	qry, err := q.GetTable(schema, table, false)
	if err != nil {
		return nil, err
	}
	return NewQueryInterface(q.db, qry), nil
}

// JoinDimension joins a fact table to a dimension table of the same schema
// on keys, each cast to the matching entry of types.
func (q *Querier) JoinDimension(schema, fact, dimension string, keys []string, types []query.Type) (*QueryInterface, error) {
	left, err := q.GetTable(schema, fact, true)
	if err != nil {
		return nil, err
	}
	right, err := q.GetTable(schema, dimension, true)
	if err != nil {
		return nil, err
	}
	joined := left.Join(right, query.JoinSpec{On: query.On(keys...), OnTypes: types})
	if err := joined.Err(); err != nil {
		return nil, fmt.Errorf("join %s.%s with %s: %w", schema, fact, dimension, err)
	}
	return NewQueryInterface(q.db, joined), nil
}

// Register adds a custom table.
func (q *Querier) Register(name string, fn Accessor) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.custom[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccessor, name)
	}
	q.custom[name] = fn
	return nil
}

// Custom builds the query of a registered custom table.
func (q *Querier) Custom(name string) (*QueryInterface, error) {
	q.mu.RLock()
	fn, ok := q.custom[name]
	q.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccessor, name)
	}
	return fn(q)
}
