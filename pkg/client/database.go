// Package client connects to an EHR database, reflects its schema and runs
// composed queries, whole or in batches.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
	"github.com/satishbabariya/ehrquery/internal/adapters/database/mysql"
	"github.com/satishbabariya/ehrquery/internal/adapters/database/postgres"
	"github.com/satishbabariya/ehrquery/internal/adapters/database/sqlite"
	"github.com/satishbabariya/ehrquery/internal/adapters/export"
	"github.com/satishbabariya/ehrquery/internal/adapters/telemetry"
	"github.com/satishbabariya/ehrquery/internal/core/batch"
	"github.com/satishbabariya/ehrquery/internal/core/introspection"
	"github.com/satishbabariya/ehrquery/internal/core/query/executor"
	"github.com/satishbabariya/ehrquery/pkg/frame"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Database is a connected, reflected database. A Database whose setup failed
// is still usable as a value: every operation returns ErrNotConnected.
//
// All state is fixed once Open returns, so a Database may be shared between
// goroutines.
type Database struct {
	config    Config
	params    database.Params
	dialect   query.Dialect
	logger    *slog.Logger
	telemetry telemetry.Telemetry
	fs        afero.Fs
	opts      options

	adapter  database.Adapter
	compiler *query.Compiler
	executor *executor.Executor
	catalog  *Catalog
	version  string

	err error
}

// Open validates cfg, probes the server, connects and reflects the exposed
// schemas. It never fails outright; check IsConnected or Err.
func Open(ctx context.Context, cfg Config, opts ...Option) *Database {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.finish()

	d := &Database{
		config:    cfg,
		params:    cfg.params(),
		logger:    o.logger,
		telemetry: o.telemetry,
		fs:        o.fs,
		opts:      o,
		catalog:   newCatalog(nil, nil),
	}
	if err := d.setup(ctx); err != nil {
		d.err = err
		d.logger.Error("database is not connected, cannot run queries",
			"url", database.Redact(d.params), "error", err)
		return d
	}
	d.logger.Info("database setup, ready to run queries",
		"url", database.Redact(d.params),
		"server_version", d.version,
		"schemas", len(d.catalog.Schemas()),
		"tables", d.catalog.Len())
	return d
}

func (d *Database) setup(ctx context.Context) error {
	if err := d.params.Validate(d.fs); err != nil {
		return err
	}
	dialect, err := database.ParseSystem(d.params.System)
	if err != nil {
		return err
	}
	d.dialect = dialect

	if dialect != query.SQLite && !d.opts.skipProbe {
		start := time.Now()
		err := database.Probe(ctx, d.params.Host, d.params.Port, d.opts.probeTimeout)
		d.telemetry.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "probe", Duration: time.Since(start), Success: err == nil})
		if err != nil {
			return err
		}
	}

	dsn, err := database.DSN(d.params)
	if err != nil {
		return err
	}
	dbConfig := database.DefaultConfig(dsn)
	dbConfig.MaxConnections = d.opts.maxConnections
	dbConfig.ConnectTimeout = max(int(d.opts.connectTimeout/time.Second), 1)

	adapter, err := newAdapter(dialect, dbConfig)
	if err != nil {
		return err
	}
	start := time.Now()
	err = adapter.Connect(ctx)
	d.telemetry.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "connect", Duration: time.Since(start), Success: err == nil})
	if err != nil {
		return err
	}

	var compilerOpts []query.CompilerOption
	if raw, err := adapter.ServerVersion(ctx); err != nil {
		d.logger.Warn("could not read server version", "error", err)
	} else {
		d.version = raw
		if v := parseServerVersion(raw); v != nil {
			compilerOpts = append(compilerOpts, query.WithServerVersion(v))
		}
	}

	in, err := introspection.New(adapter, dialect)
	if err != nil {
		adapter.Disconnect(ctx)
		return err
	}
	schemas, tables, err := introspection.Reflect(ctx, in, d.config.Schemas)
	if err != nil {
		adapter.Disconnect(ctx)
		return err
	}

	d.adapter = adapter
	d.compiler = query.NewCompiler(dialect, compilerOpts...)
	d.executor = executor.New(adapter, d.telemetry)
	d.catalog = newCatalog(schemas, tables)
	return nil
}

func newAdapter(dialect query.Dialect, cfg database.Config) (database.Adapter, error) {
	switch dialect {
	case query.PostgreSQL:
		return postgres.NewPostgresAdapter(cfg), nil
	case query.MySQL:
		return mysql.NewMySQLAdapter(cfg), nil
	case query.SQLite:
		return sqlite.NewSQLiteAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSystem, dialect)
	}
}

// parseServerVersion extracts the numeric core of version strings such as
// "16.2 (Debian 16.2-1.pgdg120+2)" or "8.0.35-0ubuntu0.22.04.1".
func parseServerVersion(raw string) *version.Version {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	v, err := version.NewVersion(fields[0])
	if err != nil {
		return nil
	}
	return v.Core()
}

// IsConnected reports whether setup succeeded.
func (d *Database) IsConnected() bool {
	return d.err == nil
}

// Err returns the setup error, or nil.
func (d *Database) Err() error {
	return d.err
}

func (d *Database) ready() error {
	if d.err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, d.err)
	}
	if d.adapter == nil {
		return ErrNotConnected
	}
	return nil
}

// Dialect returns the SQL dialect of the connected system.
func (d *Database) Dialect() query.Dialect {
	return d.dialect
}

// ServerVersion returns the version string reported by the server.
func (d *Database) ServerVersion() string {
	return d.version
}

// URL returns the connection URL with the password masked.
func (d *Database) URL() string {
	return database.Redact(d.params)
}

// Config returns the configuration Open was called with.
func (d *Database) Config() Config {
	return d.config
}

// Logger returns the database's logger.
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Catalog returns the reflected tables. It is empty when not connected.
func (d *Database) Catalog() *Catalog {
	return d.catalog
}

// ListSchemas returns the exposed schemas.
func (d *Database) ListSchemas() ([]string, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	return d.catalog.Schemas(), nil
}

// ListTables returns the qualified names (schema.table) of the tables of
// schema, or of every schema when schema is empty.
func (d *Database) ListTables(schema string) ([]string, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	tables := d.catalog.Tables(schema)
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.QualifiedName()
	}
	return names, nil
}

// Table returns the handle of a reflected table.
func (d *Database) Table(schema, name string) (*Table, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	t, ok := d.catalog.Lookup(schema, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownTable, schema, name)
	}
	return t, nil
}

// Compile renders q in the database's dialect.
func (d *Database) Compile(q query.Query) (query.SQL, error) {
	if err := d.ready(); err != nil {
		return query.SQL{}, err
	}
	return d.compiler.Compile(q)
}

// Run executes q and returns every row.
func (d *Database) Run(ctx context.Context, q query.Query, opts ...RunOption) (*frame.Frame, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}
	if ro.hasLimit {
		q = q.Limit(ro.limit)
	}

	f, err := d.fetch(ctx, "run", q)
	if err != nil {
		return nil, err
	}
	if ro.index != "" {
		return f.WithIndex(ro.index)
	}
	return f, nil
}

// RunSQL executes a raw SELECT statement.
func (d *Database) RunSQL(ctx context.Context, sql string, opts ...RunOption) (*frame.Frame, error) {
	return d.Run(ctx, query.Raw(sql), opts...)
}

func (d *Database) fetch(ctx context.Context, operation string, q query.Query) (*frame.Frame, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	stmt, err := d.compiler.Compile(q)
	if err != nil {
		return nil, &QueryError{Operation: operation, Cause: err}
	}
	f, err := d.executor.Fetch(ctx, operation, stmt)
	if err != nil {
		return nil, &QueryError{Operation: operation, Query: stmt.Query, Cause: err}
	}
	return f, nil
}

// BatchConditions computes the conditions that split q into batches of at
// most batchSize rows without splitting any value of index. It runs one
// grouped count query, ordered by the database, and cuts boundaries in that
// order.
func (d *Database) BatchConditions(ctx context.Context, q query.Query, index string, batchSize int64) ([]query.Condition, error) {
	if err := d.ready(); err != nil {
		return nil, err
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}
	if q.HasLimit() {
		return nil, ErrLimitNotSupported
	}

	counts, err := d.fetch(ctx, "count", q.CountBy(index))
	if err != nil {
		return nil, err
	}
	groups := make([]batch.Group, counts.Len())
	for i := range groups {
		row := counts.Row(i)
		n, err := countValue(row[1])
		if err != nil {
			return nil, err
		}
		if _, ok := row[0].(time.Time); ok && d.dialect == query.SQLite {
			return nil, fmt.Errorf("%w: timestamp index %q on sqlite, batch on an integer column instead", ErrNotOrderable, index)
		}
		groups[i] = batch.Group{Value: row[0], Count: n}
	}

	conds, err := batch.Partition(index, groups, batchSize)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("computed batch boundaries", "index", index, "batch_size", batchSize, "batches", len(conds))
	return conds, nil
}

func countValue(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected count value %v (%T)", v, v)
	}
}

// RunBatches partitions q on index and returns an iterator that runs one
// batch per step.
func (d *Database) RunBatches(ctx context.Context, q query.Query, index string, batchSize int64) (*BatchIterator, error) {
	conds, err := d.BatchConditions(ctx, q, index, batchSize)
	if err != nil {
		return nil, err
	}
	return &BatchIterator{db: d, base: q, conds: conds}, nil
}

// SaveCSV runs q and writes the result as CSV. It returns the path written,
// which always ends in .csv.
func (d *Database) SaveCSV(ctx context.Context, q query.Query, path string) (string, error) {
	return d.save(ctx, q, path, export.FormatCSV)
}

// SaveParquet runs q and writes the result as Parquet. It returns the path
// written, which always ends in .parquet.
func (d *Database) SaveParquet(ctx context.Context, q query.Query, path string) (string, error) {
	return d.save(ctx, q, path, export.FormatParquet)
}

func (d *Database) save(ctx context.Context, q query.Query, path string, format export.Format) (string, error) {
	f, err := d.fetch(ctx, "save", q)
	if err != nil {
		return "", err
	}
	return d.SaveFrame(f, path, format)
}

// SaveFrame writes an already materialized frame.
func (d *Database) SaveFrame(f *frame.Frame, path string, format export.Format) (string, error) {
	out, err := export.Save(d.fs, f, path, format)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", format, err)
	}
	d.logger.Info("saved query result", "path", out, "rows", f.Len())
	return out, nil
}

// Close releases the connection pool.
func (d *Database) Close(ctx context.Context) error {
	if d.adapter == nil {
		return nil
	}
	err := d.adapter.Disconnect(ctx)
	d.telemetry.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "disconnect", Success: err == nil})
	if err != nil && !errors.Is(err, database.ErrNotConnected) {
		return err
	}
	return nil
}
