// Package introspection reflects schemas, tables and columns from a live database.
package introspection

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Queryer runs a query that returns rows.
type Queryer interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Column is a reflected column.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // upper-case database type, e.g. "INTEGER", "TIMESTAMP"
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

// IsTimestamp reports whether the column holds date-times.
func (c Column) IsTimestamp() bool {
	return strings.HasPrefix(c.Type, "TIMESTAMP") || c.Type == "DATETIME"
}

// Table is a reflected table or view.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// ColumnNames returns the table's column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Introspector reads catalog metadata.
type Introspector interface {
	// Schemas lists user schemas, excluding system schemas.
	Schemas(ctx context.Context) ([]string, error)

	// Tables lists the tables and views of schema with their columns.
	Tables(ctx context.Context, schema string) ([]Table, error)
}

// New returns the introspector for dialect.
func New(db Queryer, dialect query.Dialect) (Introspector, error) {
	switch dialect {
	case query.PostgreSQL:
		return &postgresIntrospector{db: db}, nil
	case query.MySQL:
		return &mysqlIntrospector{db: db}, nil
	case query.SQLite:
		return &sqliteIntrospector{db: db}, nil
	default:
		return nil, fmt.Errorf("%w: %q", query.ErrUnsupportedDialect, dialect)
	}
}

// Reflect reads every table of the exposed schemas. A non-empty allow list
// restricts the schemas to those named in it.
func Reflect(ctx context.Context, in Introspector, allow []string) ([]string, []Table, error) {
	all, err := in.Schemas(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	schemas := FilterSchemas(all, allow)

	var tables []Table
	for _, schema := range schemas {
		ts, err := in.Tables(ctx, schema)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to introspect schema %s: %w", schema, err)
		}
		tables = append(tables, ts...)
	}
	return schemas, tables, nil
}

// FilterSchemas keeps the schemas named in allow, preserving the order of all.
// An empty allow list keeps everything.
func FilterSchemas(all, allow []string) []string {
	if len(allow) == 0 {
		return slices.Clone(all)
	}
	out := make([]string, 0, len(allow))
	for _, s := range all {
		if slices.Contains(allow, s) {
			out = append(out, s)
		}
	}
	return out
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// groupColumns scans (table, column, type, nullable, position) rows into
// tables, in row order.
func groupColumns(rows *sql.Rows, schema string) ([]Table, error) {
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var (
			table, nullable string
			col             Column
		)
		if err := rows.Scan(&table, &col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, err
		}
		col.Type = normalizeType(col.Type)
		col.Nullable = strings.EqualFold(nullable, "YES")

		if n := len(tables); n == 0 || tables[n-1].Name != table {
			tables = append(tables, Table{Schema: schema, Name: table})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, col)
	}
	return tables, rows.Err()
}

var typeAliases = map[string]string{
	"TIMESTAMP WITHOUT TIME ZONE": "TIMESTAMP",
	"TIMESTAMP WITH TIME ZONE":    "TIMESTAMPTZ",
	"CHARACTER VARYING":           "VARCHAR",
	"CHARACTER":                   "CHAR",
	"TIME WITHOUT TIME ZONE":      "TIME",
}

func normalizeType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	return t
}
