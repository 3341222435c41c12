package introspection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

type sqliteIntrospector struct {
	db Queryer
}

// Schemas lists attached databases ("main" and any ATTACHed files).
func (i *sqliteIntrospector) Schemas(ctx context.Context) ([]string, error) {
	rows, err := i.db.Query(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var (
			seq  int
			name string
			file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return nil, err
		}
		if name != "temp" {
			schemas = append(schemas, name)
		}
	}
	return schemas, rows.Err()
}

func (i *sqliteIntrospector) Tables(ctx context.Context, schema string) ([]Table, error) {
	q := fmt.Sprintf(`
		SELECT name
		FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name
	`, query.QuoteIdent(query.SQLite, schema))

	rows, err := i.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	names, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := i.columns(ctx, schema, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
		}
		tables = append(tables, Table{Schema: schema, Name: name, Columns: cols})
	}
	return tables, nil
}

// columns reads PRAGMA table_info: cid, name, type, notnull, dflt_value, pk.
func (i *sqliteIntrospector) columns(ctx context.Context, schema, table string) ([]Column, error) {
	q := fmt.Sprintf("PRAGMA %s.table_info(%s)",
		query.QuoteIdent(query.SQLite, schema), query.QuoteIdent(query.SQLite, table))

	rows, err := i.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			col              Column
			defaultVal       sql.NullString
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		col.Type = normalizeType(col.Type)
		if p := strings.IndexByte(col.Type, '('); p > 0 {
			col.Type = strings.TrimSpace(col.Type[:p])
		}
		col.Nullable = notNull == 0
		col.Position = cid + 1
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
