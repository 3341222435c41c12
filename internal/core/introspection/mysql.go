package introspection

import (
	"context"
)

type mysqlIntrospector struct {
	db Queryer
}

// Schemas lists databases; MySQL has no separate schema level.
func (i *mysqlIntrospector) Schemas(ctx context.Context) ([]string, error) {
	query := `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('mysql', 'sys', 'performance_schema', 'information_schema')
		ORDER BY schema_name
	`
	rows, err := i.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanStrings(rows)
}

func (i *mysqlIntrospector) Tables(ctx context.Context, schema string) ([]Table, error) {
	query := `
		SELECT c.table_name, c.column_name, c.data_type, c.is_nullable, c.ordinal_position
		FROM information_schema.columns c
		JOIN information_schema.tables t
		  ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = ?
		  AND t.table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY c.table_name, c.ordinal_position
	`
	rows, err := i.db.Query(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	return groupColumns(rows, schema)
}
