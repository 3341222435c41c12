package client

import (
	"slices"

	"github.com/satishbabariya/ehrquery/internal/core/introspection"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Column is a reflected column.
type Column = introspection.Column

// Table is the handle of one reflected table or view.
type Table struct {
	Schema  string
	Name    string
	Columns []Column
}

// QualifiedName returns schema.table.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TimestampColumns returns the names of the date-time columns.
func (t *Table) TimestampColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.IsTimestamp() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Query starts a query over every column of the table.
func (t *Table) Query() query.Query {
	return query.Table(t.Schema, t.Name, t.ColumnNames()...)
}

type tableKey struct {
	schema, name string
}

// Catalog maps schema and table names to table handles. It is built once
// while connecting and never changes.
type Catalog struct {
	schemas []string
	tables  []*Table
	byName  map[tableKey]*Table
}

func newCatalog(schemas []string, tables []introspection.Table) *Catalog {
	c := &Catalog{
		schemas: slices.Clone(schemas),
		tables:  make([]*Table, 0, len(tables)),
		byName:  make(map[tableKey]*Table, len(tables)),
	}
	for _, t := range tables {
		tbl := &Table{Schema: t.Schema, Name: t.Name, Columns: slices.Clone(t.Columns)}
		c.tables = append(c.tables, tbl)
		c.byName[tableKey{t.Schema, t.Name}] = tbl
	}
	return c
}

// Schemas returns the exposed schema names.
func (c *Catalog) Schemas() []string {
	return slices.Clone(c.schemas)
}

// Tables returns the tables of schema, or of every schema when schema is
// empty.
func (c *Catalog) Tables(schema string) []*Table {
	var out []*Table
	for _, t := range c.tables {
		if schema == "" || t.Schema == schema {
			out = append(out, t)
		}
	}
	return out
}

// Lookup finds a table by schema and name.
func (c *Catalog) Lookup(schema, name string) (*Table, bool) {
	t, ok := c.byName[tableKey{schema, name}]
	return t, ok
}

// Len returns the number of tables.
func (c *Catalog) Len() int {
	return len(c.tables)
}
