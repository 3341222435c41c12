// Package eicu wraps the eICU Collaborative Research Database. It has no
// custom tables; every reflected table is reachable through the querier.
package eicu

import "github.com/satishbabariya/ehrquery/pkg/client"

// DefaultSchema is the schema eICU is usually loaded into.
const DefaultSchema = "eicu_crd"

// Querier is a client.Querier over an eICU database.
type Querier struct {
	*client.Querier
	schema string
}

// New wraps q. An empty schema means DefaultSchema.
func New(q *client.Querier, schema string) *Querier {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Querier{Querier: q, schema: schema}
}

// Schema returns the schema holding the tables.
func (e *Querier) Schema() string {
	return e.schema
}

// Table returns a query interface over one eICU table.
func (e *Querier) Table(name string) (*client.QueryInterface, error) {
	return e.Querier.Table(e.schema, name)
}
