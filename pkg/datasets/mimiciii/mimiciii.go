// Package mimiciii provides custom tables for the MIMIC-III database.
package mimiciii

import (
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// DefaultSchema is the schema MIMIC-III is usually loaded into.
const DefaultSchema = "mimiciii"

// Querier adds the MIMIC-III custom tables to a client.Querier.
type Querier struct {
	*client.Querier
	schema string
}

// Option configures a Querier.
type Option func(*Querier)

// WithSchema overrides the schema holding the MIMIC-III tables.
func WithSchema(schema string) Option {
	return func(q *Querier) {
		q.schema = schema
	}
}

// New registers diagnoses, labevents and chartevents on q.
func New(q *client.Querier, opts ...Option) (*Querier, error) {
	m := &Querier{Querier: q, schema: DefaultSchema}
	for _, opt := range opts {
		opt(m)
	}

	for name, fn := range map[string]func() (*client.QueryInterface, error){
		"diagnoses":   m.Diagnoses,
		"labevents":   m.LabEvents,
		"chartevents": m.ChartEvents,
	} {
		if err := q.Register(name, func(*client.Querier) (*client.QueryInterface, error) { return fn() }); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Schema returns the schema holding the tables.
func (m *Querier) Schema() string {
	return m.schema
}

// Diagnoses joins diagnoses_icd to d_icd_diagnoses on icd9_code.
func (m *Querier) Diagnoses() (*client.QueryInterface, error) {
	return m.JoinDimension(m.schema, "diagnoses_icd", "d_icd_diagnoses",
		[]string{"icd9_code"}, []query.Type{query.String})
}

// LabEvents joins labevents to d_labitems on itemid.
func (m *Querier) LabEvents() (*client.QueryInterface, error) {
	return m.JoinDimension(m.schema, "labevents", "d_labitems",
		[]string{"itemid"}, []query.Type{query.String})
}

// ChartEvents joins chartevents to d_items on itemid.
func (m *Querier) ChartEvents() (*client.QueryInterface, error) {
	return m.JoinDimension(m.schema, "chartevents", "d_items",
		[]string{"itemid"}, []query.Type{query.String})
}
