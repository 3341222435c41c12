// Package mimiciv provides custom tables for the MIMIC-IV database, whose
// tables are split between a hospital and an ICU module.
package mimiciv

import (
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// Default module schemas.
const (
	DefaultHospSchema = "mimiciv_hosp"
	DefaultICUSchema  = "mimiciv_icu"
)

// Querier adds the MIMIC-IV custom tables to a client.Querier.
type Querier struct {
	*client.Querier
	hosp string
	icu  string
}

// Option configures a Querier.
type Option func(*Querier)

// WithHospSchema overrides the schema of the hospital module.
func WithHospSchema(schema string) Option {
	return func(q *Querier) {
		q.hosp = schema
	}
}

// WithICUSchema overrides the schema of the ICU module.
func WithICUSchema(schema string) Option {
	return func(q *Querier) {
		q.icu = schema
	}
}

// New registers patients, diagnoses, procedures, labevents and chartevents
// on q.
func New(q *client.Querier, opts ...Option) (*Querier, error) {
	m := &Querier{Querier: q, hosp: DefaultHospSchema, icu: DefaultICUSchema}
	for _, opt := range opts {
		opt(m)
	}

	for name, fn := range map[string]func() (*client.QueryInterface, error){
		"patients":    m.Patients,
		"diagnoses":   m.DiagnosesICD,
		"procedures":  m.ProceduresICD,
		"labevents":   m.LabEvents,
		"chartevents": m.ChartEvents,
	} {
		if err := q.Register(name, func(*client.Querier) (*client.QueryInterface, error) { return fn() }); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Patients returns the patients table with its date-times cast.
func (m *Querier) Patients() (*client.QueryInterface, error) {
	q, err := m.GetTable(m.hosp, "patients", true)
	if err != nil {
		return nil, err
	}
	return client.NewQueryInterface(m.Database(), q), nil
}

// DiagnosesICD joins diagnoses_icd to d_icd_diagnoses. ICD-9 and ICD-10
// codes overlap, so the version is part of the key.
func (m *Querier) DiagnosesICD() (*client.QueryInterface, error) {
	return m.JoinDimension(m.hosp, "diagnoses_icd", "d_icd_diagnoses",
		[]string{"icd_code", "icd_version"}, []query.Type{query.String, query.Integer})
}

// ProceduresICD joins procedures_icd to d_icd_procedures.
func (m *Querier) ProceduresICD() (*client.QueryInterface, error) {
	return m.JoinDimension(m.hosp, "procedures_icd", "d_icd_procedures",
		[]string{"icd_code", "icd_version"}, []query.Type{query.String, query.Integer})
}

// LabEvents joins labevents to d_labitems on itemid.
func (m *Querier) LabEvents() (*client.QueryInterface, error) {
	return m.JoinDimension(m.hosp, "labevents", "d_labitems",
		[]string{"itemid"}, []query.Type{query.Integer})
}

// ChartEvents joins the ICU chartevents to d_items on itemid.
func (m *Querier) ChartEvents() (*client.QueryInterface, error) {
	return m.JoinDimension(m.icu, "chartevents", "d_items",
		[]string{"itemid"}, []query.Type{query.Integer})
}
