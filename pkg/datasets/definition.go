package datasets

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/ehrquery/internal/core/query/filterexpr"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

// ErrInvalidDefinition is returned for a malformed custom table definition.
var ErrInvalidDefinition = errors.New("invalid custom table definition")

// Definition describes a custom table declaratively:
//
//	accessors:
//	  - name: creatinine
//	    schema: mimiciii
//	    table: labevents
//	    cast_timestamps: true
//	    join:
//	      table: d_labitems
//	      on: [itemid]
//	      on_types: [string]
//	    where: "itemid = 50912 AND valuenum IS NOT NULL"
//	    select: [subject_id, charttime, valuenum, label]
type Definition struct {
	Name           string          `yaml:"name"`
	Schema         string          `yaml:"schema"`
	Table          string          `yaml:"table"`
	CastTimestamps bool            `yaml:"cast_timestamps"`
	Join           *JoinDefinition `yaml:"join,omitempty"`
	Where          string          `yaml:"where,omitempty"`
	Select         []string        `yaml:"select,omitempty"`
}

// JoinDefinition is the dimension side of a Definition.
type JoinDefinition struct {
	// Schema defaults to the schema of the fact table.
	Schema  string   `yaml:"schema,omitempty"`
	Table   string   `yaml:"table"`
	On      []string `yaml:"on"`
	OnTypes []string `yaml:"on_types,omitempty"`
	Outer   bool     `yaml:"outer,omitempty"`
}

type definitionFile struct {
	Accessors []Definition `yaml:"accessors"`
}

// ParseDefinitions decodes a YAML definitions document.
func ParseDefinitions(r io.Reader) ([]Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file definitionFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	for _, d := range file.Accessors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return file.Accessors, nil
}

// LoadDefinitions reads a YAML definitions file from fs.
func LoadDefinitions(fs afero.Fs, path string) ([]Definition, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	defs, err := ParseDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Validate checks the definition without a database.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if d.Table == "" {
		return fmt.Errorf("%w: %s: table is required", ErrInvalidDefinition, d.Name)
	}
	if _, err := d.types(); err != nil {
		return err
	}
	if j := d.Join; j != nil {
		if j.Table == "" || len(j.On) == 0 {
			return fmt.Errorf("%w: %s: join needs a table and join keys", ErrInvalidDefinition, d.Name)
		}
		if len(j.OnTypes) > 0 && len(j.OnTypes) != len(j.On) {
			return fmt.Errorf("%w: %s: %d join key types for %d keys", ErrInvalidDefinition, d.Name, len(j.OnTypes), len(j.On))
		}
	}
	if d.Where != "" {
		if _, err := filterexpr.Parse(d.Where); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, d.Name, err)
		}
	}
	return nil
}

func (d Definition) types() ([]query.Type, error) {
	if d.Join == nil {
		return nil, nil
	}
	types := make([]query.Type, len(d.Join.OnTypes))
	for i, name := range d.Join.OnTypes {
		t, err := query.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, d.Name, err)
		}
		types[i] = t
	}
	return types, nil
}

// Accessor builds the custom table from the definition.
func (d Definition) Accessor() (client.Accessor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	types, _ := d.types()
	var cond query.Condition
	if d.Where != "" {
		cond, _ = filterexpr.Parse(d.Where)
	}

	return func(q *client.Querier) (*client.QueryInterface, error) {
		base, err := q.GetTable(d.Schema, d.Table, d.CastTimestamps)
		if err != nil {
			return nil, err
		}
		if j := d.Join; j != nil {
			schema := j.Schema
			if schema == "" {
				schema = d.Schema
			}
			dim, err := q.GetTable(schema, j.Table, d.CastTimestamps)
			if err != nil {
				return nil, err
			}
			base = base.Join(dim, query.JoinSpec{On: query.On(j.On...), OnTypes: types, Outer: j.Outer})
		}
		if cond != nil {
			base = base.Where(cond)
		}
		if len(d.Select) > 0 {
			base = base.Select(d.Select...)
		}
		if err := base.Err(); err != nil {
			return nil, fmt.Errorf("custom table %s: %w", d.Name, err)
		}
		return client.NewQueryInterface(q.Database(), base), nil
	}, nil
}

// Register adds every definition to q as a custom table.
func Register(q *client.Querier, defs []Definition) error {
	for _, d := range defs {
		fn, err := d.Accessor()
		if err != nil {
			return err
		}
		if err := q.Register(d.Name, fn); err != nil {
			return err
		}
	}
	return nil
}
