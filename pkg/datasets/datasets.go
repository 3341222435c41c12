// Package datasets attaches the custom tables of known EHR datasets to a
// querier, and loads user-defined custom tables from YAML.
package datasets

import (
	"errors"
	"fmt"
	"slices"

	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/datasets/eicu"
	"github.com/satishbabariya/ehrquery/pkg/datasets/mimiciii"
	"github.com/satishbabariya/ehrquery/pkg/datasets/mimiciv"
)

// ErrUnknownDataset is returned by Attach for an unknown dataset name.
var ErrUnknownDataset = errors.New("unknown dataset")

type attachFunc func(q *client.Querier, schema string) error

var known = map[string]attachFunc{
	"mimiciii": func(q *client.Querier, schema string) error {
		var opts []mimiciii.Option
		if schema != "" {
			opts = append(opts, mimiciii.WithSchema(schema))
		}
		_, err := mimiciii.New(q, opts...)
		return err
	},
	"mimiciv": func(q *client.Querier, schema string) error {
		var opts []mimiciv.Option
		if schema != "" {
			opts = append(opts, mimiciv.WithHospSchema(schema), mimiciv.WithICUSchema(schema))
		}
		_, err := mimiciv.New(q, opts...)
		return err
	},
	"eicu": func(q *client.Querier, schema string) error {
		eicu.New(q, schema)
		return nil
	},
}

// Names returns the known dataset names, sorted.
func Names() []string {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Attach registers the custom tables of the named dataset on q. A non-empty
// schema replaces every default schema of the dataset, which suits copies
// loaded into a single schema.
func Attach(name string, q *client.Querier, schema string) error {
	fn, ok := known[name]
	if !ok {
		return fmt.Errorf("%w: %q (known: %v)", ErrUnknownDataset, name, Names())
	}
	return fn(q, schema)
}
