// Package batch splits a result set into bounded batches along an index column.
package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

var (
	// ErrEmptyResult is returned when the query has no rows to partition.
	ErrEmptyResult = errors.New("query is empty, cannot return batched results")

	// ErrBatchCapacity is returned when one index value has more rows than
	// a batch may hold.
	ErrBatchCapacity = errors.New("batch size too small")

	// ErrNotOrderable is returned for index values that cannot be range-compared.
	ErrNotOrderable = errors.New("index values are not orderable")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// Group is one distinct index value and the number of rows holding it.
type Group struct {
	Value any
	Count int64
}

// Boundaries computes the batch start values for groups. Groups must arrive
// in ascending index order as the database collates them; they are never
// re-sorted here, so the range conditions select exactly the groups each
// batch was sized for. Each batch holds whole groups and at most batchSize
// rows; the first boundary is the first group's value.
func Boundaries(groups []Group, batchSize int64) ([]any, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	if len(groups) == 0 {
		return nil, ErrEmptyResult
	}

	var largest int64
	first := classify(groups[0].Value)
	for _, g := range groups {
		if err := orderable(g.Value); err != nil {
			return nil, err
		}
		if !sameClass(first, classify(g.Value)) {
			return nil, fmt.Errorf("%w: cannot order %T with %T", ErrNotOrderable, groups[0].Value, g.Value)
		}
		largest = max(largest, g.Count)
	}
	if largest > batchSize {
		return nil, fmt.Errorf("%w: the largest index value has %d rows, use a batch size of at least %d", ErrBatchCapacity, largest, largest)
	}

	boundaries := []any{groups[0].Value}
	var running int64
	for _, g := range groups {
		if running > 0 && running+g.Count > batchSize {
			boundaries = append(boundaries, g.Value)
			running = 0
		}
		running += g.Count
	}
	return boundaries, nil
}

// Conditions turns boundaries into one range condition per batch:
// column >= b[i] AND column < b[i+1], and column >= b[last] for the last batch.
func Conditions(column string, boundaries []any) []query.Condition {
	conds := make([]query.Condition, len(boundaries))
	for i, lo := range boundaries {
		if i == len(boundaries)-1 {
			conds[i] = query.Gte(column, lo)
			continue
		}
		conds[i] = query.And(query.Gte(column, lo), query.Lt(column, boundaries[i+1]))
	}
	return conds
}

// Partition computes boundaries for groups and returns the batch conditions.
func Partition(column string, groups []Group, batchSize int64) ([]query.Condition, error) {
	boundaries, err := Boundaries(groups, batchSize)
	if err != nil {
		return nil, err
	}
	return Conditions(column, boundaries), nil
}

type kind int

const (
	kindInvalid kind = iota
	kindInt
	kindFloat
	kindString
	kindTime
)

func classify(v any) kind {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return kindInt
	case uint, uint64, float32, float64:
		return kindFloat
	case string, []byte:
		return kindString
	case time.Time:
		return kindTime
	default:
		return kindInvalid
	}
}

func orderable(v any) error {
	if v == nil {
		return fmt.Errorf("%w: NULL index value", ErrNotOrderable)
	}
	if classify(v) == kindInvalid {
		return fmt.Errorf("%w: %T", ErrNotOrderable, v)
	}
	return nil
}

func sameClass(a, b kind) bool {
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	return a == b
}

func isNumeric(k kind) bool {
	return k == kindInt || k == kindFloat
}
