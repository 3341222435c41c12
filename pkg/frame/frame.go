// Package frame holds materialized query results.
package frame

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrColumnNotFound is returned when a column name is not in the frame.
var ErrColumnNotFound = errors.New("frame: column not found")

// ErrShape is returned when rows do not match the column count.
var ErrShape = errors.New("frame: row width does not match columns")

// Kind is the value kind shared by every non-null value of a column.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindTimestamp:
		return "timestamp"
	default:
		return "null"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column describes one result column.
type Column struct {
	Name         string `json:"name"`
	Kind         Kind   `json:"kind"`
	DatabaseType string `json:"databaseType,omitempty"`
}

// Frame is an immutable table of rows. Values are nil, bool, int64, float64,
// string or time.Time, matching their column's Kind.
type Frame struct {
	columns []Column
	rows    [][]any
	index   string
}

// New builds a frame from columns and rows. Values are normalized and the
// kind of every column whose Kind is KindNull is inferred from its values.
func New(columns []Column, rows [][]any) (*Frame, error) {
	cols := slices.Clone(columns)
	out := make([][]any, len(rows))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns", ErrShape, i, len(row), len(cols))
		}
		r := make([]any, len(row))
		for j, v := range row {
			r[j] = Normalize(v, cols[j].DatabaseType)
		}
		out[i] = r
	}
	for j := range cols {
		if cols[j].Kind == KindNull {
			cols[j].Kind = infer(out, j)
		}
		coerce(out, j, cols[j].Kind)
	}
	return &Frame{columns: cols, rows: out}, nil
}

// FromNames builds a frame whose column kinds are all inferred.
func FromNames(names []string, rows [][]any) (*Frame, error) {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return New(cols, rows)
}

// Empty returns a frame with columns and no rows.
func Empty(columns []Column) *Frame {
	return &Frame{columns: slices.Clone(columns), rows: [][]any{}}
}

// Columns returns the column descriptions.
func (f *Frame) Columns() []Column { return slices.Clone(f.columns) }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Rows returns a copy of the row data.
func (f *Frame) Rows() [][]any {
	out := make([][]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []any { return slices.Clone(f.rows[i]) }

// ColumnIndex returns the position of name, or -1.
func (f *Frame) ColumnIndex(name string) int {
	return slices.IndexFunc(f.columns, func(c Column) bool { return c.Name == name })
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]any, error) {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Value returns the value at row i of the named column.
func (f *Frame) Value(i int, name string) (any, error) {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return f.rows[i][j], nil
}

// Index returns the index column name, if one was set.
func (f *Frame) Index() string { return f.index }

// WithIndex returns a copy of f that uses name as its index column.
func (f *Frame) WithIndex(name string) (*Frame, error) {
	if f.ColumnIndex(name) < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return &Frame{columns: f.columns, rows: f.rows, index: name}, nil
}

// Concat appends the rows of frames with identical column names. Column
// kinds are widened across frames the way a single frame infers them.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, errors.New("frame: nothing to concatenate")
	}
	first := frames[0]
	cols := slices.Clone(first.columns)
	var rows [][]any
	for _, f := range frames {
		if !slices.Equal(f.ColumnNames(), first.ColumnNames()) {
			return nil, fmt.Errorf("%w: column names differ", ErrShape)
		}
		for j, c := range f.columns {
			cols[j].Kind = widen(cols[j].Kind, c.Kind)
		}
		rows = append(rows, f.rows...)
	}
	out, err := New(cols, rows)
	if err != nil {
		return nil, err
	}
	out.index = first.index
	return out, nil
}

// Equal reports whether f and other hold the same column names, kinds and values.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if len(f.columns) != len(other.columns) || len(f.rows) != len(other.rows) {
		return false
	}
	for j := range f.columns {
		if f.columns[j].Name != other.columns[j].Name || f.columns[j].Kind != other.columns[j].Kind {
			return false
		}
	}
	for i := range f.rows {
		for j := range f.rows[i] {
			if !valueEqual(f.rows[i][j], other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	ta, aok := a.(time.Time)
	tb, bok := b.(time.Time)
	if aok || bok {
		return aok && bok && ta.Equal(tb)
	}
	return a == b
}

func infer(rows [][]any, j int) Kind {
	kind := KindNull
	for _, r := range rows {
		var k Kind
		switch r[j].(type) {
		case nil:
			continue
		case bool:
			k = KindBool
		case int64:
			k = KindInt64
		case float64:
			k = KindFloat64
		case time.Time:
			k = KindTimestamp
		default:
			k = KindString
		}
		if kind = widen(kind, k); kind == KindString {
			return kind
		}
	}
	return kind
}

// widen returns the kind that holds values of both a and b.
func widen(a, b Kind) Kind {
	switch {
	case a == KindNull:
		return b
	case b == KindNull, a == b:
		return a
	case (a == KindInt64 && b == KindFloat64) || (a == KindFloat64 && b == KindInt64):
		return KindFloat64
	default:
		return KindString
	}
}

// coerce converts the values of column j to kind where they differ.
func coerce(rows [][]any, j int, kind Kind) {
	for _, r := range rows {
		switch v := r[j].(type) {
		case nil:
		case int64:
			switch kind {
			case KindFloat64:
				r[j] = float64(v)
			case KindString:
				r[j] = fmt.Sprint(v)
			}
		case string:
		default:
			if kind == KindString {
				r[j] = stringOf(v)
			}
		}
	}
}

func stringOf(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
