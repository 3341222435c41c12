package export

import (
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"

	"github.com/satishbabariya/ehrquery/pkg/frame"
)

// Schema returns the Arrow schema for columns. All-null columns are typed as
// strings.
func Schema(columns []frame.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k frame.Kind) arrow.DataType {
	switch k {
	case frame.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case frame.KindInt64:
		return arrow.PrimitiveTypes.Int64
	case frame.KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case frame.KindTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

// ToRecord converts f into a single Arrow record with the given schema. The
// caller must release the record.
func ToRecord(mem memory.Allocator, schema *arrow.Schema, f *frame.Frame) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	rows := f.Rows()
	for j := range schema.Fields() {
		fb := b.Field(j)
		for _, row := range rows {
			if err := appendValue(fb, row[j]); err != nil {
				return nil, fmt.Errorf("export: column %q: %w", schema.Field(j).Name, err)
			}
		}
	}
	return b.NewRecord(), nil
}

func appendValue(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("unexpected %T for bool", v)
		}
		b.Append(x)
	case *array.Int64Builder:
		x, ok := v.(int64)
		if !ok {
			return fmt.Errorf("unexpected %T for int64", v)
		}
		b.Append(x)
	case *array.Float64Builder:
		switch x := v.(type) {
		case float64:
			b.Append(x)
		case int64:
			b.Append(float64(x))
		default:
			return fmt.Errorf("unexpected %T for float64", v)
		}
	case *array.TimestampBuilder:
		x, ok := v.(interface{ UnixMicro() int64 })
		if !ok {
			return fmt.Errorf("unexpected %T for timestamp", v)
		}
		b.Append(arrow.Timestamp(x.UnixMicro()))
	case *array.StringBuilder:
		if s, ok := v.(string); ok {
			b.Append(s)
		} else {
			b.Append(fmt.Sprint(v))
		}
	default:
		return fmt.Errorf("unsupported builder %T", b)
	}
	return nil
}

// appendRecord appends the rows of rec to rows.
func appendRecord(rows [][]any, rec arrow.Record) ([][]any, error) {
	n := int(rec.NumRows())
	start := len(rows)
	for i := 0; i < n; i++ {
		rows = append(rows, make([]any, rec.NumCols()))
	}
	for j, col := range rec.Columns() {
		for i := 0; i < n; i++ {
			v, err := arrayValue(col, i)
			if err != nil {
				return nil, fmt.Errorf("export: column %q: %w", rec.ColumnName(j), err)
			}
			rows[start+i][j] = v
		}
	}
	return rows, nil
}

func arrayValue(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Binary:
		return string(a.Value(i)), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported arrow type %s", arr.DataType())
	}
}

func kindOf(t arrow.DataType) frame.Kind {
	switch t.ID() {
	case arrow.BOOL:
		return frame.KindBool
	case arrow.INT64, arrow.INT32:
		return frame.KindInt64
	case arrow.FLOAT64, arrow.FLOAT32:
		return frame.KindFloat64
	case arrow.TIMESTAMP:
		return frame.KindTimestamp
	case arrow.NULL:
		return frame.KindNull
	default:
		return frame.KindString
	}
}

// columnsOf returns frame columns for schema.
func columnsOf(schema *arrow.Schema) []frame.Column {
	cols := make([]frame.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = frame.Column{Name: f.Name, Kind: kindOf(f.Type)}
	}
	return cols
}
