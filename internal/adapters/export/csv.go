package export

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v13/arrow/csv"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/spf13/afero"

	"github.com/satishbabariya/ehrquery/pkg/frame"
)

// csvColumns returns the columns as stored in CSV. Timestamps are written as
// RFC 3339 text.
func csvColumns(columns []frame.Column) []frame.Column {
	out := make([]frame.Column, len(columns))
	for i, c := range columns {
		out[i] = c
		if c.Kind == frame.KindTimestamp {
			out[i].Kind = frame.KindString
		}
	}
	return out
}

func csvFrame(f *frame.Frame) (*frame.Frame, error) {
	rows := f.Rows()
	for _, row := range rows {
		for j, v := range row {
			if t, ok := v.(time.Time); ok {
				row[j] = t.UTC().Format(time.RFC3339Nano)
			}
		}
	}
	return frame.New(csvColumns(f.Columns()), rows)
}

// WriteCSV writes f to path as CSV with a header row and returns the
// processed path. NULL values are written as empty fields.
func WriteCSV(fs afero.Fs, f *frame.Frame, path string) (string, error) {
	path, err := ProcessSavePath(fs, path, FormatCSV)
	if err != nil {
		return "", err
	}

	data, err := csvFrame(f)
	if err != nil {
		return "", err
	}
	schema := Schema(data.Columns())
	rec, err := ToRecord(memory.DefaultAllocator, schema, data)
	if err != nil {
		return "", err
	}
	defer rec.Release()

	file, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file, schema, csv.WithHeader(true), csv.WithNullWriter(""))
	if err := w.Write(rec); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("export: flush %s: %w", path, err)
	}
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, file.Close()
}

// ReadCSV reads a CSV file written by WriteCSV. columns gives the expected
// column names and kinds; empty fields read back as NULL.
func ReadCSV(fs afero.Fs, path string, columns []frame.Column) (*frame.Frame, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: open %s: %w", path, err)
	}
	defer file.Close()

	schema := Schema(csvColumns(columns))
	r := csv.NewReader(file, schema, csv.WithHeader(true), csv.WithChunk(1024), csv.WithNullReader(true, ""))
	defer r.Release()

	var rows [][]any
	for r.Next() {
		rows, err = appendRecord(rows, r.Record())
		if err != nil {
			return nil, err
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("export: read %s: %w", path, err)
	}

	for j, c := range columns {
		if c.Kind != frame.KindTimestamp {
			continue
		}
		for _, row := range rows {
			s, ok := row[j].(string)
			if !ok {
				continue
			}
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("export: column %q: %w", c.Name, err)
			}
			row[j] = t
		}
	}

	cols := make([]frame.Column, len(columns))
	for i, c := range columns {
		cols[i] = frame.Column{Name: c.Name, Kind: c.Kind, DatabaseType: c.DatabaseType}
	}
	if rows == nil {
		return frame.Empty(cols), nil
	}
	return frame.New(cols, rows)
}
