package export

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet"
	"github.com/apache/arrow/go/v13/parquet/compress"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"
	"github.com/spf13/afero"

	"github.com/satishbabariya/ehrquery/pkg/frame"
)

// WriteParquet writes f to path as Snappy-compressed Parquet and returns the
// processed path. The Arrow schema is stored in the file so that column types
// read back unchanged.
func WriteParquet(fs afero.Fs, f *frame.Frame, path string) (string, error) {
	path, err := ProcessSavePath(fs, path, FormatParquet)
	if err != nil {
		return "", err
	}

	schema := Schema(f.Columns())
	rec, err := ToRecord(memory.DefaultAllocator, schema, f)
	if err != nil {
		return "", err
	}
	defer rec.Release()

	file, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: create %s: %w", path, err)
	}
	defer file.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	w, err := pqarrow.NewFileWriter(schema, file, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return "", fmt.Errorf("export: parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("export: close %s: %w", path, err)
	}
	return path, nil
}

// ReadParquet reads a Parquet file into a frame.
func ReadParquet(ctx context.Context, fs afero.Fs, path string) (*frame.Frame, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: open %s: %w", path, err)
	}
	defer file.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, file, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("export: read %s: %w", path, err)
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, 1024)
	defer tr.Release()

	var rows [][]any
	for tr.Next() {
		rows, err = appendRecord(rows, tr.Record())
		if err != nil {
			return nil, err
		}
	}

	cols := columnsOf(tbl.Schema())
	if rows == nil {
		return frame.Empty(cols), nil
	}
	return frame.New(cols, rows)
}
