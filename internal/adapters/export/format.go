// Package export writes and reads frames as CSV and Parquet files.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/satishbabariya/ehrquery/pkg/frame"
)

// ErrInvalidFormat is returned for an unknown file format.
var ErrInvalidFormat = errors.New("export: invalid file format")

// Format is an export file format.
type Format string

const (
	// FormatCSV writes comma separated values with a header row.
	FormatCSV Format = "csv"
	// FormatParquet writes Snappy-compressed Parquet.
	FormatParquet Format = "parquet"
)

// ParseFormat resolves a format name, ignoring case.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("%w: %q (expected csv or parquet)", ErrInvalidFormat, name)
	}
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ExchangeExtension replaces the extension of path with ext.
func ExchangeExtension(path, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// ProcessSavePath forces the extension of path to match format and creates
// its parent directories.
func ProcessSavePath(fs afero.Fs, path string, format Format) (string, error) {
	if path == "" {
		return "", errors.New("export: empty save path")
	}
	if !strings.HasSuffix(path, format.Extension()) {
		path = ExchangeExtension(path, format.Extension())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("export: create directory %s: %w", dir, err)
		}
	}
	return path, nil
}

// Save writes f to path in format and returns the processed path.
func Save(fs afero.Fs, f *frame.Frame, path string, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return WriteCSV(fs, f, path)
	case FormatParquet:
		return WriteParquet(fs, f, path)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}
