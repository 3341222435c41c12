package export_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/adapters/export"
	"github.com/satishbabariya/ehrquery/pkg/frame"
)

func labFrame(t *testing.T) *frame.Frame {
	t.Helper()
	ts := time.Date(2150, 3, 1, 12, 30, 0, 0, time.UTC)
	f, err := frame.FromNames(
		[]string{"subject_id", "itemid", "valuenum", "label", "abnormal", "charttime"},
		[][]any{
			{int64(10), int64(50912), 1.25, "Creatinine", false, ts},
			{int64(10), nil, 7.5, "Glucose", true, ts.Add(time.Hour)},
			{int64(11), int64(50971), nil, "Potassium, \"whole\"", nil, nil},
		},
	)
	require.NoError(t, err)
	return f
}

func TestProcessSavePath(t *testing.T) {
	fs := afero.NewMemMapFs()

	tests := []struct {
		path   string
		format export.Format
		want   string
	}{
		{path: "out/batches/data", format: export.FormatCSV, want: "out/batches/data.csv"},
		{path: "result.parquet", format: export.FormatCSV, want: "result.csv"},
		{path: "result.csv", format: export.FormatCSV, want: "result.csv"},
		{path: "/tmp/x/result.csv", format: export.FormatParquet, want: "/tmp/x/result.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := export.ProcessSavePath(fs, tt.path, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	ok, err := afero.DirExists(fs, "out/batches")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = export.ProcessSavePath(fs, "", export.FormatCSV)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat("Parquet")
	require.NoError(t, err)
	assert.Equal(t, export.FormatParquet, f)

	_, err = export.ParseFormat("xlsx")
	assert.ErrorIs(t, err, export.ErrInvalidFormat)
}

func TestCSV_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := labFrame(t)

	path, err := export.WriteCSV(fs, f, "out/labs")
	require.NoError(t, err)
	assert.Equal(t, "out/labs.csv", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "subject_id,itemid,valuenum,label,abnormal,charttime\n")
	assert.Contains(t, string(data), "2150-03-01T12:30:00Z")

	got, err := export.ReadCSV(fs, path, f.Columns())
	require.NoError(t, err)
	assert.True(t, f.Equal(got), "want %v\ngot  %v", f.Rows(), got.Rows())
}

func TestParquet_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := labFrame(t)

	path, err := export.WriteParquet(fs, f, "out/labs.csv")
	require.NoError(t, err)
	assert.Equal(t, "out/labs.parquet", path)

	got, err := export.ReadParquet(context.Background(), fs, path)
	require.NoError(t, err)
	assert.True(t, f.Equal(got), "want %v\ngot  %v", f.Rows(), got.Rows())
}

func TestSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := labFrame(t)

	path, err := export.Save(fs, f, "a/b", export.FormatParquet)
	require.NoError(t, err)
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = export.Save(fs, f, "a/b", export.Format("xml"))
	assert.ErrorIs(t, err, export.ErrInvalidFormat)
}

func TestParquet_EmptyFrame(t *testing.T) {
	fs := afero.NewMemMapFs()
	f := frame.Empty([]frame.Column{{Name: "id", Kind: frame.KindInt64}})

	path, err := export.WriteParquet(fs, f, "empty")
	require.NoError(t, err)

	got, err := export.ReadParquet(context.Background(), fs, path)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, []string{"id"}, got.ColumnNames())
}
