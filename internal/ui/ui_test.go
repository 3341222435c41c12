package ui_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/ui"
	"github.com/satishbabariya/ehrquery/pkg/frame"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ui.NullText},
		{"string", "F", "F"},
		{"int", int64(42), "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"date", time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC), "2150-01-01"},
		{"timestamp", time.Date(2150, 1, 1, 10, 30, 0, 0, time.UTC), "2150-01-01 10:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ui.FormatValue(tt.in))
		})
	}
}

func TestFrameTable(t *testing.T) {
	f, err := frame.FromNames([]string{"subject_id", "gender"}, [][]any{
		{int64(1), "F"},
		{int64(2), nil},
		{int64(3), "F"},
	})
	require.NoError(t, err)

	headers, rows := ui.FrameTable(f, 2)
	assert.Equal(t, []string{"subject_id", "gender"}, headers)
	assert.Equal(t, [][]string{{"1", "F"}, {"2", "NULL"}}, rows)

	_, rows = ui.FrameTable(f, 0)
	assert.Len(t, rows, 3)
}

func TestMarkdownTable(t *testing.T) {
	got := ui.MarkdownTable("patients", []string{"name", "type"}, [][]string{{"gender", "a|b"}})
	want := "# patients\n\n| name | type |\n| --- | --- |\n| gender | a\\|b |\n"
	assert.Equal(t, want, got)
}
