package commands_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/cmd/ehrquery/commands"
	"github.com/satishbabariya/ehrquery/internal/testutil"
	"github.com/satishbabariya/ehrquery/internal/version"
	"github.com/satishbabariya/ehrquery/pkg/client"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	db := testutil.NewEHRDatabase(t)
	path := filepath.Join(t.TempDir(), "ehrquery.yaml")
	content := fmt.Sprintf("database:\n  system: sqlite\n  name: %s\nlog:\n  level: error\n", db)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCatalogCommands(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "schemas", args: []string{"schemas"}, want: []string{"main"}},
		{name: "tables", args: []string{"tables", "main"}, want: []string{"main.patients", "main.labevents"}},
		{name: "columns", args: []string{"columns", "main", "patients"}, want: []string{"subject_id", "INTEGER", "dob"}},
		{name: "describe", args: []string{"describe", "main", "patients"}, want: []string{"main.patients", "gender"}},
		{name: "datasets", args: []string{"datasets"}, want: []string{"eicu", "mimiciii", "mimiciv"}},
		{name: "dataset tables", args: []string{"datasets", "mimiciii", "--schema", "main"}, want: []string{"chartevents", "labevents"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--config", cfg}, tt.args...)...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestCatalogCommands_UnknownTable(t *testing.T) {
	_, err := execute(t, "--config", writeConfig(t), "columns", "main", "nope")
	assert.ErrorIs(t, err, client.ErrUnknownTable)
}

func TestQueryCommand_Print(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "table with filter", args: []string{"--table", "main.patients", "--where", "gender = 'F'"}, want: "2 rows"},
		{name: "raw sql with limit", args: []string{"--sql", "SELECT subject_id FROM admissions", "--limit", "3"}, want: "3 rows"},
		{name: "custom table", args: []string{"--dataset", "mimiciii", "--schema", "main", "--accessor", "diagnoses"}, want: "3 rows"},
		{name: "truncated", args: []string{"--table", "main.admissions", "--max-rows", "2"}, want: "2 of 7 rows"},
		{name: "batches", args: []string{"--table", "main.admissions", "--index-col", "subject_id", "--batch-size", "3"}, want: "Batch 3/3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"--config", cfg, "query"}, tt.args...)...)
			require.NoError(t, err, out)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestQueryCommand_Save(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()

	out, err := execute(t, "--config", cfg, "query",
		"--dataset", "mimiciii", "--schema", "main", "--accessor", "labevents",
		"--out", filepath.Join(dir, "labs"), "--format", "csv")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Saved 4 rows")
	assert.FileExists(t, filepath.Join(dir, "labs.csv"))

	out, err = execute(t, "--config", cfg, "query",
		"--table", "main.admissions", "--index-col", "subject_id", "--batch-size", "3",
		"--out", filepath.Join(dir, "batches"), "--format", "parquet")
	require.NoError(t, err, out)
	files, err := filepath.Glob(filepath.Join(dir, "batches", "batch-*.parquet"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestQueryCommand_DatasetFile(t *testing.T) {
	cfg := writeConfig(t)
	defs := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(defs, []byte(`
accessors:
  - name: glucose
    schema: main
    table: labevents
    where: "itemid = 50931"
`), 0o644))

	out, err := execute(t, "--config", cfg, "query", "--dataset-file", defs, "--accessor", "glucose")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 rows")
}

func TestQueryCommand_InvalidFlags(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no source", args: nil, want: "exactly one of"},
		{name: "two sources", args: []string{"--sql", "SELECT 1", "--table", "main.patients"}, want: "exactly one of"},
		{name: "accessor without dataset", args: []string{"--accessor", "labevents"}, want: "--dataset"},
		{name: "watch without file", args: []string{"--sql", "SELECT 1", "--watch"}, want: "--sql-file"},
		{name: "limit with batches", args: []string{"--table", "main.admissions", "--index-col", "subject_id", "--limit", "5"}, want: "batching"},
		{name: "bad format", args: []string{"--sql", "SELECT 1", "--format", "xlsx"}, want: "xlsx"},
		{name: "bad table", args: []string{"--table", "patients"}, want: "schema.table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfg, "query"}, tt.args...)...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestInitCommand(t *testing.T) {
	db := testutil.NewEHRDatabase(t)
	path := filepath.Join(t.TempDir(), "conf", ".ehrquery.yaml")

	out, err := execute(t, "--config", writeConfig(t), "init", "--yes",
		"--system", "sqlite", "--name", db, "--schemas", "main", "--path", path)
	require.NoError(t, err, out)
	assert.FileExists(t, path)

	out, err = execute(t, "--config", path, "tables")
	require.NoError(t, err, out)
	assert.Contains(t, out, "main.admissions")

	_, err = execute(t, "--config", writeConfig(t), "init", "--yes", "--system", "oracle", "--name", "x", "--path", path)
	assert.ErrorIs(t, err, client.ErrUnsupportedSystem)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)

	_, err = execute(t, "version", "--check", "0.0.1")
	assert.NoError(t, err)

	_, err = execute(t, "version", "--check", "99")
	assert.ErrorIs(t, err, version.ErrOutdated)
}
