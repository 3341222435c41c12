package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
	"github.com/satishbabariya/ehrquery/internal/adapters/database/sqlite"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

func TestSQLiteAdapter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ehr.db")

	seed, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = seed.Exec(`CREATE TABLE patients (subject_id INTEGER, gender TEXT);
		INSERT INTO patients VALUES (1, 'F'), (2, 'M');`)
	require.NoError(t, err)
	require.NoError(t, seed.Close())

	dsn, err := database.DSN(database.Params{System: "sqlite", Database: path})
	require.NoError(t, err)

	adapter := sqlite.NewSQLiteAdapter(database.DefaultConfig(dsn))
	assert.Equal(t, query.SQLite, adapter.GetDialect())

	_, err = adapter.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, database.ErrNotConnected)

	require.NoError(t, adapter.Connect(ctx))
	defer adapter.Disconnect(ctx)
	require.NoError(t, adapter.Ping(ctx))

	v, err := adapter.ServerVersion(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, v)

	var n int
	require.NoError(t, adapter.QueryRow(ctx, "SELECT COUNT(*) FROM patients WHERE gender = ?", "F").Scan(&n))
	assert.Equal(t, 1, n)
}
