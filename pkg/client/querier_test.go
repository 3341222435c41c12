package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/testutil"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

func TestQuerier_Listing(t *testing.T) {
	q := client.NewQuerierFromDatabase(openEHR(t))

	schemas, err := q.ListSchemas()
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, schemas)

	tables, err := q.ListTables("")
	require.NoError(t, err)
	assert.Len(t, tables, 9)

	cols, err := q.ListColumns("main", "d_labitems")
	require.NoError(t, err)
	assert.Equal(t, []string{"row_id", "itemid", "label"}, cols)

	_, err = q.ListColumns("main", "nope")
	assert.ErrorIs(t, err, client.ErrUnknownTable)
}

func TestQuerier_GetTable(t *testing.T) {
	q := client.NewQuerierFromDatabase(openEHR(t))

	plain, err := q.GetTable("main", "patients", false)
	require.NoError(t, err)
	casted, err := q.GetTable("main", "patients", true)
	require.NoError(t, err)
	assert.Equal(t, plain.Columns(), casted.Columns())

	stmt, err := casted.SQL(query.PostgreSQL)
	require.NoError(t, err)
	assert.Contains(t, stmt.Query, `CAST("dob" AS TIMESTAMP)`)

	stmt, err = plain.SQL(query.PostgreSQL)
	require.NoError(t, err)
	assert.NotContains(t, stmt.Query, "CAST")
}

func TestQuerier_CustomTables(t *testing.T) {
	q := client.NewQuerierFromDatabase(openEHR(t))
	assert.Empty(t, q.ListCustomTables())

	err := q.Register("labs", func(q *client.Querier) (*client.QueryInterface, error) {
		return q.JoinDimension("main", "labevents", "d_labitems", []string{"itemid"}, []query.Type{query.String})
	})
	require.NoError(t, err)
	require.NoError(t, q.Register("admissions", func(q *client.Querier) (*client.QueryInterface, error) {
		return q.Table("main", "admissions")
	}))
	assert.ErrorIs(t, q.Register("labs", nil), client.ErrDuplicateAccessor)
	assert.Equal(t, []string{"admissions", "labs"}, q.ListCustomTables())

	labs, err := q.Custom("labs")
	require.NoError(t, err)
	f, err := labs.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	_, err = q.Custom("vitals")
	assert.ErrorIs(t, err, client.ErrUnknownAccessor)
}

func TestQuerier_JoinDimensionUnknownTable(t *testing.T) {
	q := client.NewQuerierFromDatabase(openEHR(t))
	_, err := q.JoinDimension("main", "labevents", "d_missing", []string{"itemid"}, nil)
	assert.ErrorIs(t, err, client.ErrUnknownTable)
}

func TestNewQuerier_NotConnected(t *testing.T) {
	q := client.NewQuerier(context.Background(), client.Config{System: "sqlite", Database: "/nonexistent/ehr.db"})
	assert.False(t, q.Database().IsConnected())

	_, err := q.ListSchemas()
	assert.ErrorIs(t, err, client.ErrNotConnected)
	_, err = q.Table("main", "patients")
	assert.ErrorIs(t, err, client.ErrNotConnected)
}

func TestNewQuerier(t *testing.T) {
	path := testutil.NewEHRDatabase(t)
	q := client.NewQuerier(context.Background(), client.Config{System: "sqlite", Database: path})
	defer q.Database().Close(context.Background())
	assert.True(t, q.Database().IsConnected())
}
