package eicu_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/testutil"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/datasets/eicu"
)

func TestQuerier(t *testing.T) {
	ctx := context.Background()
	path := testutil.NewDatabase(t,
		"CREATE TABLE patient (patientunitstayid INTEGER, gender TEXT)",
		"INSERT INTO patient VALUES (141168, 'Female'), (141178, 'Male')",
	)
	db := client.Open(ctx, client.Config{System: "sqlite", Database: path})
	require.NoError(t, db.Err())
	t.Cleanup(func() { db.Close(ctx) })

	assert.Equal(t, eicu.DefaultSchema, eicu.New(client.NewQuerierFromDatabase(db), "").Schema())

	e := eicu.New(client.NewQuerierFromDatabase(db), "main")
	qi, err := e.Table("patient")
	require.NoError(t, err)
	f, err := qi.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Empty(t, e.ListCustomTables())

	_, err = e.Table("vitalperiodic")
	assert.ErrorIs(t, err, client.ErrUnknownTable)
}
