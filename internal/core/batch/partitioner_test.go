package batch_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/satishbabariya/ehrquery/internal/core/batch"
	"github.com/satishbabariya/ehrquery/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaries(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2150, 1, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		groups    []batch.Group
		batchSize int64
		want      []any
	}{
		{
			name:      "packs whole groups",
			groups:    []batch.Group{{1, 3}, {2, 2}, {3, 4}, {4, 1}},
			batchSize: 5,
			want:      []any{1, 3},
		},
		{
			name:      "group equal to batch size fits",
			groups:    []batch.Group{{"a", 5}},
			batchSize: 5,
			want:      []any{"a"},
		},
		{
			name:      "one group per batch",
			groups:    []batch.Group{{10, 5}, {11, 5}, {12, 5}},
			batchSize: 5,
			want:      []any{10, 11, 12},
		},
		{
			name:      "case-insensitive collation order is kept",
			groups:    []batch.Group{{"a", 1}, {"B", 1}, {"C", 1}},
			batchSize: 1,
			want:      []any{"a", "B", "C"},
		},
		{
			name:      "input order is never re-sorted",
			groups:    []batch.Group{{"c", 2}, {"a", 2}, {"b", 2}},
			batchSize: 4,
			want:      []any{"c", "b"},
		},
		{
			name:      "mixed integers and floats",
			groups:    []batch.Group{{int32(1), 3}, {1.5, 3}, {int64(2), 3}},
			batchSize: 3,
			want:      []any{int32(1), 1.5, int64(2)},
		},
		{
			name:      "timestamps",
			groups:    []batch.Group{{day(1), 1}, {day(2), 1}, {day(3), 1}},
			batchSize: 2,
			want:      []any{day(1), day(3)},
		},
		{
			name:      "everything in one batch",
			groups:    []batch.Group{{1, 1}, {2, 1}, {3, 1}},
			batchSize: 100,
			want:      []any{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := batch.Boundaries(tt.groups, tt.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundaries_Errors(t *testing.T) {
	tests := []struct {
		name      string
		groups    []batch.Group
		batchSize int64
		wantErr   error
	}{
		{name: "no groups", groups: nil, batchSize: 10, wantErr: batch.ErrEmptyResult},
		{name: "zero batch size", groups: []batch.Group{{1, 1}}, batchSize: 0, wantErr: batch.ErrInvalidBatchSize},
		{name: "negative batch size", groups: []batch.Group{{1, 1}}, batchSize: -3, wantErr: batch.ErrInvalidBatchSize},
		{name: "group too large", groups: []batch.Group{{1, 2}, {2, 6}}, batchSize: 5, wantErr: batch.ErrBatchCapacity},
		{name: "null index value", groups: []batch.Group{{1, 1}, {nil, 1}}, batchSize: 5, wantErr: batch.ErrNotOrderable},
		{name: "unsupported kind", groups: []batch.Group{{true, 1}}, batchSize: 5, wantErr: batch.ErrNotOrderable},
		{name: "mixed kinds", groups: []batch.Group{{1, 1}, {"a", 1}}, batchSize: 5, wantErr: batch.ErrNotOrderable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := batch.Boundaries(tt.groups, tt.batchSize)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBoundaries_CapacityMessage(t *testing.T) {
	_, err := batch.Boundaries([]batch.Group{{1, 7}}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 7")
}

// batchOf returns the index of the batch whose range holds v.
func batchOf(boundaries []any, v int64) int {
	idx := -1
	for i, b := range boundaries {
		if v >= b.(int64) {
			idx = i
		}
	}
	return idx
}

func TestBoundaries_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 200; round++ {
		n := 1 + rng.IntN(40)
		groups := make([]batch.Group, n)
		var largest int64
		for i := range groups {
			groups[i] = batch.Group{Value: int64(i * 3), Count: 1 + rng.Int64N(20)}
			largest = max(largest, groups[i].Count)
		}
		size := largest + rng.Int64N(30)

		boundaries, err := batch.Boundaries(groups, size)
		require.NoError(t, err)

		totals := make([]int64, len(boundaries))
		var rows int64
		for _, g := range groups {
			i := batchOf(boundaries, g.Value.(int64))
			require.GreaterOrEqual(t, i, 0, "every value falls in exactly one batch")
			totals[i] += g.Count
			rows += g.Count
		}

		var sum int64
		for i, total := range totals {
			assert.LessOrEqual(t, total, size, "round %d batch %d", round, i)
			assert.Positive(t, total, "round %d batch %d is empty", round, i)
			sum += total
		}
		assert.Equal(t, rows, sum)

		for i := 1; i < len(boundaries); i++ {
			assert.Less(t, boundaries[i-1].(int64), boundaries[i].(int64), "boundaries strictly increase")
		}
	}
}

func TestConditions(t *testing.T) {
	conds := batch.Conditions("subject_id", []any{10, 20, 30})
	require.Len(t, conds, 3)

	base := query.Table("mimiciii", "patients", "subject_id")
	want := []string{
		`("subject_id" >= $1 AND "subject_id" < $2)`,
		`("subject_id" >= $1 AND "subject_id" < $2)`,
		`"subject_id" >= $1`,
	}
	wantArgs := [][]any{{10, 20}, {20, 30}, {30}}

	for i, cond := range conds {
		sql, err := base.Where(cond).SQL(query.PostgreSQL)
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM (SELECT * FROM "mimiciii"."patients") AS t1 WHERE `+want[i], sql.Query)
		assert.Equal(t, wantArgs[i], sql.Args)
	}
}

func TestPartition(t *testing.T) {
	conds, err := batch.Partition("hadm_id", []batch.Group{{1, 1}}, 1)
	require.NoError(t, err)
	assert.Len(t, conds, 1)

	_, err = batch.Partition("hadm_id", nil, 1)
	assert.ErrorIs(t, err, batch.ErrEmptyResult)
}
