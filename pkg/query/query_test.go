package query_test

import (
	"testing"

	"github.com/satishbabariya/ehrquery/internal/core/query/rawsql"
	"github.com/satishbabariya/ehrquery/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patients() query.Query {
	return query.Table("mimiciv_hosp", "patients", "subject_id", "gender", "anchor_age", "dod")
}

func TestQuery_Immutable(t *testing.T) {
	base := patients()
	before, err := base.SQL(query.PostgreSQL)
	require.NoError(t, err)

	filtered := base.Where(query.Eq("gender", "F"))
	selected := base.Select("subject_id")
	_ = base.Limit(3)

	after, err := base.SQL(query.PostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"subject_id", "gender", "anchor_age", "dod"}, base.Columns())
	assert.Equal(t, []string{"subject_id"}, selected.Columns())
	assert.False(t, base.HasLimit())

	f1, err := filtered.SQL(query.PostgreSQL)
	require.NoError(t, err)
	f2, err := base.Where(query.Eq("gender", "F")).SQL(query.PostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, f1, f2)
}

func TestQuery_Columns(t *testing.T) {
	tests := []struct {
		name string
		q    query.Query
		want []string
	}{
		{
			name: "drop",
			q:    patients().Drop("dod", "anchor_age"),
			want: []string{"subject_id", "gender"},
		},
		{
			name: "rename",
			q:    patients().Rename(map[string]string{"anchor_age": "age"}),
			want: []string{"subject_id", "gender", "age", "dod"},
		},
		{
			name: "count by",
			q:    patients().CountBy("gender"),
			want: []string{"gender", "count"},
		},
		{
			name: "join keeps left then new right columns",
			q: query.Table("mimiciii", "labevents", "row_id", "subject_id", "itemid", "value").
				Join(query.Table("mimiciii", "d_labitems", "row_id", "itemid", "label"), query.JoinSpec{On: query.On("itemid")}),
			want: []string{"row_id", "subject_id", "itemid", "value", "label"},
		},
		{
			name: "join with explicit column lists",
			q: patients().Join(query.Table("mimiciv_hosp", "admissions", "subject_id", "hadm_id", "admittime"), query.JoinSpec{
				On:           query.On("subject_id"),
				LeftColumns:  []string{"subject_id", "gender"},
				RightColumns: []string{"hadm_id"},
			}),
			want: []string{"subject_id", "gender", "hadm_id"},
		},
		{
			name: "raw is unknown",
			q:    query.Raw("SELECT 1"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.q.Err())
			assert.Equal(t, tt.want, tt.q.Columns())
		})
	}
}

func TestQuery_Errors(t *testing.T) {
	labs := query.Table("mimiciii", "labevents", "itemid", "value")
	items := query.Table("mimiciii", "d_labitems", "itemid", "label")

	tests := []struct {
		name    string
		q       query.Query
		wantErr error
	}{
		{name: "zero value", q: query.Query{}, wantErr: query.ErrEmptyQuery},
		{name: "select unknown column", q: patients().Select("nope"), wantErr: query.ErrUnknownColumn},
		{name: "where then select unknown", q: patients().Where(query.IsNull("dod")).Select("nope"), wantErr: query.ErrUnknownColumn},
		{name: "drop on raw", q: query.Raw("SELECT 1").Drop("a"), wantErr: query.ErrUnknownColumns},
		{name: "cast unknown type", q: patients().Cast(query.Type("blob"), "dod"), wantErr: query.ErrInvalidType},
		{name: "negative limit", q: patients().Limit(-1), wantErr: query.ErrInvalidLimit},
		{name: "nil condition", q: patients().Where(nil), wantErr: query.ErrInvalidCondition},
		{
			name:    "join types length mismatch",
			q:       labs.Join(items, query.JoinSpec{On: query.On("itemid"), OnTypes: []query.Type{query.String, query.String}}),
			wantErr: query.ErrInvalidJoin,
		},
		{
			name:    "join without keys or condition",
			q:       labs.Join(items, query.JoinSpec{}),
			wantErr: query.ErrInvalidJoin,
		},
		{
			name:    "join unknown key",
			q:       labs.Join(items, query.JoinSpec{On: []query.JoinOn{{Left: "itemid", Right: "item"}}}),
			wantErr: query.ErrUnknownColumn,
		},
		{
			name:    "join raw side without columns",
			q:       labs.Join(query.Raw("SELECT itemid FROM x"), query.JoinSpec{On: query.On("itemid")}),
			wantErr: query.ErrUnknownColumns,
		},
		{
			name:    "union column count",
			q:       labs.Union(patients()),
			wantErr: query.ErrInvalidUnion,
		},
		{name: "raw write statement", q: query.Raw("DELETE FROM patients"), wantErr: rawsql.ErrNotSelect},
		{name: "error survives later ops", q: patients().Select("nope").Limit(1).Distinct(), wantErr: query.ErrUnknownColumn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.q.Err(), tt.wantErr)
			_, err := tt.q.SQL(query.SQLite)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQuery_HasLimit(t *testing.T) {
	items := query.Table("mimiciii", "d_labitems", "itemid", "label")
	labs := query.Table("mimiciii", "labevents", "itemid", "value")

	tests := []struct {
		name string
		q    query.Query
		want bool
	}{
		{name: "plain table", q: labs, want: false},
		{name: "top-level limit", q: labs.Limit(10), want: true},
		{name: "limit below filter", q: labs.Limit(10).Where(query.Gt("value", 1)), want: true},
		{name: "limit on join right side", q: labs.Join(items.Limit(5), query.JoinSpec{On: query.On("itemid")}), want: true},
		{name: "limit in union", q: labs.Union(items.Limit(1)), want: true},
		{name: "raw with limit", q: query.Raw("SELECT * FROM t LIMIT 3"), want: true},
		{name: "raw without limit", q: query.Raw("SELECT * FROM t"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.q.Err())
			assert.Equal(t, tt.want, tt.q.HasLimit())
		})
	}
}

func TestQuery_Apply(t *testing.T) {
	op := query.Sequential(
		query.CastOp(query.Timestamp, "dod"),
		query.WhereOp(query.IsNotNull("dod")),
		query.SelectOp("subject_id", "dod"),
	)

	got, err := patients().Apply(op).SQL(query.PostgreSQL)
	require.NoError(t, err)
	want, err := patients().
		Cast(query.Timestamp, "dod").
		Where(query.IsNotNull("dod")).
		Select("subject_id", "dod").
		SQL(query.PostgreSQL)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]query.Type{
		"str":       query.String,
		"INT":       query.Integer,
		"double":    query.Float,
		"bool":      query.Boolean,
		"datetime":  query.Timestamp,
		"timestamp": query.Timestamp,
		"date":      query.Date,
	} {
		got, err := query.ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := query.ParseType("blob")
	assert.ErrorIs(t, err, query.ErrInvalidType)
}

func TestParseDialect(t *testing.T) {
	d, err := query.ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, query.PostgreSQL, d)

	_, err = query.ParseDialect("oracle")
	assert.ErrorIs(t, err, query.ErrUnsupportedDialect)
}
