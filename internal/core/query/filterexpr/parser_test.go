package filterexpr_test

import (
	"testing"

	"github.com/satishbabariya/ehrquery/internal/core/query/filterexpr"
	"github.com/satishbabariya/ehrquery/pkg/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = `SELECT * FROM (SELECT * FROM "p") AS t1 WHERE `

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "integer comparison",
			expr:     "anchor_age >= 30",
			wantSQL:  `"anchor_age" >= $1`,
			wantArgs: []any{int64(30)},
		},
		{
			name:     "float and string",
			expr:     "valuenum < 7.5 and flag = 'abnormal'",
			wantSQL:  `("valuenum" < $1 AND "flag" = $2)`,
			wantArgs: []any{7.5, "abnormal"},
		},
		{
			name:     "precedence",
			expr:     "a = 1 OR b = 2 AND c = 3",
			wantSQL:  `("a" = $1 OR ("b" = $2 AND "c" = $3))`,
			wantArgs: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:     "grouping",
			expr:     "(a = 1 OR b = 2) AND c <> 3",
			wantSQL:  `(("a" = $1 OR "b" = $2) AND "c" <> $3)`,
			wantArgs: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:    "null checks",
			expr:    "dod IS NOT NULL AND NOT gender IS NULL",
			wantSQL: `("dod" IS NOT NULL AND NOT ("gender" IS NULL))`,
		},
		{
			name:     "in list",
			expr:     "icd_version IN (9, 10)",
			wantSQL:  `"icd_version" IN ($1, $2)`,
			wantArgs: []any{int64(9), int64(10)},
		},
		{
			name:     "not in list",
			expr:     "gender not in ('M')",
			wantSQL:  `"gender" NOT IN ($1)`,
			wantArgs: []any{"M"},
		},
		{
			name:     "like with escaped quote",
			expr:     "label LIKE 'O''Brien%'",
			wantSQL:  `"label" LIKE $1`,
			wantArgs: []any{"O'Brien%"},
		},
		{
			name:     "boolean and negative number",
			expr:     "active = TRUE AND delta > -2",
			wantSQL:  `("active" = $1 AND "delta" > $2)`,
			wantArgs: []any{true, int64(-2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := filterexpr.Parse(tt.expr)
			require.NoError(t, err)

			sql, err := query.Table("", "p").Where(cond).SQL(query.PostgreSQL)
			require.NoError(t, err)
			assert.Equal(t, prefix+tt.wantSQL, sql.Query)
			assert.Equal(t, tt.wantArgs, sql.Args)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{
		"",
		"anchor_age >=",
		"a = 1 AND",
		"a IN ()",
		"(a = 1",
		"a LIKE 5",
		"= 3",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := filterexpr.Parse(expr)
			assert.ErrorIs(t, err, query.ErrInvalidCondition)
		})
	}
}
