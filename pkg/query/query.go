package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/satishbabariya/ehrquery/internal/core/query/rawsql"
)

// Query is an immutable relational query. Every operation returns a new
// Query and leaves its receiver untouched, so a base query can be shared by
// any number of derived pipelines.
//
// Validation errors are carried inside the returned Query and reported by
// Err and by the compiler, which keeps operation chains fluent.
type Query struct {
	node node
	err  error
}

type node interface {
	// columns returns the output columns, or nil when they cannot be derived.
	columns() []string
	limited() bool
}

type tableNode struct {
	schema string
	name   string
	cols   []string
}

type rawNode struct {
	sql   string
	limit bool
}

type selectNode struct {
	from node
	cols []string
}

type renameNode struct {
	from    node
	renames map[string]string
}

type whereNode struct {
	from node
	cond Condition
}

type castNode struct {
	from  node
	typ   Type
	casts map[string]struct{}
}

type joinNode struct {
	left      node
	right     node
	spec      JoinSpec
	leftCols  []string
	rightCols []string
}

type unionNode struct {
	left  node
	right node
	all   bool
}

type orderNode struct {
	from node
	by   []OrderBy
}

type distinctNode struct {
	from node
}

type limitNode struct {
	from node
	n    int
}

type countNode struct {
	from   node
	column string
}

func (n *tableNode) columns() []string { return n.cols }
func (n *tableNode) limited() bool     { return false }

func (n *rawNode) columns() []string { return nil }
func (n *rawNode) limited() bool     { return n.limit }

func (n *selectNode) columns() []string { return n.cols }
func (n *selectNode) limited() bool     { return n.from.limited() }

func (n *renameNode) columns() []string {
	src := n.from.columns()
	out := make([]string, len(src))
	for i, c := range src {
		if to, ok := n.renames[c]; ok {
			out[i] = to
		} else {
			out[i] = c
		}
	}
	return out
}
func (n *renameNode) limited() bool { return n.from.limited() }

func (n *whereNode) columns() []string { return n.from.columns() }
func (n *whereNode) limited() bool     { return n.from.limited() }

func (n *castNode) columns() []string { return n.from.columns() }
func (n *castNode) limited() bool     { return n.from.limited() }

func (n *joinNode) columns() []string {
	out := slices.Clone(n.leftCols)
	for _, c := range n.rightCols {
		if !slices.Contains(n.leftCols, c) {
			out = append(out, c)
		}
	}
	return out
}
func (n *joinNode) limited() bool { return n.left.limited() || n.right.limited() }

func (n *unionNode) columns() []string {
	if cols := n.left.columns(); cols != nil {
		return cols
	}
	return n.right.columns()
}
func (n *unionNode) limited() bool { return n.left.limited() || n.right.limited() }

func (n *orderNode) columns() []string { return n.from.columns() }
func (n *orderNode) limited() bool     { return n.from.limited() }

func (n *distinctNode) columns() []string { return n.from.columns() }
func (n *distinctNode) limited() bool     { return n.from.limited() }

func (n *limitNode) columns() []string { return n.from.columns() }
func (n *limitNode) limited() bool     { return true }

func (n *countNode) columns() []string { return []string{n.column, CountColumn} }
func (n *countNode) limited() bool     { return n.from.limited() }

// CountColumn is the name of the count column produced by CountBy.
const CountColumn = "count"

// Table starts a query over a table. When columns are given they are used to
// validate later operations; without them the table behaves like raw SQL for
// column-dependent operations.
func Table(schema, name string, columns ...string) Query {
	if name == "" {
		return Query{err: fmt.Errorf("%w: table name is required", ErrEmptyQuery)}
	}
	var cols []string
	if len(columns) > 0 {
		cols = slices.Clone(columns)
	}
	return Query{node: &tableNode{schema: schema, name: name, cols: cols}}
}

// Raw starts a query from a SQL string. Only SELECT statements are accepted.
func Raw(sql string) Query {
	stmt, err := rawsql.Inspect(sql)
	if err != nil {
		return Query{err: err}
	}
	return Query{node: &rawNode{sql: stmt.SQL, limit: stmt.HasLimit}}
}

// Err returns the first validation error recorded while building q.
func (q Query) Err() error {
	if q.err != nil {
		return q.err
	}
	if q.node == nil {
		return ErrEmptyQuery
	}
	return nil
}

// Columns returns the output columns, or nil when they are not known.
func (q Query) Columns() []string {
	if q.node == nil {
		return nil
	}
	return slices.Clone(q.node.columns())
}

// HasLimit reports whether any part of the query restricts the row count.
func (q Query) HasLimit() bool {
	return q.node != nil && q.node.limited()
}

// IsRaw reports whether q is a bare raw SQL query.
func (q Query) IsRaw() bool {
	_, ok := q.node.(*rawNode)
	return ok
}

func (q Query) fail(err error) Query {
	return Query{node: q.node, err: err}
}

func (q Query) with(n node) Query {
	return Query{node: n}
}

func checkColumns(have []string, want ...string) error {
	if have == nil {
		return nil
	}
	for _, c := range want {
		if !slices.Contains(have, c) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// Select keeps only the named columns, in the given order.
func (q Query) Select(cols ...string) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if len(cols) == 0 {
		return q.fail(fmt.Errorf("%w: select requires at least one column", ErrUnknownColumn))
	}
	if err := checkColumns(q.node.columns(), cols...); err != nil {
		return q.fail(err)
	}
	return q.with(&selectNode{from: q.node, cols: slices.Clone(cols)})
}

// Drop removes the named columns.
func (q Query) Drop(cols ...string) Query {
	if err := q.Err(); err != nil {
		return q
	}
	have := q.node.columns()
	if have == nil {
		return q.fail(fmt.Errorf("%w: drop", ErrUnknownColumns))
	}
	if err := checkColumns(have, cols...); err != nil {
		return q.fail(err)
	}
	keep := make([]string, 0, len(have))
	for _, c := range have {
		if !slices.Contains(cols, c) {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		return q.fail(fmt.Errorf("%w: drop would remove every column", ErrUnknownColumn))
	}
	return q.with(&selectNode{from: q.node, cols: keep})
}

// Rename renames columns, keyed by their current name.
func (q Query) Rename(renames map[string]string) Query {
	if err := q.Err(); err != nil {
		return q
	}
	have := q.node.columns()
	if have == nil {
		return q.fail(fmt.Errorf("%w: rename", ErrUnknownColumns))
	}
	if err := checkColumns(have, slices.Sorted(maps.Keys(renames))...); err != nil {
		return q.fail(err)
	}
	return q.with(&renameNode{from: q.node, renames: maps.Clone(renames)})
}

// Where filters rows by cond.
func (q Query) Where(cond Condition) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if cond == nil {
		return q.fail(fmt.Errorf("%w: nil condition", ErrInvalidCondition))
	}
	return q.with(&whereNode{from: q.node, cond: cond})
}

// Cast converts the named columns to typ, keeping their names.
func (q Query) Cast(typ Type, cols ...string) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if !typ.valid() {
		return q.fail(fmt.Errorf("%w: %q", ErrInvalidType, typ))
	}
	have := q.node.columns()
	if have == nil {
		return q.fail(fmt.Errorf("%w: cast", ErrUnknownColumns))
	}
	if err := checkColumns(have, cols...); err != nil {
		return q.fail(err)
	}
	if len(cols) == 0 {
		return q
	}
	casts := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		casts[c] = struct{}{}
	}
	return q.with(&castNode{from: q.node, typ: typ, casts: casts})
}

// OrderBy sorts rows by column.
func (q Query) OrderBy(column string, dir SortDirection) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if dir == "" {
		dir = Asc
	}
	if dir != Asc && dir != Desc {
		return q.fail(fmt.Errorf("%w: sort direction %q", ErrInvalidCondition, dir))
	}
	if err := checkColumns(q.node.columns(), column); err != nil {
		return q.fail(err)
	}
	if prev, ok := q.node.(*orderNode); ok {
		by := append(slices.Clone(prev.by), OrderBy{Column: column, Direction: dir})
		return q.with(&orderNode{from: prev.from, by: by})
	}
	return q.with(&orderNode{from: q.node, by: []OrderBy{{Column: column, Direction: dir}}})
}

// Distinct removes duplicate rows.
func (q Query) Distinct() Query {
	if err := q.Err(); err != nil {
		return q
	}
	return q.with(&distinctNode{from: q.node})
}

// Limit restricts the result to at most n rows.
func (q Query) Limit(n int) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if n < 0 {
		return q.fail(fmt.Errorf("%w: %d", ErrInvalidLimit, n))
	}
	return q.with(&limitNode{from: q.node, n: n})
}

// CountBy groups rows by column and counts each group. The result has the
// columns (column, "count") and is ordered by column under the database's
// own collation.
func (q Query) CountBy(column string) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if column == "" {
		return q.fail(fmt.Errorf("%w: empty column name", ErrUnknownColumn))
	}
	if err := checkColumns(q.node.columns(), column); err != nil {
		return q.fail(err)
	}
	return q.with(&countNode{from: q.node, column: column})
}

// Union combines q and other, removing duplicate rows.
func (q Query) Union(other Query) Query {
	return q.union(other, false)
}

// UnionAll combines q and other, keeping duplicate rows.
func (q Query) UnionAll(other Query) Query {
	return q.union(other, true)
}

func (q Query) union(other Query, all bool) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if err := other.Err(); err != nil {
		return q.fail(fmt.Errorf("%w: %w", ErrInvalidUnion, err))
	}
	l, r := q.node.columns(), other.node.columns()
	if l != nil && r != nil && len(l) != len(r) {
		return q.fail(fmt.Errorf("%w: %d columns against %d", ErrInvalidUnion, len(l), len(r)))
	}
	return q.with(&unionNode{left: q.node, right: other.node, all: all})
}

// JoinOn pairs a left join key with a right join key.
type JoinOn struct {
	Left  string
	Right string
}

// On builds join keys whose name is the same on both sides.
func On(cols ...string) []JoinOn {
	out := make([]JoinOn, len(cols))
	for i, c := range cols {
		out[i] = JoinOn{Left: c, Right: c}
	}
	return out
}

// JoinSpec describes a join.
type JoinSpec struct {
	// On lists equality join keys.
	On []JoinOn
	// OnTypes is empty or has one type per key. Both sides of each key are
	// cast to the type before comparison.
	OnTypes []Type
	// Cond is an extra join condition. Use LeftCol and RightCol to reference
	// either side.
	Cond Condition
	// LeftColumns restricts the columns taken from the left side.
	LeftColumns []string
	// RightColumns restricts the columns taken from the right side.
	RightColumns []string
	// Outer makes the join a left outer join.
	Outer bool
}

func (s JoinSpec) String() string {
	keys := make([]string, len(s.On))
	for i, on := range s.On {
		keys[i] = on.Left + "=" + on.Right
	}
	return strings.Join(keys, ",")
}

// Join joins right onto q. Output columns are the selected left columns
// followed by the selected right columns not already present on the left.
func (q Query) Join(right Query, spec JoinSpec) Query {
	if err := q.Err(); err != nil {
		return q
	}
	if err := right.Err(); err != nil {
		return q.fail(fmt.Errorf("%w: %w", ErrInvalidJoin, err))
	}
	if len(spec.On) == 0 && spec.Cond == nil {
		return q.fail(fmt.Errorf("%w: no join keys or condition", ErrInvalidJoin))
	}
	if len(spec.OnTypes) > 0 && len(spec.OnTypes) != len(spec.On) {
		return q.fail(fmt.Errorf("%w: %d key types for %d keys", ErrInvalidJoin, len(spec.OnTypes), len(spec.On)))
	}
	for _, t := range spec.OnTypes {
		if !t.valid() {
			return q.fail(fmt.Errorf("%w: %q", ErrInvalidType, t))
		}
	}

	lhave, rhave := q.node.columns(), right.node.columns()
	for _, on := range spec.On {
		if on.Left == "" || on.Right == "" {
			return q.fail(fmt.Errorf("%w: empty join key", ErrInvalidJoin))
		}
		if err := checkColumns(lhave, on.Left); err != nil {
			return q.fail(err)
		}
		if err := checkColumns(rhave, on.Right); err != nil {
			return q.fail(err)
		}
	}

	lcols, err := joinSide(lhave, spec.LeftColumns)
	if err != nil {
		return q.fail(err)
	}
	rcols, err := joinSide(rhave, spec.RightColumns)
	if err != nil {
		return q.fail(err)
	}
	spec.On = slices.Clone(spec.On)
	spec.OnTypes = slices.Clone(spec.OnTypes)
	return q.with(&joinNode{left: q.node, right: right.node, spec: spec, leftCols: lcols, rightCols: rcols})
}

func joinSide(have, want []string) ([]string, error) {
	if len(want) == 0 {
		if have == nil {
			return nil, fmt.Errorf("%w: join side needs known columns or an explicit column list", ErrUnknownColumns)
		}
		return slices.Clone(have), nil
	}
	if err := checkColumns(have, want...); err != nil {
		return nil, err
	}
	return slices.Clone(want), nil
}

// Op transforms a query. Ops compose with Sequential.
type Op func(Query) Query

// Sequential chains ops left to right.
func Sequential(ops ...Op) Op {
	return func(q Query) Query {
		for _, op := range ops {
			q = op(q)
		}
		return q
	}
}

// Apply runs ops over q in order.
func (q Query) Apply(ops ...Op) Query {
	return Sequential(ops...)(q)
}

// SelectOp returns an Op calling Select.
func SelectOp(cols ...string) Op { return func(q Query) Query { return q.Select(cols...) } }

// DropOp returns an Op calling Drop.
func DropOp(cols ...string) Op { return func(q Query) Query { return q.Drop(cols...) } }

// RenameOp returns an Op calling Rename.
func RenameOp(renames map[string]string) Op {
	return func(q Query) Query { return q.Rename(renames) }
}

// WhereOp returns an Op calling Where.
func WhereOp(cond Condition) Op { return func(q Query) Query { return q.Where(cond) } }

// CastOp returns an Op calling Cast.
func CastOp(typ Type, cols ...string) Op { return func(q Query) Query { return q.Cast(typ, cols...) } }

// OrderByOp returns an Op calling OrderBy.
func OrderByOp(column string, dir SortDirection) Op {
	return func(q Query) Query { return q.OrderBy(column, dir) }
}

// LimitOp returns an Op calling Limit.
func LimitOp(n int) Op { return func(q Query) Query { return q.Limit(n) } }

// DistinctOp returns an Op calling Distinct.
func DistinctOp() Op { return func(q Query) Query { return q.Distinct() } }
