package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
)

// mysqlDoubleCast is the first MySQL release that accepts CAST(... AS DOUBLE).
var mysqlDoubleCast = version.Must(version.NewVersion("8.0.17"))

// Compiler turns queries into dialect-specific SQL.
type Compiler struct {
	dialect       Dialect
	serverVersion *version.Version
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithServerVersion sets the database server version. Some casts depend on it.
func WithServerVersion(v *version.Version) CompilerOption {
	return func(c *Compiler) {
		c.serverVersion = v
	}
}

// NewCompiler creates a compiler for dialect.
func NewCompiler(dialect Dialect, opts ...CompilerOption) *Compiler {
	c := &Compiler{dialect: dialect}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the target dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Compile renders q as a single SELECT statement with bound arguments.
func (c *Compiler) Compile(q Query) (SQL, error) {
	if _, err := ParseDialect(string(c.dialect)); err != nil {
		return SQL{}, err
	}
	if err := q.Err(); err != nil {
		return SQL{}, err
	}
	b := &builder{compiler: c}
	sql, err := b.build(q.node)
	if err != nil {
		return SQL{}, err
	}
	return SQL{Query: sql, Args: b.args, Dialect: c.dialect}, nil
}

// SQL compiles q for dialect with default options.
func (q Query) SQL(dialect Dialect) (SQL, error) {
	return NewCompiler(dialect).Compile(q)
}

// builder accumulates bound arguments and derived-table aliases while a
// query tree is rendered. Rendering is strictly left to right so positional
// placeholders line up with the argument order.
type builder struct {
	compiler *Compiler
	args     []any
	aliases  int

	// join condition scope
	leftAlias  string
	rightAlias string
}

func (b *builder) quote(name string) string {
	return QuoteIdent(b.compiler.dialect, name)
}

func (b *builder) quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.quote(n)
	}
	return strings.Join(quoted, ", ")
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	if b.compiler.dialect == PostgreSQL {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *builder) alias() string {
	b.aliases++
	return "t" + strconv.Itoa(b.aliases)
}

func (b *builder) column(c ColumnRef) (string, error) {
	switch c.Side {
	case Unqualified:
		return b.quote(c.Name), nil
	case Left, Right:
		alias := b.leftAlias
		if c.Side == Right {
			alias = b.rightAlias
		}
		if alias == "" {
			return "", fmt.Errorf("%w: %q is qualified outside a join", ErrInvalidCondition, c.Name)
		}
		return alias + "." + b.quote(c.Name), nil
	default:
		return "", fmt.Errorf("%w: unknown side for %q", ErrInvalidCondition, c.Name)
	}
}

// subquery renders n as a parenthesised derived table with a fresh alias.
func (b *builder) subquery(n node) (string, string, error) {
	inner, err := b.build(n)
	if err != nil {
		return "", "", err
	}
	alias := b.alias()
	return "(" + inner + ") AS " + alias, alias, nil
}

func (b *builder) build(n node) (string, error) {
	switch n := n.(type) {
	case *tableNode:
		return "SELECT * FROM " + b.tableName(n), nil

	case *rawNode:
		return n.sql, nil

	case *selectNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		return "SELECT " + b.quoteAll(n.cols) + " FROM " + from, nil

	case *renameNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		src := n.from.columns()
		items := make([]string, len(src))
		for i, col := range src {
			items[i] = b.quote(col)
			if to, ok := n.renames[col]; ok && to != col {
				items[i] += " AS " + b.quote(to)
			}
		}
		return "SELECT " + strings.Join(items, ", ") + " FROM " + from, nil

	case *whereNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		cond, err := n.cond.build(b)
		if err != nil {
			return "", err
		}
		return "SELECT * FROM " + from + " WHERE " + cond, nil

	case *castNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		src := n.from.columns()
		items := make([]string, len(src))
		for i, col := range src {
			if _, ok := n.casts[col]; ok {
				items[i] = b.cast(b.quote(col), n.typ) + " AS " + b.quote(col)
			} else {
				items[i] = b.quote(col)
			}
		}
		return "SELECT " + strings.Join(items, ", ") + " FROM " + from, nil

	case *joinNode:
		return b.buildJoin(n)

	case *unionNode:
		left, _, err := b.subquery(n.left)
		if err != nil {
			return "", err
		}
		right, _, err := b.subquery(n.right)
		if err != nil {
			return "", err
		}
		op := " UNION "
		if n.all {
			op = " UNION ALL "
		}
		return "SELECT * FROM " + left + op + "SELECT * FROM " + right, nil

	case *orderNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		items := make([]string, len(n.by))
		for i, o := range n.by {
			items[i] = b.quote(o.Column) + " " + string(o.Direction)
		}
		return "SELECT * FROM " + from + " ORDER BY " + strings.Join(items, ", "), nil

	case *distinctNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		return "SELECT DISTINCT * FROM " + from, nil

	case *limitNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		return "SELECT * FROM " + from + " LIMIT " + strconv.Itoa(n.n), nil

	case *countNode:
		from, _, err := b.subquery(n.from)
		if err != nil {
			return "", err
		}
		col := b.quote(n.column)
		return fmt.Sprintf("SELECT %s, COUNT(*) AS %s FROM %s GROUP BY %s ORDER BY %s", col, b.quote(CountColumn), from, col, col), nil

	default:
		return "", fmt.Errorf("query: unsupported node %T", n)
	}
}

func (b *builder) tableName(n *tableNode) string {
	if n.schema == "" {
		return b.quote(n.name)
	}
	return b.quote(n.schema) + "." + b.quote(n.name)
}

func (b *builder) buildJoin(n *joinNode) (string, error) {
	left, la, err := b.subquery(n.left)
	if err != nil {
		return "", err
	}
	right, ra, err := b.subquery(n.right)
	if err != nil {
		return "", err
	}

	items := make([]string, 0, len(n.leftCols)+len(n.rightCols))
	for _, col := range n.leftCols {
		items = append(items, la+"."+b.quote(col))
	}
	for _, col := range n.rightCols {
		if !slices.Contains(n.leftCols, col) {
			items = append(items, ra+"."+b.quote(col))
		}
	}

	var conds []string
	for i, on := range n.spec.On {
		l, r := la+"."+b.quote(on.Left), ra+"."+b.quote(on.Right)
		if len(n.spec.OnTypes) > 0 {
			l, r = b.cast(l, n.spec.OnTypes[i]), b.cast(r, n.spec.OnTypes[i])
		}
		conds = append(conds, l+" = "+r)
	}
	if n.spec.Cond != nil {
		prevL, prevR := b.leftAlias, b.rightAlias
		b.leftAlias, b.rightAlias = la, ra
		cond, err := n.spec.Cond.build(b)
		b.leftAlias, b.rightAlias = prevL, prevR
		if err != nil {
			return "", err
		}
		conds = append(conds, cond)
	}

	kind := " JOIN "
	if n.spec.Outer {
		kind = " LEFT OUTER JOIN "
	}
	return "SELECT " + strings.Join(items, ", ") + " FROM " + left + kind + right + " ON " + strings.Join(conds, " AND "), nil
}

// cast renders expr converted to typ.
func (b *builder) cast(expr string, typ Type) string {
	switch b.compiler.dialect {
	case MySQL:
		return "CAST(" + expr + " AS " + b.mysqlType(typ) + ")"
	case SQLite:
		switch typ {
		case Timestamp:
			return "DATETIME(" + expr + ")"
		case Date:
			return "DATE(" + expr + ")"
		}
		return "CAST(" + expr + " AS " + sqliteTypes[typ] + ")"
	default:
		return "CAST(" + expr + " AS " + postgresTypes[typ] + ")"
	}
}

func (b *builder) mysqlType(typ Type) string {
	if typ == Float && b.compiler.serverVersion != nil && b.compiler.serverVersion.LessThan(mysqlDoubleCast) {
		return "DECIMAL(65,30)"
	}
	return mysqlTypes[typ]
}

var postgresTypes = map[Type]string{
	String:    "TEXT",
	Integer:   "BIGINT",
	Float:     "DOUBLE PRECISION",
	Boolean:   "BOOLEAN",
	Timestamp: "TIMESTAMP",
	Date:      "DATE",
}

var mysqlTypes = map[Type]string{
	String:    "CHAR",
	Integer:   "SIGNED",
	Float:     "DOUBLE",
	Boolean:   "UNSIGNED",
	Timestamp: "DATETIME",
	Date:      "DATE",
}

// SQLite has no date types; timestamps and dates go through its date functions.
var sqliteTypes = map[Type]string{
	String:  "TEXT",
	Integer: "INTEGER",
	Float:   "REAL",
	Boolean: "INTEGER",
}
