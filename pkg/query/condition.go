package query

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="
)

func (op Operator) valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		return true
	}
	return false
}

// Side qualifies a column reference inside a join condition.
type Side int

const (
	// Unqualified references the current source.
	Unqualified Side = iota
	// Left references the left side of a join.
	Left
	// Right references the right side of a join.
	Right
)

// Operand is one side of a comparison: a column reference or a bound value.
type Operand interface {
	render(b *builder) (string, error)
}

// ColumnRef references a column by name.
type ColumnRef struct {
	Side Side
	Name string
}

// Col references an unqualified column.
func Col(name string) ColumnRef { return ColumnRef{Name: name} }

// LeftCol references a column of the left side of a join.
func LeftCol(name string) ColumnRef { return ColumnRef{Side: Left, Name: name} }

// RightCol references a column of the right side of a join.
func RightCol(name string) ColumnRef { return ColumnRef{Side: Right, Name: name} }

func (c ColumnRef) render(b *builder) (string, error) {
	if c.Name == "" {
		return "", fmt.Errorf("%w: empty column name", ErrInvalidCondition)
	}
	return b.column(c)
}

type literal struct {
	value any
}

// Value wraps a literal. Literals are always bound as parameters.
func Value(v any) Operand { return literal{value: v} }

func (l literal) render(b *builder) (string, error) {
	return b.bind(l.value), nil
}

// Condition is a boolean filter expression.
type Condition interface {
	build(b *builder) (string, error)
}

type comparison struct {
	left  Operand
	op    Operator
	right Operand
}

func (c comparison) build(b *builder) (string, error) {
	if !c.op.valid() {
		return "", fmt.Errorf("%w: operator %q", ErrInvalidCondition, c.op)
	}
	if c.left == nil || c.right == nil {
		return "", fmt.Errorf("%w: missing operand", ErrInvalidCondition)
	}
	l, err := c.left.render(b)
	if err != nil {
		return "", err
	}
	r, err := c.right.render(b)
	if err != nil {
		return "", err
	}
	op := string(c.op)
	if c.op == OpNe {
		op = "<>"
	}
	return l + " " + op + " " + r, nil
}

// Compare builds a comparison between two operands.
func Compare(left Operand, op Operator, right Operand) Condition {
	return comparison{left: left, op: op, right: right}
}

func operandOf(v any) Operand {
	if o, ok := v.(Operand); ok {
		return o
	}
	return literal{value: v}
}

// Eq matches rows where column equals v. v may be an Operand.
func Eq(column string, v any) Condition { return Compare(Col(column), OpEq, operandOf(v)) }

// Ne matches rows where column differs from v.
func Ne(column string, v any) Condition { return Compare(Col(column), OpNe, operandOf(v)) }

// Lt matches rows where column is less than v.
func Lt(column string, v any) Condition { return Compare(Col(column), OpLt, operandOf(v)) }

// Lte matches rows where column is at most v.
func Lte(column string, v any) Condition { return Compare(Col(column), OpLte, operandOf(v)) }

// Gt matches rows where column is greater than v.
func Gt(column string, v any) Condition { return Compare(Col(column), OpGt, operandOf(v)) }

// Gte matches rows where column is at least v.
func Gte(column string, v any) Condition { return Compare(Col(column), OpGte, operandOf(v)) }

type inList struct {
	column Operand
	values []any
	negate bool
}

// In matches rows where column is one of values.
func In(column string, values ...any) Condition {
	return inList{column: Col(column), values: values}
}

// NotIn matches rows where column is none of values.
func NotIn(column string, values ...any) Condition {
	return inList{column: Col(column), values: values, negate: true}
}

func (c inList) build(b *builder) (string, error) {
	if len(c.values) == 0 {
		return "", fmt.Errorf("%w: empty IN list", ErrInvalidCondition)
	}
	col, err := c.column.render(b)
	if err != nil {
		return "", err
	}
	params := make([]string, len(c.values))
	for i, v := range c.values {
		params[i] = b.bind(v)
	}
	op := "IN"
	if c.negate {
		op = "NOT IN"
	}
	return fmt.Sprintf("%s %s (%s)", col, op, strings.Join(params, ", ")), nil
}

type like struct {
	column  Operand
	pattern string
}

// Like matches rows where column matches the SQL LIKE pattern.
func Like(column, pattern string) Condition {
	return like{column: Col(column), pattern: pattern}
}

func (c like) build(b *builder) (string, error) {
	col, err := c.column.render(b)
	if err != nil {
		return "", err
	}
	return col + " LIKE " + b.bind(c.pattern), nil
}

type nullCheck struct {
	column Operand
	negate bool
}

// IsNull matches rows where column is NULL.
func IsNull(column string) Condition { return nullCheck{column: Col(column)} }

// IsNotNull matches rows where column is not NULL.
func IsNotNull(column string) Condition { return nullCheck{column: Col(column), negate: true} }

func (c nullCheck) build(b *builder) (string, error) {
	col, err := c.column.render(b)
	if err != nil {
		return "", err
	}
	if c.negate {
		return col + " IS NOT NULL", nil
	}
	return col + " IS NULL", nil
}

type logical struct {
	op    string
	conds []Condition
}

// And joins conditions so that all must hold. Nil conditions are skipped.
func And(conds ...Condition) Condition { return logical{op: "AND", conds: conds} }

// Or joins conditions so that any may hold. Nil conditions are skipped.
func Or(conds ...Condition) Condition { return logical{op: "OR", conds: conds} }

func (c logical) build(b *builder) (string, error) {
	parts := make([]string, 0, len(c.conds))
	for _, cond := range c.conds {
		if cond == nil {
			continue
		}
		s, err := cond.build(b)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	switch len(parts) {
	case 0:
		return "", fmt.Errorf("%w: empty %s", ErrInvalidCondition, c.op)
	case 1:
		return parts[0], nil
	}
	return "(" + strings.Join(parts, " "+c.op+" ") + ")", nil
}

type negation struct {
	cond Condition
}

// Not negates a condition.
func Not(cond Condition) Condition { return negation{cond: cond} }

func (c negation) build(b *builder) (string, error) {
	if c.cond == nil {
		return "", fmt.Errorf("%w: empty NOT", ErrInvalidCondition)
	}
	s, err := c.cond.build(b)
	if err != nil {
		return "", err
	}
	return "NOT (" + s + ")", nil
}
