// Package filterexpr parses textual filter expressions such as
//
//	anchor_age >= 30 AND (gender = 'F' OR dod IS NOT NULL)
//
// into query conditions.
package filterexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

type disjunction struct {
	Terms []*conjunction `@@ ( "OR" @@ )*`
}

type conjunction struct {
	Terms []*unary `@@ ( "AND" @@ )*`
}

type unary struct {
	Not   bool         `@"NOT"?`
	Group *disjunction `( "(" @@ ")"`
	Pred  *predicate   `| @@ )`
}

type predicate struct {
	Column  string      `@Ident`
	Compare *comparison `( @@`
	Null    *nullCheck  `| @@`
	In      *inList     `| @@`
	Like    *likeMatch  `| @@ )`
}

type comparison struct {
	Op    string   `@Operator`
	Value *literal `@@`
}

type nullCheck struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

type inList struct {
	Not    bool       `@"NOT"? "IN" "("`
	Values []*literal `@@ ( "," @@ )* ")"`
}

type likeMatch struct {
	Pattern string `"LIKE" @String`
}

type literal struct {
	Number *string `  @Number`
	String *string `| @String`
	Bool   *string `| @( "TRUE" | "FALSE" )`
}

var parser = participle.MustBuild[disjunction](
	participle.Lexer(FilterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(2),
)

// Parse parses expr into a condition.
func Parse(expr string) (query.Condition, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty filter expression", query.ErrInvalidCondition)
	}
	raw, err := parser.ParseString("filter", expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", query.ErrInvalidCondition, err)
	}
	return raw.condition()
}

func (d *disjunction) condition() (query.Condition, error) {
	conds := make([]query.Condition, 0, len(d.Terms))
	for _, term := range d.Terms {
		c, err := term.condition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return query.Or(conds...), nil
}

func (c *conjunction) condition() (query.Condition, error) {
	conds := make([]query.Condition, 0, len(c.Terms))
	for _, term := range c.Terms {
		cond, err := term.condition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return query.And(conds...), nil
}

func (u *unary) condition() (query.Condition, error) {
	var (
		cond query.Condition
		err  error
	)
	if u.Group != nil {
		cond, err = u.Group.condition()
	} else {
		cond, err = u.Pred.condition()
	}
	if err != nil {
		return nil, err
	}
	if u.Not {
		return query.Not(cond), nil
	}
	return cond, nil
}

var operators = map[string]query.Operator{
	"=":  query.OpEq,
	"!=": query.OpNe,
	"<>": query.OpNe,
	"<":  query.OpLt,
	"<=": query.OpLte,
	">":  query.OpGt,
	">=": query.OpGte,
}

func (p *predicate) condition() (query.Condition, error) {
	switch {
	case p.Compare != nil:
		v, err := p.Compare.Value.value()
		if err != nil {
			return nil, err
		}
		return query.Compare(query.Col(p.Column), operators[p.Compare.Op], query.Value(v)), nil
	case p.Null != nil:
		if p.Null.Not {
			return query.IsNotNull(p.Column), nil
		}
		return query.IsNull(p.Column), nil
	case p.In != nil:
		values := make([]any, len(p.In.Values))
		for i, l := range p.In.Values {
			v, err := l.value()
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if p.In.Not {
			return query.NotIn(p.Column, values...), nil
		}
		return query.In(p.Column, values...), nil
	case p.Like != nil:
		return query.Like(p.Column, unquote(p.Like.Pattern)), nil
	default:
		return nil, fmt.Errorf("%w: incomplete predicate on %q", query.ErrInvalidCondition, p.Column)
	}
}

func (l *literal) value() (any, error) {
	switch {
	case l.Number != nil:
		if strings.Contains(*l.Number, ".") {
			return strconv.ParseFloat(*l.Number, 64)
		}
		return strconv.ParseInt(*l.Number, 10, 64)
	case l.String != nil:
		return unquote(*l.String), nil
	case l.Bool != nil:
		return strings.EqualFold(*l.Bool, "true"), nil
	default:
		return nil, fmt.Errorf("%w: missing value", query.ErrInvalidCondition)
	}
}

// unquote strips SQL single quotes and collapses doubled quotes.
func unquote(s string) string {
	s = strings.TrimPrefix(strings.TrimSuffix(s, "'"), "'")
	return strings.ReplaceAll(s, "''", "'")
}
