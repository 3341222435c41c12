// Package rawsql inspects caller-supplied SQL strings.
package rawsql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"
)

var (
	// ErrEmpty is returned for blank SQL.
	ErrEmpty = errors.New("rawsql: empty statement")

	// ErrNotSelect is returned for statements that do not produce rows.
	ErrNotSelect = errors.New("rawsql: statement is not a SELECT")
)

// Statement is an inspected SQL statement.
type Statement struct {
	// SQL is the statement with surrounding whitespace and trailing
	// semicolons removed.
	SQL string
	// Parsed is false when the parser rejected the statement (usually
	// engine-specific syntax) and the lexical fallback was used.
	Parsed bool
	// HasLimit reports a LIMIT (or FETCH FIRST) clause anywhere in the statement.
	HasLimit bool
}

var (
	limitPattern    = regexp.MustCompile(`(?i)\b(limit|fetch\s+(first|next))\b`)
	writePattern    = regexp.MustCompile(`(?i)^\s*(insert|update|delete|drop|create|alter|truncate|grant|revoke|replace|merge)\b`)
	literalPattern  = regexp.MustCompile(`'(?:''|[^'])*'|"(?:""|[^"])*"|` + "`(?:``|[^`])*`")
	commentPattern  = regexp.MustCompile(`(?s)--[^\n]*|/\*.*?\*/`)
	trailingPattern = regexp.MustCompile(`[\s;]+$`)
)

// Inspect parses sql and reports whether it limits its row count.
func Inspect(sql string) (Statement, error) {
	cleaned := trailingPattern.ReplaceAllString(strings.TrimSpace(sql), "")
	if cleaned == "" {
		return Statement{}, ErrEmpty
	}

	stmt, err := sqlparser.Parse(cleaned)
	if err != nil {
		return inspectLexically(cleaned)
	}
	if _, ok := stmt.(sqlparser.SelectStatement); !ok {
		return Statement{}, fmt.Errorf("%w: %s", ErrNotSelect, firstWord(cleaned))
	}

	found := false
	_ = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if l, ok := node.(*sqlparser.Limit); ok && l != nil {
			found = true
			return false, nil
		}
		return true, nil
	}, stmt)

	return Statement{SQL: cleaned, Parsed: true, HasLimit: found}, nil
}

// HasLimit reports whether sql contains a LIMIT clause. Unparseable input is
// checked lexically.
func HasLimit(sql string) bool {
	stmt, err := Inspect(sql)
	return err == nil && stmt.HasLimit
}

func inspectLexically(sql string) (Statement, error) {
	bare := commentPattern.ReplaceAllString(sql, " ")
	bare = literalPattern.ReplaceAllString(bare, "''")
	if writePattern.MatchString(bare) {
		return Statement{}, fmt.Errorf("%w: %s", ErrNotSelect, firstWord(bare))
	}
	return Statement{SQL: sql, HasLimit: limitPattern.MatchString(bare)}, nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
