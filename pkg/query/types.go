package query

import (
	"fmt"
	"strings"
)

// Dialect represents a SQL dialect.
type Dialect string

const (
	// PostgreSQL dialect.
	PostgreSQL Dialect = "postgresql"
	// MySQL dialect.
	MySQL Dialect = "mysql"
	// SQLite dialect.
	SQLite Dialect = "sqlite"
)

// ParseDialect resolves a dialect name, ignoring case.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(name))) {
	case PostgreSQL:
		return PostgreSQL, nil
	case MySQL:
		return MySQL, nil
	case SQLite:
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
	}
}

// Type is a portable column type used by casts and join-key coercion.
type Type string

const (
	// String casts to the dialect's text type.
	String Type = "string"
	// Integer casts to a 64-bit integer.
	Integer Type = "integer"
	// Float casts to a double precision float.
	Float Type = "float"
	// Boolean casts to a boolean (or 0/1 where the engine has none).
	Boolean Type = "boolean"
	// Timestamp casts to a date-time.
	Timestamp Type = "timestamp"
	// Date casts to a calendar date.
	Date Type = "date"
)

// ParseType resolves a type name. Common aliases such as "str", "int" and
// "datetime" are accepted.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str", "text", "varchar":
		return String, nil
	case "integer", "int", "bigint":
		return Integer, nil
	case "float", "double", "real":
		return Float, nil
	case "boolean", "bool":
		return Boolean, nil
	case "timestamp", "datetime":
		return Timestamp, nil
	case "date":
		return Date, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, name)
	}
}

func (t Type) valid() bool {
	switch t {
	case String, Integer, Float, Boolean, Timestamp, Date:
		return true
	}
	return false
}

// SortDirection represents sort direction.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "ASC"
	// Desc sorts descending.
	Desc SortDirection = "DESC"
)

// OrderBy defines sorting on one column.
type OrderBy struct {
	Column    string
	Direction SortDirection
}

// SQL represents generated SQL.
type SQL struct {
	Query   string
	Args    []any
	Dialect Dialect
}

// QuoteIdent quotes an identifier for the dialect.
func QuoteIdent(d Dialect, name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
