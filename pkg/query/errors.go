package query

import "errors"

// Validation errors carried by Query values and returned by the compiler.
var (
	// ErrEmptyQuery is returned for the zero Query value.
	ErrEmptyQuery = errors.New("query: empty query")

	// ErrUnknownColumn indicates a reference to a column the source does not have.
	ErrUnknownColumn = errors.New("query: unknown column")

	// ErrUnknownColumns indicates an operation that needs the source's column
	// list, applied to a source whose columns are not known (raw SQL).
	ErrUnknownColumns = errors.New("query: operation requires known columns")

	// ErrInvalidJoin indicates a malformed join.
	ErrInvalidJoin = errors.New("query: invalid join")

	// ErrInvalidUnion indicates a union of incompatible queries.
	ErrInvalidUnion = errors.New("query: invalid union")

	// ErrInvalidType indicates an unknown cast type.
	ErrInvalidType = errors.New("query: invalid type")

	// ErrInvalidLimit indicates a negative row limit.
	ErrInvalidLimit = errors.New("query: invalid limit")

	// ErrInvalidCondition indicates a malformed filter condition.
	ErrInvalidCondition = errors.New("query: invalid condition")

	// ErrUnsupportedDialect indicates a dialect the compiler cannot target.
	ErrUnsupportedDialect = errors.New("query: unsupported dialect")
)
