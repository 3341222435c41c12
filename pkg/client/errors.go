package client

import (
	"errors"
	"fmt"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
	"github.com/satishbabariya/ehrquery/internal/core/batch"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotConnected is returned by every operation of a Database whose
	// setup failed. The setup error is wrapped alongside it.
	ErrNotConnected = errors.New("ehrquery: database is not connected")

	// ErrLimitNotSupported is returned when batching a query that limits
	// its rows.
	ErrLimitNotSupported = fmt.Errorf("ehrquery: batching queries with a LIMIT: %w", errors.ErrUnsupported)

	// ErrUnknownTable is returned for a schema/table pair that was not
	// reflected.
	ErrUnknownTable = errors.New("ehrquery: unknown table")

	// ErrUnknownAccessor is returned for an unregistered custom table.
	ErrUnknownAccessor = errors.New("ehrquery: unknown custom table")

	// ErrDuplicateAccessor is returned when registering a custom table twice.
	ErrDuplicateAccessor = errors.New("ehrquery: custom table already registered")
)

// Configuration and connectivity errors, detected by Open.
var (
	ErrUnsupportedSystem    = database.ErrUnsupportedSystem
	ErrMissingHost          = database.ErrMissingHost
	ErrMissingPort          = database.ErrMissingPort
	ErrMissingDatabase      = database.ErrMissingDatabase
	ErrDatabaseFileNotFound = database.ErrDatabaseFileNotFound
	ErrHostUnresolvable     = database.ErrHostUnresolvable
	ErrPortClosed           = database.ErrPortClosed
)

// Batching errors.
var (
	ErrEmptyResult      = batch.ErrEmptyResult
	ErrBatchCapacity    = batch.ErrBatchCapacity
	ErrNotOrderable     = batch.ErrNotOrderable
	ErrInvalidBatchSize = batch.ErrInvalidBatchSize
)

// QueryError reports a failed query together with the SQL that was sent.
type QueryError struct {
	// Operation is run, count, batch or save.
	Operation string

	// Query is the compiled SQL, empty when compilation failed.
	Query string

	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("ehrquery: %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("ehrquery: %s failed: %v [query: %s]", e.Operation, e.Cause, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *QueryError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// IsNotConnected reports whether err comes from a Database that failed setup.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected)
}

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	for _, target := range []error{ErrUnsupportedSystem, ErrMissingHost, ErrMissingPort, ErrMissingDatabase, ErrDatabaseFileNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
