// Package database defines database adapter interfaces and connection setup.
package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/satishbabariya/ehrquery/pkg/query"
)

// ErrNotConnected is returned by adapters used before Connect.
var ErrNotConnected = errors.New("database not connected")

// Adapter defines the database adapter interface.
type Adapter interface {
	// Connect establishes a database connection.
	Connect(ctx context.Context) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// Query executes a query that returns rows.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query that returns a single row.
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// ServerVersion reports the database server version string.
	ServerVersion(ctx context.Context) (string, error)

	// GetDialect returns the SQL dialect.
	GetDialect() query.Dialect
}

// Config holds database connection configuration.
type Config struct {
	DSN            string
	MaxConnections int
	MaxIdleTime    int // seconds
	ConnectTimeout int // seconds
}

// DefaultConfig returns pool settings suited to analytical reads.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:            dsn,
		MaxConnections: 4,
		MaxIdleTime:    300,
		ConnectTimeout: 10,
	}
}
