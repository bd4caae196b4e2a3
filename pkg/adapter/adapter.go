// Package adapter provides the database adapter contract used to run chart
// queries against a local database.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with this package from init().
package adapter

import (
	"context"
	"database/sql"
)

// Config holds configuration for connecting to a database.
type Config struct {
	// Type selects a registered adapter, e.g. "sqlite" or "duckdb".
	Type string
	// Path is the database file. Adapters treat "" and ":memory:" as an
	// in-memory database.
	Path string
	// Params holds adapter-specific settings, decoded by each adapter
	// with mapstructure.
	Params map[string]any
}

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	// Calling Close more than once is not an error.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g., INSERT, CREATE).
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	// The caller must close the returned rows.
	Query(ctx context.Context, sql string) (*sql.Rows, error)

	// Tables lists the user tables and views, sorted by name.
	Tables(ctx context.Context) ([]string, error)

	// LoadCSV loads data from a CSV file into a table, replacing any
	// existing table of the same name.
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}
