// Package engine provides the chart query service.
// It runs caller-supplied SQL against a local database and hands the result
// table to the chart renderers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/leapstack-labs/sqlchart/pkg/table"

	// Register the local database adapters.
	_ "github.com/leapstack-labs/sqlchart/pkg/adapters/duckdb"
	"github.com/leapstack-labs/sqlchart/pkg/adapters/sqlite"
)

// DefaultDatabasePath is the SQLite file opened when no path is configured.
const DefaultDatabasePath = "customer.db"

// ErrClosed is returned by operations on a closed engine.
var ErrClosed = errors.New("engine is closed")

// Engine owns one database connection and renders charts from queries
// against it. An Engine is not safe for concurrent use; callers wanting
// parallelism create independent engines.
type Engine struct {
	db     adapter.Adapter
	opts   chart.Options
	logger *slog.Logger
	closed bool
}

// Config holds engine configuration.
type Config struct {
	// Database selects and configures the adapter. Type defaults to
	// "sqlite" and Path to DefaultDatabasePath.
	Database adapter.Config
	// Chart holds default figure options for every render.
	Chart chart.Options
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New connects to the configured database.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dbCfg := cfg.Database
	if dbCfg.Type == "" {
		dbCfg.Type = sqlite.Name
	}
	if dbCfg.Path == "" {
		dbCfg.Path = DefaultDatabasePath
	}

	logger.Debug("connecting to database", "adapter_type", dbCfg.Type, "path", dbCfg.Path)

	db, err := adapter.Open(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return Open(db, cfg), nil
}

// Open wraps an already connected adapter. The engine takes ownership of
// db and closes it in Close.
func Open(db adapter.Adapter, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		db:     db,
		opts:   cfg.Chart,
		logger: logger,
	}
}

// Close releases the database connection. It is safe to call more than
// once; only the first call does any work.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.logger.Debug("closing engine")

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Execute runs sql and materializes the full result as a table.
// Database failures are returned as *QueryError.
func (e *Engine) Execute(ctx context.Context, sql string) (*table.Table, error) {
	if e.closed {
		return nil, &QueryError{SQL: sql, Err: ErrClosed}
	}

	start := time.Now()
	rows, err := e.db.Query(ctx, sql)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}
	defer func() { _ = rows.Close() }()

	t, err := table.FromRows(rows)
	if err != nil {
		return nil, &QueryError{SQL: sql, Err: err}
	}

	e.logger.Debug("query executed",
		"rows", t.Len(),
		"columns", t.Width(),
		"duration", time.Since(start))
	return t, nil
}

// Tables lists the tables and views of the connected database.
func (e *Engine) Tables(ctx context.Context) ([]string, error) {
	if e.closed {
		return nil, ErrClosed
	}
	return e.db.Tables(ctx)
}
