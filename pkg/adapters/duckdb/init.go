package duckdb

import (
	"log/slog"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
)

// Name is the registered adapter type.
const Name = "duckdb"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
