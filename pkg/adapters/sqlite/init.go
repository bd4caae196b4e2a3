package sqlite

import (
	"log/slog"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
)

// Name is the registered adapter type and the default database.type.
const Name = "sqlite"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
