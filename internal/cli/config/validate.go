package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
)

// OutputModes lists the accepted values of the output key.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if !adapter.IsRegistered(c.Database.Type) {
		return &adapter.UnknownAdapterError{Type: c.Database.Type, Available: adapter.ListAdapters()}
	}

	if _, err := c.Format(); err != nil {
		return fmt.Errorf("chart.format: %w", err)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %gx%g", c.Chart.Width, c.Chart.Height)
	}

	if !validOutput(c.Output) {
		return fmt.Errorf("invalid output mode %q (expected one of %s)", c.Output, strings.Join(OutputModes, ", "))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level. Verbose forces debug.
func (c *Config) Level() (slog.Level, error) {
	if c.Verbose {
		return slog.LevelDebug, nil
	}
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q (expected debug, info, warn or error)", c.LogLevel)
	}
	return level, nil
}

func validOutput(mode string) bool {
	if mode == "" {
		return true
	}
	for _, m := range OutputModes {
		if m == mode {
			return true
		}
	}
	return false
}
