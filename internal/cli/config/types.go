// Package config provides configuration management for the sqlchart CLI.
//
// Values are layered from defaults, a sqlchart.yaml file, a .env file,
// SQLCHART_ environment variables and explicitly set command-line flags,
// in increasing order of precedence.
package config

import (
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
)

// DatabaseConfig selects the database adapter and its connection.
type DatabaseConfig struct {
	Type   string         `koanf:"type"`
	Path   string         `koanf:"path"`
	Params map[string]any `koanf:"params"`
}

// ChartConfig holds figure defaults for rendering commands.
type ChartConfig struct {
	Width  float64 `koanf:"width"`
	Height float64 `koanf:"height"`
	Format string  `koanf:"format"`
}

// PreviewConfig holds settings for the preview server.
type PreviewConfig struct {
	Addr string `koanf:"addr"`
}

// Config holds all CLI configuration options.
type Config struct {
	Database     DatabaseConfig       `koanf:"database"`
	Chart        ChartConfig          `koanf:"chart"`
	Preview      PreviewConfig        `koanf:"preview"`
	Output       string               `koanf:"output"`
	Verbose      bool                 `koanf:"verbose"`
	LogLevel     string               `koanf:"log_level"`
	Environment  string               `koanf:"environment"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths resolve against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific overrides, selected with --env.
type EnvConfig struct {
	Database *DatabaseConfig `koanf:"database"`
}

// Default configuration values.
const (
	DefaultDatabaseType = "sqlite"
	DefaultDatabasePath = engine.DefaultDatabasePath
	DefaultWidth        = 8.0
	DefaultHeight       = 5.0
	DefaultFormat       = "png"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel     = "info"
	DefaultPreviewAddr  = "127.0.0.1:8080"
)

// EngineConfig converts the configuration into engine settings.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Database: adapter.Config{
			Type:   c.Database.Type,
			Path:   c.Database.Path,
			Params: c.Database.Params,
		},
		Chart: chart.Options{
			Width:  c.Chart.Width,
			Height: c.Chart.Height,
		},
	}
}

// Format returns the configured default image format.
func (c *Config) Format() (chart.Format, error) {
	return chart.ParseFormat(c.Chart.Format)
}
