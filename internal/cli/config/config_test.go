package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectDir creates a temporary project, optionally with a sqlchart.yaml,
// and makes it the working directory.
func projectDir(t *testing.T, cfgContent string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	if cfgContent != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sqlchart.yaml"), []byte(cfgContent), 0o600))
	}
	t.Chdir(dir)
	ResetConfig()
	return dir
}

func testFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("database", "", "database path")
	flags.String("driver", "", "database type")
	flags.String("env", "", "environment")
	flags.Float64("width", 0, "width")
	flags.String("x", "", "unbound")
	BindFlag(flags, "database", "database.path")
	BindFlag(flags, "driver", "database.type")
	BindFlag(flags, "env", "environment")
	BindFlag(flags, "width", "chart.width")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := projectDir(t, "")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, filepath.Join(dir, "customer.db"), cfg.Database.Path)
	assert.Equal(t, 8.0, cfg.Chart.Width)
	assert.Equal(t, 5.0, cfg.Chart.Height)
	assert.Equal(t, "png", cfg.Chart.Format)
	assert.Equal(t, "auto", cfg.Output)
	assert.Equal(t, DefaultPreviewAddr, cfg.Preview.Addr)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	root := projectDir(t, `
database:
  path: data/sales.db
chart:
  format: svg
`)
	sub := filepath.Join(root, "reports", "weekly")
	require.NoError(t, os.MkdirAll(sub, 0o750))
	t.Chdir(sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "sqlchart.yaml"), GetConfigFileUsed())
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "data", "sales.db"), cfg.Database.Path, "paths resolve against the project root")
	assert.Equal(t, "svg", cfg.Chart.Format)
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	projectDir(t, "")

	_, err := LoadConfig("nope.yaml", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Run("env overrides file", func(t *testing.T) {
		projectDir(t, "log_level: warn\nchart:\n  height: 4\n")
		t.Setenv("SQLCHART_LOG_LEVEL", "debug")
		t.Setenv("SQLCHART_CHART_HEIGHT", "6.5")

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 6.5, cfg.Chart.Height)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		dir := projectDir(t, "database:\n  path: from_file.db\n")
		t.Setenv("SQLCHART_DATABASE_PATH", "from_env.db")

		flags := testFlags(t)
		require.NoError(t, flags.Set("database", "from_flag.db"))
		require.NoError(t, flags.Set("width", "12"))
		require.NoError(t, flags.Set("x", "ignored"))

		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "from_flag.db"), cfg.Database.Path)
		assert.Equal(t, 12.0, cfg.Chart.Width)
	})

	t.Run("unset flag keeps env", func(t *testing.T) {
		dir := projectDir(t, "")
		t.Setenv("SQLCHART_DATABASE_PATH", "from_env.db")

		cfg, err := LoadConfig("", testFlags(t))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "from_env.db"), cfg.Database.Path)
	})

	t.Run("dotenv fills unset variables", func(t *testing.T) {
		dir := projectDir(t, "chart:\n  format: png\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
			[]byte("SQLCHART_CHART_FORMAT=svg\nSQLCHART_OUTPUT=json\n"), 0o600))
		t.Setenv("SQLCHART_OUTPUT", "text")
		t.Cleanup(func() { _ = os.Unsetenv("SQLCHART_CHART_FORMAT") })

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "svg", cfg.Chart.Format, ".env overrides the config file")
		assert.Equal(t, "text", cfg.Output, "process environment wins over .env")
	})
}

func TestLoadConfig_ExpandsDatabasePath(t *testing.T) {
	projectDir(t, "database:\n  path: ${SQLCHART_TEST_DATA}/warehouse.db\n")
	t.Setenv("SQLCHART_TEST_DATA", "/srv/data")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/warehouse.db", cfg.Database.Path)
}

func TestLoadConfig_Environments(t *testing.T) {
	const content = `
database:
  type: sqlite
  path: dev.db
  params:
    pragmas:
      busy_timeout: "1000"
environments:
  prod:
    database:
      path: prod.db
      params:
        read_only: true
`

	t.Run("selected by flag", func(t *testing.T) {
		dir := projectDir(t, content)
		flags := testFlags(t)
		require.NoError(t, flags.Set("env", "prod"))

		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "prod.db"), cfg.Database.Path)
		assert.Equal(t, true, cfg.Database.Params["read_only"])
		assert.Contains(t, cfg.Database.Params, "pragmas", "base params are kept")
	})

	t.Run("database flag wins over environment", func(t *testing.T) {
		dir := projectDir(t, content)
		flags := testFlags(t)
		require.NoError(t, flags.Set("env", "prod"))
		require.NoError(t, flags.Set("database", "adhoc.db"))

		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "adhoc.db"), cfg.Database.Path)
	})

	t.Run("memory database is not resolved", func(t *testing.T) {
		projectDir(t, content)
		flags := testFlags(t)
		require.NoError(t, flags.Set("database", ":memory:"))

		cfg, err := LoadConfig("", flags)
		require.NoError(t, err)
		assert.Equal(t, ":memory:", cfg.Database.Path)
	})

	t.Run("unknown environment", func(t *testing.T) {
		projectDir(t, content)
		t.Setenv("SQLCHART_ENV", "staging")

		_, err := LoadConfig("", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `environment "staging" not defined`)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"unknown adapter", "database:\n  type: mysql\n", `unknown database type "mysql"`},
		{"bad format", "chart:\n  format: gif\n", "chart.format"},
		{"zero width", "chart:\n  width: 0\n", "chart size must be positive"},
		{"bad output", "output: html\n", `invalid output mode "html"`},
		{"bad log level", "log_level: loud\n", `invalid log_level "loud"`},
		{"malformed yaml", "chart: [\n", "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projectDir(t, tt.content)
			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Type: "sqlite"},
			Chart:    ChartConfig{Width: 8, Height: 5, Format: "png"},
			Output:   "auto",
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Database.Type = "oracle"
	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, cfg.Validate(), &unknown)
	assert.Contains(t, unknown.Available, "sqlite")
	assert.Contains(t, unknown.Available, "duckdb")

	cfg = valid()
	cfg.Database.Type = ""
	assert.ErrorContains(t, cfg.Validate(), "database.type is required")
}

func TestConfig_Level(t *testing.T) {
	tests := []struct {
		logLevel string
		verbose  bool
		want     slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"debug", false, slog.LevelDebug},
		{"WARN", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.logLevel, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel, Verbose: tt.verbose}
			got, err := cfg.Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_EngineConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Type: "duckdb", Path: "/tmp/a.duckdb", Params: map[string]any{"extensions": []any{"json"}}},
		Chart:    ChartConfig{Width: 10, Height: 6, Format: "svg"},
	}

	ec := cfg.EngineConfig()
	assert.Equal(t, adapter.Config{Type: "duckdb", Path: "/tmp/a.duckdb", Params: cfg.Database.Params}, ec.Database)
	assert.Equal(t, chart.Options{Width: 10, Height: 6}, ec.Chart)

	format, err := cfg.Format()
	require.NoError(t, err)
	assert.Equal(t, chart.FormatSVG, format)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"variable in path", "/path/to/${TEST_VAR_ONE}/file.db", "/path/to/value_one/file.db"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain.db", "plain.db"},
		{"empty string", "", ""},
		{"mixed set and unset", "${TEST_VAR_ONE}:${UNSET_VAR}", "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeDatabaseConfig(t *testing.T) {
	t.Run("override replaces set fields", func(t *testing.T) {
		base := DatabaseConfig{Type: "sqlite", Path: "base.db"}
		result := MergeDatabaseConfig(base, DatabaseConfig{Path: "override.db"})

		assert.Equal(t, "sqlite", result.Type, "Type should be inherited from base")
		assert.Equal(t, "override.db", result.Path)
		assert.Nil(t, result.Params)
	})

	t.Run("params are merged", func(t *testing.T) {
		base := DatabaseConfig{Params: map[string]any{"key1": "base1", "key2": "base2"}}
		override := DatabaseConfig{Params: map[string]any{"key2": "override2", "key3": "override3"}}

		result := MergeDatabaseConfig(base, override)

		assert.Equal(t, map[string]any{"key1": "base1", "key2": "override2", "key3": "override3"}, result.Params)
		assert.Equal(t, "base2", base.Params["key2"], "base must not be modified")
	})
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()), "falls back to a discard logger")

	logger := slog.New(slog.DiscardHandler)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
