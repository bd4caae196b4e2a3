package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "SQLCHART_"

// configNames are the config file names looked up in a directory, in order.
var configNames = []string{"sqlchart.yaml", "sqlchart.yml"}

// flagKeyAnnotation marks a flag as bound to a config key.
const flagKeyAnnotation = "sqlchart_config_key"

// envKeys maps environment variable suffixes to config keys, so that
// SQLCHART_LOG_LEVEL reaches log_level and SQLCHART_DATABASE_PATH reaches
// database.path.
var envKeys = map[string]string{
	"DATABASE_TYPE": "database.type",
	"DATABASE_PATH": "database.path",
	"CHART_WIDTH":   "chart.width",
	"CHART_HEIGHT":  "chart.height",
	"CHART_FORMAT":  "chart.format",
	"PREVIEW_ADDR":  "preview.addr",
	"OUTPUT":        "output",
	"VERBOSE":       "verbose",
	"LOG_LEVEL":     "log_level",
	"ENVIRONMENT":   "environment",
	"ENV":           "environment",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// BindFlag binds a flag to a config key. Only bound flags that were set on
// the command line override the other configuration layers.
func BindFlag(flags *pflag.FlagSet, name, key string) {
	_ = flags.SetAnnotation(name, flagKeyAnnotation, []string{key})
}

func boundKey(f *pflag.Flag) string {
	if keys := f.Annotations[flagKeyAnnotation]; len(keys) > 0 {
		return keys[0]
	}
	return ""
}

// configIn returns the config file in dir, if any.
func configIn(dir string) string {
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a sqlchart config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configIn(dir); found != "" {
			return found
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > .env file > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// Explicit config file wins; otherwise search upward from CWD.
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
	}

	projectRoot := cwd
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			cfgFile = abs
			projectRoot = filepath.Dir(abs)
		}
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"database.type": DefaultDatabaseType,
		"database.path": DefaultDatabasePath,
		"chart.width":   DefaultWidth,
		"chart.height":  DefaultHeight,
		"chart.format":  DefaultFormat,
		"preview.addr":  DefaultPreviewAddr,
		"output":        DefaultOutput,
		"verbose":       false,
		"log_level":     DefaultLogLevel,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file
	configFileUsed = cfgFile
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load .env from the project root. Variables already set in the
	// process environment are not overwritten.
	if err := loadDotEnv(projectRoot); err != nil {
		return nil, err
	}

	// 4. Load environment variables (SQLCHART_ prefix)
	// Transform: SQLCHART_DATABASE_PATH -> database.path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 5. Load flags (highest priority - overrides env vars and config file)
	var flagDatabase string
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key := boundKey(f)
			if key == "database.path" {
				flagDatabase = f.Value.String()
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// Apply environment-specific overrides if an environment is selected
	if cfg.Environment != "" {
		envCfg, ok := cfg.Environments[cfg.Environment]
		if !ok {
			return nil, fmt.Errorf("environment %q not defined in config", cfg.Environment)
		}
		if envCfg.Database != nil {
			cfg.Database = MergeDatabaseConfig(cfg.Database, *envCfg.Database)
		}
		// A --database flag still wins over the environment's path.
		if flagDatabase != "" {
			cfg.Database.Path = flagDatabase
		}
	}

	cfg.Database.Type = strings.ToLower(strings.TrimSpace(cfg.Database.Type))
	cfg.Database.Path = expandEnvVars(cfg.Database.Path)

	// Paths from flags are relative to CWD, everything else to the project root.
	if flagDatabase != "" {
		cfg.Database.Path = resolvePathRelativeTo(cfg.Database.Path, cwd)
	} else {
		cfg.Database.Path = resolvePathRelativeTo(cfg.Database.Path, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// MergeDatabaseConfig merges two database configs, with override taking precedence.
// Params are merged key by key.
func MergeDatabaseConfig(base, override DatabaseConfig) DatabaseConfig {
	merged := DatabaseConfig{
		Type:   base.Type,
		Path:   base.Path,
		Params: make(map[string]any, len(base.Params)+len(override.Params)),
	}
	maps.Copy(merged.Params, base.Params)
	maps.Copy(merged.Params, override.Params)

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Path != "" {
		merged.Path = override.Path
	}
	if len(merged.Params) == 0 {
		merged.Params = nil
	}
	return merged
}
