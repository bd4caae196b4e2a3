package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlchart/internal/cli/config"
	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cmd.Context(), cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode := output.Mode(cfg.Output)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the configuration loaded by the root command, or the
// defaults when a command runs without it (tests, embedded use).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Database: config.DatabaseConfig{
			Type: config.DefaultDatabaseType,
			Path: config.DefaultDatabasePath,
		},
		Chart: config.ChartConfig{
			Width:  config.DefaultWidth,
			Height: config.DefaultHeight,
			Format: config.DefaultFormat,
		},
		Preview:  config.PreviewConfig{Addr: config.DefaultPreviewAddr},
		Output:   config.DefaultOutput,
		LogLevel: config.DefaultLogLevel,
	}
}

func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	// Ensure the database directory exists for file databases
	if path := cfg.Database.Path; path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	engineCfg := cfg.EngineConfig()
	engineCfg.Logger = logger
	return engine.New(ctx, engineCfg)
}

// readSQL resolves the query text. Precedence: positional arguments, the
// --input file, then piped stdin. It returns an empty string when none is
// given and stdin is a terminal.
func readSQL(args []string, input string, stdin io.Reader) (string, error) {
	switch {
	case len(args) > 0:
		return strings.TrimSpace(strings.Join(args, " ")), nil
	case input != "":
		content, err := os.ReadFile(input) //nolint:gosec // path given on the command line
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	case stdin != nil && !output.IsTerminal(stdin):
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	default:
		return "", nil
	}
}
