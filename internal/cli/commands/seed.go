package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/spf13/cobra"
)

// SeedOptions holds options for the seed command.
type SeedOptions struct {
	Table string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	opts := &SeedOptions{}

	cmd := &cobra.Command{
		Use:   "seed <csv|dir>...",
		Short: "Load CSV files into the database",
		Long: `Load CSV files into the database, one table per file. Directories load
every .csv file they contain. Table names derive from the file name:
"daily-sales.csv" becomes daily_sales. Existing tables are replaced.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load every CSV in seeds/
  sqlchart seed seeds

  # Load one file under a chosen table name
  sqlchart seed exports/2024.csv --table sales

  # Load seeds as JSON
  sqlchart seed seeds --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "Table name (only with a single CSV file)")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string, opts *SeedOptions) error {
	files, err := collectSeedFiles(args, opts.Table)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	seeds := make([]output.SeedInfo, 0, len(files))
	for _, f := range files {
		if err := cmdCtx.Engine.LoadCSV(cmd.Context(), f.Table, f.FilePath); err != nil {
			if r.EffectiveMode() != output.ModeJSON {
				r.StatusLine(f.Table, output.StatusFailed, f.FilePath)
			}
			return err
		}
		seeds = append(seeds, f)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		for i := range seeds {
			if abs, err := filepath.Abs(seeds[i].FilePath); err == nil {
				seeds[i].FilePath = abs
			}
		}
		return r.JSON(output.SeedOutput{Database: cmdCtx.Cfg.Database.Path, Seeds: seeds})
	case output.ModeMarkdown:
		r.Header(1, "Seeds Loaded")
		for _, s := range seeds {
			r.StatusLine(s.Table, output.StatusSuccess, s.FilePath)
		}
		r.Println("")
		r.Println(output.FormatKeyValue("Database", cmdCtx.Cfg.Database.Path))
		r.Printf("**Total Seeds:** %d\n", len(seeds))
	default:
		r.Header(2, "Loaded Seeds")
		for _, s := range seeds {
			r.StatusLine(s.Table, output.StatusSuccess, s.FilePath)
		}
		r.Println("")
		r.Muted(fmt.Sprintf("%d table(s) written to %s", len(seeds), cmdCtx.Cfg.Database.Path))
	}
	return nil
}

// collectSeedFiles expands directories into their CSV files and assigns
// table names.
func collectSeedFiles(args []string, tableName string) ([]output.SeedInfo, error) {
	var files []output.SeedInfo
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, output.SeedInfo{Table: engine.TableNameFromPath(arg), FilePath: arg})
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read seeds directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
				continue
			}
			files = append(files, output.SeedInfo{
				Table:    engine.TableNameFromPath(entry.Name()),
				FilePath: filepath.Join(arg, entry.Name()),
			})
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", strings.Join(args, ", "))
	}
	if tableName != "" {
		if len(files) != 1 {
			return nil, fmt.Errorf("--table needs exactly one CSV file, got %d", len(files))
		}
		files[0].Table = tableName
	}
	return files, nil
}
