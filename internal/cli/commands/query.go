package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/leapstack-labs/sqlchart/pkg/table"
	"github.com/spf13/cobra"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run SQL against the database and print the result",
		Long: `Run a SQL query against the configured database and print the result
table. Use it to check a query before charting it.

When invoked without SQL on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  sqlchart query "SELECT * FROM daily_sales LIMIT 5"

  # List available tables
  sqlchart query tables

  # Show the columns of a table
  sqlchart query schema daily_sales

  # Output as CSV
  sqlchart query "SELECT region, SUM(sales) FROM daily_sales GROUP BY region" --format csv

  # Interactive mode
  sqlchart query`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: "+strings.Join(ResultFormats, ", "))
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return ResultFormats, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	sqlQuery, err := readSQL(args, opts.Input, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if sqlQuery == "" {
		if !output.IsTerminal(cmd.InOrStdin()) {
			return ErrNoSQL
		}
		return runQueryREPL(cmd, cmdCtx, opts)
	}

	t, err := cmdCtx.Engine.Execute(cmd.Context(), sqlQuery)
	if err != nil {
		return err
	}
	return renderResults(cmd.OutOrStdout(), t, opts.Format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables and views in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return listTables(cmd, cmdCtx, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a table or view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return showSchema(cmd, cmdCtx, args[0], opts.Format)
		},
	}
}

func listTables(cmd *cobra.Command, cmdCtx *CommandContext, format string) error {
	names, err := cmdCtx.Engine.Tables(cmd.Context())
	if err != nil {
		return err
	}

	if format == FormatTable && cmdCtx.Renderer.EffectiveMode() == output.ModeJSON {
		return cmdCtx.Renderer.JSON(output.TablesOutput{Tables: names})
	}

	t := table.New([]string{"name"}, nil)
	for _, name := range names {
		if err := t.AppendRow([]any{name}); err != nil {
			return err
		}
	}
	return renderResults(cmd.OutOrStdout(), t, format)
}

// showSchema lists the columns of a relation with the types the driver
// reports for them.
func showSchema(cmd *cobra.Command, cmdCtx *CommandContext, name, format string) error {
	names, err := cmdCtx.Engine.Tables(cmd.Context())
	if err != nil {
		return err
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("table or view '%s' not found", name)
	}

	result, err := cmdCtx.Engine.Execute(cmd.Context(), "SELECT * FROM "+adapter.QuoteIdentifier(name)+" LIMIT 0")
	if err != nil {
		return err
	}

	schema := table.New([]string{"column", "type"}, nil)
	for _, colName := range result.Columns() {
		col, _ := result.Column(colName)
		if err := schema.AppendRow([]any{colName, col.DatabaseType}); err != nil {
			return err
		}
	}

	if format == FormatTable {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Table: %s\n", name)
	}
	return renderResults(cmd.OutOrStdout(), schema, format)
}
