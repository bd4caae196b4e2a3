package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/spf13/cobra"
)

// NewBarsCommand creates the bars command for grouped bar charts.
func NewBarsCommand() *cobra.Command {
	f := &chartFlags{}

	cmd := &cobra.Command{
		Use:   "bars [SQL]",
		Short: "Render a grouped bar chart",
		Long: `Run a SQL query and render a bar chart with one bar segment per value
of the group column. The y values are summed per (x, group) pair.

Modes:
  stacked    segments stacked on top of each other (default)
  clustered  segments side by side`,
		Example: `  sqlchart bars "SELECT date, region, sales FROM daily_sales" --x date --y sales --group region
  sqlchart bars -i by_region.sql --mode clustered -o by_region.svg`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Input == "" && f.Group == "" {
				return fmt.Errorf("bars requires --group")
			}
			return runChart(cmd, args, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.Group, "group", "g", "", "Column whose values become the bar segments")
	cmd.Flags().StringVarP(&f.Mode, "mode", "m", "", "Grouping mode: "+strings.Join(chart.GroupModeNames(), ", ")+" (default stacked)")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return chart.GroupModeNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
