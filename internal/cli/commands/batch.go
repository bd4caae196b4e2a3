package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/internal/manifest"
	"github.com/spf13/cobra"
)

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Render every chart of a YAML manifest",
		Long: `Render the charts listed in a YAML manifest, in order, with one database
connection. Rendering stops at the first failing chart.

  charts:
    - name: daily_sales
      sql: SELECT date, SUM(amount) AS sales FROM orders GROUP BY date
      x: date
      y: sales
      kind: line
    - name: by_region
      file: queries/by_region.sql
      group: region
      mode: clustered
      output: out/by_region.svg

Charts write to output, or <name>.png, relative to the manifest.`,
		Example: `  sqlchart batch charts.yaml
  sqlchart batch charts.yaml --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0])
		},
	}
	return cmd
}

func runBatch(cmd *cobra.Command, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	jsonMode := r.EffectiveMode() == output.ModeJSON
	if !jsonMode {
		r.Header(2, fmt.Sprintf("Rendering %d chart(s) from %s", len(m.Charts), path))
	}

	results := make([]output.ChartOutput, 0, len(m.Charts))
	for i := range m.Charts {
		c := &m.Charts[i]
		res, err := renderManifestChart(cmd, cmdCtx, m, c)
		if err != nil {
			if !jsonMode {
				r.StatusLine(chartLabel(c, i), output.StatusFailed, err.Error())
			}
			return fmt.Errorf("chart %s: %w", chartLabel(c, i), err)
		}
		results = append(results, res)
		if !jsonMode {
			r.StatusLine(chartLabel(c, i), output.StatusSuccess, res.Path)
		}
	}

	if jsonMode {
		return r.JSON(output.BatchOutput{Manifest: path, Charts: results})
	}
	r.Println("")
	r.Success(fmt.Sprintf("Rendered %d chart(s)", len(results)))
	return nil
}

func renderManifestChart(cmd *cobra.Command, cmdCtx *CommandContext, m *manifest.Manifest, c *manifest.Chart) (output.ChartOutput, error) {
	req, err := c.Request()
	if err != nil {
		return output.ChartOutput{}, err
	}

	fig, err := cmdCtx.Engine.Run(cmd.Context(), req)
	if err != nil {
		return output.ChartOutput{}, err
	}

	format, err := cmdCtx.Cfg.Format()
	if err != nil {
		return output.ChartOutput{}, err
	}
	path := c.OutputPath(m.Dir, format)
	if err := saveFigure(fig, path); err != nil {
		return output.ChartOutput{}, err
	}
	cmdCtx.Logger.Debug("chart saved", "name", c.Name, "path", path, "id", fig.ID())

	return output.ChartOutput{
		Name:   c.Name,
		ID:     fig.ID(),
		Kind:   string(fig.Kind()),
		Title:  fig.Title(),
		Path:   path,
		Format: string(formatOf(path)),
	}, nil
}

func chartLabel(c *manifest.Chart, i int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%d", i+1)
}
