package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlchart/internal/cli/config"
	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/leapstack-labs/sqlchart/internal/manifest"
	"github.com/leapstack-labs/sqlchart/internal/preview"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/spf13/cobra"
)

// serveConfiguredAddr is the value of a bare --serve; it selects preview.addr.
const serveConfiguredAddr = "config"

// ErrNoSQL is returned when a chart command gets no query.
var ErrNoSQL = errors.New("no SQL given: pass it as an argument, with --input, or on stdin")

// chartFlags holds the flags shared by plot and bars.
type chartFlags struct {
	X      string
	Y      string
	Kind   string
	Group  string
	Mode   string
	Title  string
	Output string
	Format string
	Width  float64
	Height float64
	Serve  string
	Input  string
	Watch  bool
}

func (f *chartFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.X, "x", "", "Column for the x-axis")
	flags.StringVar(&f.Y, "y", "", "Column for the y-axis")
	flags.StringVar(&f.Title, "title", "", "Chart title (default derived from the columns)")
	flags.StringVarP(&f.Output, "out", "o", "", "Output file (default <kind>.<format> in the working directory)")
	flags.StringVar(&f.Format, "format", config.DefaultFormat, "Image format: png, svg, pdf, jpg")
	flags.Float64Var(&f.Width, "width", config.DefaultWidth, "Figure width in inches")
	flags.Float64Var(&f.Height, "height", config.DefaultHeight, "Figure height in inches")
	flags.StringVar(&f.Serve, "serve", "", "Serve the chart over HTTP at this address instead of writing a file")
	flags.StringVarP(&f.Input, "input", "i", "", "Read SQL, and optional frontmatter, from a file")
	flags.BoolVar(&f.Watch, "watch", false, "Re-render when the --input file changes (requires --serve)")
	flags.Lookup("serve").NoOptDefVal = serveConfiguredAddr

	config.BindFlag(flags, "format", "chart.format")
	config.BindFlag(flags, "width", "chart.width")
	config.BindFlag(flags, "height", "chart.height")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"png", "svg", "pdf", "jpg"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// definition merges the --input file, positional SQL, stdin and flags into
// a chart definition. Flags win over frontmatter.
func (f *chartFlags) definition(cmd *cobra.Command, args []string) (*manifest.Chart, error) {
	def := &manifest.Chart{}
	if f.Input != "" {
		fromFile, err := manifest.LoadSQLFile(f.Input)
		if err != nil {
			return nil, err
		}
		def = fromFile
	}

	if len(args) > 0 || f.Input == "" {
		sql, err := readSQL(args, "", cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		if sql != "" {
			def.SQL = sql
		}
	}
	if strings.TrimSpace(def.SQL) == "" {
		return nil, ErrNoSQL
	}

	set := func(dst *string, flagVal string) {
		if flagVal != "" {
			*dst = flagVal
		}
	}
	set(&def.X, f.X)
	set(&def.Y, f.Y)
	set(&def.Kind, f.Kind)
	set(&def.Group, f.Group)
	set(&def.Mode, f.Mode)
	set(&def.Title, f.Title)
	set(&def.Output, f.Output)
	return def, nil
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	f := &chartFlags{}

	cmd := &cobra.Command{
		Use:   "plot [SQL]",
		Short: "Render a chart from a SQL query",
		Long: `Run a SQL query against the configured database and render one
column against another as a chart.

Chart kinds: ` + strings.Join(chart.KindNames(), ", ") + `

The query comes from the positional arguments, the --input file or piped
stdin, in that order. An --input file may start with a frontmatter block
setting x, y, kind and title:

  /*---
  x: date
  y: sales
  kind: line
  ---*/
  SELECT date, SUM(amount) AS sales FROM orders GROUP BY date`,
		Example: `  # Line chart written to line.png
  sqlchart plot "SELECT date, sales FROM daily_sales" --x date --y sales --kind line

  # SVG with a custom size
  sqlchart plot "SELECT region, sales FROM totals" --x region --y sales --kind pie -o share.svg --width 6 --height 6

  # Serve the chart and re-render on every save
  sqlchart plot -i queries/sales.sql --serve :8080 --watch`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd, args, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.Kind, "kind", "k", "", "Chart kind: "+strings.Join(chart.KindNames(), ", "))
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return chart.KindNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runChart(cmd *cobra.Command, args []string, f *chartFlags) error {
	if f.Watch && (f.Serve == "" || f.Input == "") {
		return fmt.Errorf("--watch requires --input and --serve")
	}

	def, err := f.definition(cmd, args)
	if err != nil {
		return err
	}
	req, err := def.Request()
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if f.Serve != "" {
		return serveChart(cmd, args, f, cmdCtx, req)
	}

	fig, err := cmdCtx.Engine.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	path, err := outputPath(def, req, cmdCtx.Cfg)
	if err != nil {
		return err
	}
	if err := saveFigure(fig, path); err != nil {
		return err
	}
	cmdCtx.Logger.Debug("chart saved", "path", path, "id", fig.ID())

	return reportChart(cmdCtx.Renderer, def.Name, fig, path)
}

// outputPath picks the file a chart is written to. A path without an
// extension gets the configured format's.
func outputPath(def *manifest.Chart, req engine.Request, cfg *config.Config) (string, error) {
	format, err := cfg.Format()
	if err != nil {
		return "", err
	}

	path := def.Output
	if path == "" {
		path = string(req.Kind)
	}
	if filepath.Ext(path) == "" {
		path += "." + string(format)
	}
	return path, nil
}

// saveFigure writes fig to path, creating the parent directory.
func saveFigure(fig chart.Figure, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return fig.Save(path)
}

func formatOf(path string) chart.Format {
	format, _ := chart.FormatFromPath(path)
	return format
}

func reportChart(r *output.Renderer, name string, fig chart.Figure, path string) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.ChartOutput{
			Name:   name,
			ID:     fig.ID(),
			Kind:   string(fig.Kind()),
			Title:  fig.Title(),
			Path:   path,
			Format: string(formatOf(path)),
		})
	}
	r.Success(fmt.Sprintf("Wrote %s chart %q to %s", fig.Kind(), fig.Title(), path))
	return nil
}

func serveChart(cmd *cobra.Command, args []string, f *chartFlags, cmdCtx *CommandContext, req engine.Request) error {
	addr := f.Serve
	if addr == serveConfiguredAddr {
		addr = cmdCtx.Cfg.Preview.Addr
	}

	render := func(ctx context.Context) (chart.Figure, error) {
		if !f.Watch {
			return cmdCtx.Engine.Run(ctx, req)
		}
		// Re-read the file so edits to the query and its frontmatter apply.
		def, err := f.definition(cmd, args)
		if err != nil {
			return nil, err
		}
		current, err := def.Request()
		if err != nil {
			return nil, err
		}
		return cmdCtx.Engine.Run(ctx, current)
	}

	srvCfg := preview.Config{
		Addr:   addr,
		Render: render,
		Logger: cmdCtx.Logger,
	}
	if f.Watch {
		srvCfg.WatchPath = f.Input
	}
	srv := preview.New(srvCfg)

	if err := srv.Refresh(cmd.Context()); err != nil {
		return err
	}
	cmdCtx.Renderer.Success(fmt.Sprintf("Serving chart at http://%s (Ctrl-C to stop)", displayAddr(addr)))
	return srv.Serve(cmd.Context())
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
