package engine

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqlchart/pkg/chart"
)

// Request describes one chart to render. Group selects a grouped bar chart,
// in which case Kind is ignored and Mode applies.
type Request struct {
	SQL   string
	X     string
	Y     string
	Group string
	Kind  chart.Kind
	Mode  chart.GroupMode
	// Title overrides the default chart title.
	Title string
}

// Grouped reports whether the request renders a grouped bar chart.
func (r Request) Grouped() bool {
	return r.Group != ""
}

// Plot runs sql and draws column y against column x as the given kind.
// The kind is validated before the query runs; the columns are validated
// against the result before anything is drawn.
func (e *Engine) Plot(ctx context.Context, sql, x, y string, kind chart.Kind) (chart.Figure, error) {
	return e.Run(ctx, Request{SQL: sql, X: x, Y: y, Kind: kind})
}

// PlotGrouped runs sql and draws stacked or clustered bars of y per x, one
// series per distinct value of group.
func (e *Engine) PlotGrouped(ctx context.Context, sql, x, y, group string, mode chart.GroupMode) (chart.Figure, error) {
	return e.Run(ctx, Request{SQL: sql, X: x, Y: y, Group: group, Mode: mode})
}

// Run renders a Request. An empty Mode on a grouped request means stacked.
func (e *Engine) Run(ctx context.Context, req Request) (chart.Figure, error) {
	opts := e.opts
	if req.Title != "" {
		opts.Title = req.Title
	}

	if req.Grouped() {
		mode := req.Mode
		if mode == "" {
			mode = chart.GroupStacked
		}
		if _, err := chart.ParseGroupMode(string(mode)); err != nil {
			return nil, err
		}

		t, err := e.Execute(ctx, req.SQL)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("rendering grouped chart", "x", req.X, "y", req.Y, "group", req.Group, "mode", mode)
		fig, err := chart.RenderGrouped(t, req.X, req.Y, req.Group, mode, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s bar chart: %w", mode, err)
		}
		return fig, nil
	}

	if !req.Kind.Valid() {
		return nil, &chart.UnsupportedChartTypeError{Kind: string(req.Kind), Valid: chart.KindNames()}
	}

	t, err := e.Execute(ctx, req.SQL)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("rendering chart", "x", req.X, "y", req.Y, "kind", req.Kind)
	fig, err := chart.Render(t, req.X, req.Y, req.Kind, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", req.Kind, err)
	}
	return fig, nil
}
