// Package chart renders result tables into figures.
//
// Render maps a chart-type tag onto a plotting routine; RenderGrouped pivots
// the table by a grouping column first and draws stacked or clustered bars.
// Both return an explicit Figure handle instead of drawing on a shared
// surface.
package chart

import (
	"fmt"
	"image/color"
	"math"

	"github.com/leapstack-labs/sqlchart/pkg/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	blue     = color.RGBA{B: 255, A: 255}
	histFill = color.NRGBA{B: 255, A: 178}
	areaFill = color.NRGBA{B: 255, A: 77}
	boxFill  = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
)

// renderFunc draws columns x and y of a validated, non-empty table.
type renderFunc func(t *table.Table, x, y string, opts Options) (Figure, error)

var renderers = map[Kind]renderFunc{
	KindLine:    renderLine,
	KindBar:     renderBar,
	KindScatter: renderScatter,
	KindHist:    renderHist,
	KindBox:     renderBox,
	KindPie:     renderPie,
	KindArea:    renderArea,
	KindHeatmap: renderHeatmap,
	KindViolin:  renderViolin,
}

// Render draws column y against column x of t as the given kind of chart.
//
// The kind is checked first, then the columns; no drawing happens unless
// both are valid.
func Render(t *table.Table, x, y string, kind Kind, opts Options) (Figure, error) {
	render, ok := renderers[kind]
	if !ok {
		return nil, &UnsupportedChartTypeError{Kind: string(kind), Valid: KindNames()}
	}
	if err := t.Require(x, y); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, ErrNoData
	}
	return render(t, x, y, opts.withDefaults())
}

// newPlot creates a plot with the common title, labels and tick rotation.
func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Legend.Top = true
	return p
}

func defaultTitle(x, y string) string {
	return fmt.Sprintf("%s by %s", y, x)
}

// barWidth spreads n bars over most of the plot width.
func barWidth(opts Options, n int) vg.Length {
	if n < 1 {
		n = 1
	}
	w := vg.Length(opts.Width) * vg.Inch * 0.7 / vg.Length(n)
	if w > vg.Points(40) {
		w = vg.Points(40)
	}
	return w
}

func renderLine(t *table.Table, x, y string, opts Options) (Figure, error) {
	s, err := newXYSeries(t, x, y)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	line, points, err := plotter.NewLinePoints(s.XYs())
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %w", err)
	}
	line.Color = blue
	points.Shape = draw.CircleGlyph{}
	points.Color = blue
	s.applyX(p)
	p.Add(line, points)
	p.Legend.Add(y, line, points)

	return newPlotFigure(KindLine, p, opts), nil
}

func renderBar(t *table.Table, x, y string, opts Options) (Figure, error) {
	s, err := newXYSeries(t, x, y)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	bars, err := plotter.NewBarChart(plotter.Values(s.ys), barWidth(opts, s.Len()))
	if err != nil {
		return nil, fmt.Errorf("failed to create bars: %w", err)
	}
	bars.Color = blue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.Legend.Add(y, bars)
	p.NominalX(s.labels...)

	return newPlotFigure(KindBar, p, opts), nil
}

func renderScatter(t *table.Table, x, y string, opts Options) (Figure, error) {
	s, err := newXYSeries(t, x, y)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	sc, err := plotter.NewScatter(s.XYs())
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	sc.GlyphStyle.Color = blue
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(3)
	s.applyX(p)
	p.Add(sc)
	p.Legend.Add(y, sc)

	return newPlotFigure(KindScatter, p, opts), nil
}

func renderHist(t *table.Table, x, y string, opts Options) (Figure, error) {
	vals, err := columnValues(t, y)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	h, err := plotter.NewHist(vals, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram: %w", err)
	}
	h.FillColor = histFill
	p.Add(h)

	return newPlotFigure(KindHist, p, opts), nil
}

func renderBox(t *table.Table, x, y string, opts Options) (Figure, error) {
	vals, err := columnValues(t, y)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	box, err := plotter.NewBoxPlot(vg.Points(40), 0, vals)
	if err != nil {
		return nil, fmt.Errorf("failed to create box plot: %w", err)
	}
	box.Horizontal = true
	box.FillColor = boxFill
	p.Add(box)
	p.NominalY(y)

	return newPlotFigure(KindBox, p, opts), nil
}

func renderArea(t *table.Table, x, y string, opts Options) (Figure, error) {
	s, err := newXYSeries(t, x, y)
	if err != nil {
		return nil, err
	}
	if s.Len() == 0 {
		return nil, ErrNoData
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	area, err := plotter.NewLine(s.XYs())
	if err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}
	area.FillColor = areaFill
	area.Color = areaFill
	s.applyX(p)
	p.Add(area)
	p.Legend.Add(y, area)

	return newPlotFigure(KindArea, p, opts), nil
}
