package chart

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/leapstack-labs/sqlchart/pkg/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg/draw"
)

// columnGrid is a single-column plotter.GridXYZ with one row per index
// entry of a pivot.
type columnGrid struct {
	values []float64
}

func (g columnGrid) Dims() (c, r int)   { return 1, len(g.values) }
func (g columnGrid) Z(_, r int) float64 { return g.values[r] }
func (g columnGrid) X(c int) float64    { return float64(c) }
func (g columnGrid) Y(r int) float64    { return float64(r) }

// bluesPalette runs from near white to dark blue.
type bluesPalette []color.Color

func (p bluesPalette) Colors() []color.Color { return p }

func newBluesPalette(n int) bluesPalette {
	light := color.NRGBA{R: 247, G: 251, B: 255, A: 255}
	dark := color.NRGBA{R: 8, G: 48, B: 107, A: 255}
	p := make(bluesPalette, n)
	for i := range p {
		f := float64(i) / float64(n-1)
		p[i] = color.NRGBA{
			R: lerp(light.R, dark.R, f),
			G: lerp(light.G, dark.G, f),
			B: lerp(light.B, dark.B, f),
			A: 255,
		}
	}
	return p
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

func renderHeatmap(t *table.Table, x, y string, opts Options) (Figure, error) {
	pivot, err := table.Pivot(t, x, "", y)
	if err != nil {
		return nil, err
	}
	if len(pivot.Index) == 0 {
		return nil, ErrNoData
	}
	values := pivot.Values[0]

	p := newPlot(opts.title(defaultTitle(x, y)), y, x)
	hm := plotter.NewHeatMap(columnGrid{values: values}, newBluesPalette(16))
	hm.Min, hm.Max = floats.Min(values), floats.Max(values)
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	// Annotate each cell with its sum.
	cells := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(values)),
		Labels: make([]string, len(values)),
	}
	for i, v := range values {
		cells.XYs[i] = plotter.XY{X: 0, Y: float64(i)}
		cells.Labels[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, fmt.Errorf("failed to create heatmap labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(labels)

	p.NominalX(y)
	p.NominalY(pivot.Index...)
	p.X.Tick.Label.Rotation = 0

	return newPlotFigure(KindHeatmap, p, opts), nil
}
