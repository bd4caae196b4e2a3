package chart

import (
	"image/color"
	"math"

	"github.com/leapstack-labs/sqlchart/pkg/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	violinPoints    = 100
	violinHalfWidth = 0.25
)

// violin draws a mirrored kernel density estimate of a sample centred on
// Loc, with a line across the mean.
type violin struct {
	Loc       float64
	FillColor color.Color
	draw.LineStyle

	// density holds (value, density) pairs; density is scaled to [0, 1].
	density  []densityPoint
	mean     float64
	min, max float64
}

type densityPoint struct {
	value   float64
	density float64
}

func newViolin(loc float64, values []float64) (*violin, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}

	v := &violin{
		Loc:       loc,
		FillColor: color.NRGBA{R: 31, G: 119, B: 180, A: 77},
		LineStyle: draw.LineStyle{Color: color.NRGBA{R: 31, G: 119, B: 180, A: 255}, Width: vg.Points(1)},
		mean:      stat.Mean(values, nil),
		min:       floats.Min(values),
		max:       floats.Max(values),
	}

	bw := scottBandwidth(values)
	lo, hi := v.min, v.max
	if lo == hi {
		lo, hi = lo-bw, hi+bw
	}

	v.density = make([]densityPoint, violinPoints)
	var peak float64
	for i := range v.density {
		at := lo + (hi-lo)*float64(i)/float64(violinPoints-1)
		d := gaussianKDE(values, at, bw)
		v.density[i] = densityPoint{value: at, density: d}
		peak = math.Max(peak, d)
	}
	if peak > 0 {
		for i := range v.density {
			v.density[i].density /= peak
		}
	}
	return v, nil
}

// scottBandwidth returns Scott's rule of thumb bandwidth, falling back to a
// unit-scaled width for constant samples.
func scottBandwidth(values []float64) float64 {
	n := float64(len(values))
	var sd float64
	if len(values) > 1 {
		sd = stat.StdDev(values, nil)
	}
	if sd == 0 || math.IsNaN(sd) {
		sd = math.Max(math.Abs(values[0])*0.1, 1)
	}
	return sd * math.Pow(n, -1.0/5)
}

func gaussianKDE(values []float64, at, bw float64) float64 {
	var sum float64
	for _, x := range values {
		z := (at - x) / bw
		sum += math.Exp(-0.5 * z * z)
	}
	return sum / (float64(len(values)) * bw * math.Sqrt(2*math.Pi))
}

// Plot implements plot.Plotter.
func (v *violin) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	outline := make([]vg.Point, 0, 2*len(v.density)+1)
	for _, d := range v.density {
		outline = append(outline, vg.Point{
			X: trX(v.Loc + d.density*violinHalfWidth),
			Y: trY(d.value),
		})
	}
	for i := len(v.density) - 1; i >= 0; i-- {
		d := v.density[i]
		outline = append(outline, vg.Point{
			X: trX(v.Loc - d.density*violinHalfWidth),
			Y: trY(d.value),
		})
	}
	outline = append(outline, outline[0])

	c.FillPolygon(v.FillColor, c.ClipPolygonXY(outline))
	c.StrokeLines(v.LineStyle, c.ClipLinesXY(outline)...)

	// Extremes and mean, as horizontal ticks.
	for _, at := range []float64{v.min, v.max, v.mean} {
		c.StrokeLine2(v.LineStyle,
			trX(v.Loc-violinHalfWidth/2), trY(at),
			trX(v.Loc+violinHalfWidth/2), trY(at))
	}
	c.StrokeLine2(v.LineStyle, trX(v.Loc), trY(v.min), trX(v.Loc), trY(v.max))
}

// DataRange implements plot.DataRanger.
func (v *violin) DataRange() (xmin, xmax, ymin, ymax float64) {
	ymin, ymax = v.density[0].value, v.density[len(v.density)-1].value
	return v.Loc - 2*violinHalfWidth, v.Loc + 2*violinHalfWidth, ymin, ymax
}

func renderViolin(t *table.Table, x, y string, opts Options) (Figure, error) {
	vals, err := columnValues(t, y)
	if err != nil {
		return nil, err
	}

	vio, err := newViolin(0, vals)
	if err != nil {
		return nil, err
	}

	p := newPlot(opts.title(defaultTitle(x, y)), x, y)
	p.Add(vio)
	p.NominalX(y)

	return newPlotFigure(KindViolin, p, opts), nil
}
