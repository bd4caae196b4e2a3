package chart

import (
	"math"

	"github.com/leapstack-labs/sqlchart/pkg/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// xySeries is the pair of columns prepared for plotting. Rows with a NULL
// x or y are dropped.
type xySeries struct {
	xs     []float64
	ys     []float64
	labels []string
	kind   table.Kind
}

func (s *xySeries) Len() int { return len(s.ys) }

func (s *xySeries) XYs() plotter.XYs {
	pts := make(plotter.XYs, len(s.ys))
	for i := range s.ys {
		pts[i].X = s.xs[i]
		pts[i].Y = s.ys[i]
	}
	return pts
}

// newXYSeries converts columns x and y of t. Numeric x is used as is,
// temporal x becomes Unix seconds and categorical x becomes positions
// 0..n-1 labelled with the original values.
func newXYSeries(t *table.Table, x, y string) (*xySeries, error) {
	xCol, _ := t.Column(x)
	yCol, _ := t.Column(y)

	ys, err := yCol.Floats()
	if err != nil {
		return nil, err
	}

	s := &xySeries{kind: xCol.Kind()}
	var xs []float64
	switch s.kind {
	case table.KindNumeric:
		if xs, err = xCol.Floats(); err != nil {
			return nil, err
		}
	case table.KindTemporal:
		times, _ := xCol.Times()
		xs = make([]float64, len(times))
		for i, ts := range times {
			if xCol.Values[i] == nil {
				xs[i] = math.NaN()
				continue
			}
			xs[i] = float64(ts.Unix())
		}
	default:
		xs = make([]float64, len(xCol.Values))
		for i, v := range xCol.Values {
			if v == nil {
				xs[i] = math.NaN()
			}
		}
	}

	labels := xCol.Labels()
	for i := range ys {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		s.xs = append(s.xs, xs[i])
		s.ys = append(s.ys, ys[i])
		s.labels = append(s.labels, labels[i])
	}

	if s.kind == table.KindCategorical {
		for i := range s.xs {
			s.xs[i] = float64(i)
		}
	}

	return s, nil
}

// applyX configures the x axis for the series kind.
func (s *xySeries) applyX(p *plot.Plot) {
	switch s.kind {
	case table.KindTemporal:
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	case table.KindCategorical:
		p.NominalX(s.labels...)
	}
}

// columnValues returns the non-NULL values of a column as floats.
func columnValues(t *table.Table, name string) (plotter.Values, error) {
	col, _ := t.Column(name)
	all, err := col.Floats()
	if err != nil {
		return nil, err
	}
	vals := make(plotter.Values, 0, len(all))
	for _, v := range all {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	return vals, nil
}
