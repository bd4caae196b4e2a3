package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/leapstack-labs/sqlchart/pkg/table"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// pieDPI converts figure inches into go-chart pixels.
const pieDPI = 100

// pieFigure wraps a go-chart pie chart. gonum/plot has no pie plotter.
type pieFigure struct {
	id    string
	chart gochart.PieChart
}

func (f *pieFigure) ID() string        { return f.id }
func (f *pieFigure) Title() string     { return f.chart.Title }
func (f *pieFigure) Kind() Kind        { return KindPie }
func (f *pieFigure) Formats() []Format { return []Format{FormatPNG, FormatSVG} }

func (f *pieFigure) Render(w io.Writer, format Format) error {
	var provider gochart.RendererProvider
	switch format {
	case FormatPNG:
		provider = gochart.PNG
	case FormatSVG:
		provider = gochart.SVG
	default:
		return &UnsupportedFormatError{Format: string(format), Supported: f.Formats()}
	}
	if err := f.chart.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render pie chart: %w", err)
	}
	return nil
}

func (f *pieFigure) Save(path string) error {
	return saveFigure(f, path)
}

// renderPie draws one wedge per row, sized by y and labelled by x with its
// share of the total.
func renderPie(t *table.Table, x, y string, opts Options) (Figure, error) {
	s, err := newXYSeries(t, x, y)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, v := range s.ys {
		if v < 0 {
			return nil, ErrNegativeValue
		}
		total += v
	}
	if s.Len() == 0 || total == 0 || math.IsInf(total, 0) {
		return nil, ErrNoData
	}

	values := make([]gochart.Value, 0, s.Len())
	for i, v := range s.ys {
		values = append(values, gochart.Value{
			Value: v,
			Label: fmt.Sprintf("%s (%.1f%%)", s.labels[i], v/total*100),
		})
	}

	return &pieFigure{
		id: uuid.NewString(),
		chart: gochart.PieChart{
			Title:  opts.title(defaultTitle(x, y)),
			Width:  int(opts.Width * pieDPI),
			Height: int(opts.Height * pieDPI),
			DPI:    pieDPI,
			Values: values,
		},
	}, nil
}
