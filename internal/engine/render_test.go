package engine

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/leapstack-labs/sqlchart/pkg/chart"
	"github.com/leapstack-labs/sqlchart/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlot_AllKinds(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for _, kind := range chart.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			fig, err := eng.Plot(ctx, salesSQL, "date", "sales", kind)
			require.NoError(t, err)
			assert.Equal(t, kind, fig.Kind())

			var buf bytes.Buffer
			require.NoError(t, fig.Render(&buf, chart.FormatPNG))
			assert.NotZero(t, buf.Len())
		})
	}
}

func TestPlot_FigureIDsAreUnique(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	a, err := eng.Plot(ctx, salesSQL, "date", "sales", chart.KindBar)
	require.NoError(t, err)
	b, err := eng.Plot(ctx, salesSQL, "date", "sales", chart.KindBar)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestPlot_MissingColumn(t *testing.T) {
	eng := newTestEngine(t)

	fig, err := eng.Plot(context.Background(), salesSQL, "date", "revenue", chart.KindLine)
	assert.Nil(t, fig)

	var schemaErr *table.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"revenue"}, schemaErr.Missing)
	assert.Equal(t, []string{"date", "region", "sales"}, schemaErr.Available)
	assert.Contains(t, err.Error(), `"revenue"`)
}

func TestPlot_UnsupportedKindSkipsQuery(t *testing.T) {
	eng, mock := newMockEngine(t)

	// No query expectation: an invalid tag must fail before touching the database.
	_, err := eng.Plot(context.Background(), "SELECT 1", "x", "y", chart.Kind("donut"))

	var typeErr *chart.UnsupportedChartTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "donut", typeErr.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlot_QueryError(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Plot(context.Background(), "SELECT * FROM missing", "x", "y", chart.KindBar)
	var queryErr *QueryError
	assert.ErrorAs(t, err, &queryErr)
}

func TestPlotGrouped_Stacked(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	fig, err := eng.PlotGrouped(ctx, salesSQL, "date", "sales", "region", chart.GroupStacked)
	require.NoError(t, err)
	assert.Equal(t, "Stacked Bar Chart of sales by date with region", fig.Title())

	// The stacked segments are the per-(date, region) sums.
	tbl, err := eng.Execute(ctx, salesSQL)
	require.NoError(t, err)
	pivot, err := table.Pivot(tbl, "date", "region", "sales")
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, pivot.Index)
	assert.Equal(t, []string{"north", "south", "west"}, pivot.Series)
	for region, want := range map[string][]float64{
		"north": {15, 7, 0},
		"south": {4, 9, 0},
		"west":  {0, 0, 3},
	} {
		got, ok := pivot.SeriesValues(region)
		require.True(t, ok, region)
		assert.Equal(t, want, got, region)
	}
}

func TestPlotGrouped_Errors(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.PlotGrouped(ctx, salesSQL, "date", "sales", "channel", chart.GroupClustered)
	var schemaErr *table.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"channel"}, schemaErr.Missing)

	_, err = eng.PlotGrouped(ctx, salesSQL, "date", "sales", "region", chart.GroupMode("overlay"))
	var modeErr *chart.UnsupportedGroupModeError
	assert.ErrorAs(t, err, &modeErr)
}

func TestRun(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		wantTitle string
		wantKind  chart.Kind
	}{
		{
			name:      "simple chart",
			req:       Request{SQL: salesSQL, X: "date", Y: "sales", Kind: chart.KindScatter},
			wantTitle: "sales by date",
			wantKind:  chart.KindScatter,
		},
		{
			name:      "grouped defaults to stacked",
			req:       Request{SQL: salesSQL, X: "date", Y: "sales", Group: "region"},
			wantTitle: "Stacked Bar Chart of sales by date with region",
			wantKind:  chart.KindBar,
		},
		{
			name:      "clustered",
			req:       Request{SQL: salesSQL, X: "date", Y: "sales", Group: "region", Mode: chart.GroupClustered},
			wantTitle: "Clustered Bar Chart of sales by date with region",
			wantKind:  chart.KindBar,
		},
		{
			name:      "title override",
			req:       Request{SQL: salesSQL, X: "region", Y: "sales", Kind: chart.KindPie, Title: "Share by region"},
			wantTitle: "Share by region",
			wantKind:  chart.KindPie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := eng.Run(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, fig.Title())
			assert.Equal(t, tt.wantKind, fig.Kind())
		})
	}
}

func TestRun_ChartOptions(t *testing.T) {
	eng := newTestEngine(t)
	req := Request{SQL: salesSQL, X: "date", Y: "sales", Kind: chart.KindLine}

	widthOf := func(t *testing.T) int {
		t.Helper()
		fig, err := eng.Run(context.Background(), req)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, fig.Render(&buf, chart.FormatPNG))
		cfg, err := png.DecodeConfig(&buf)
		require.NoError(t, err)
		return cfg.Width
	}

	eng.opts = chart.Options{Width: 4, Height: 3}
	small := widthOf(t)

	eng.opts = chart.Options{}
	big := widthOf(t)

	assert.Equal(t, 2*small, big, "default width is 8in")
}
