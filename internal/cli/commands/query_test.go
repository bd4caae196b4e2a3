package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlchart/internal/cli/config"
	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/leapstack-labs/sqlchart/internal/testutil"
	"github.com/leapstack-labs/sqlchart/pkg/adapter"
	"github.com/leapstack-labs/sqlchart/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notesTable(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New([]string{"name", "note", "n"}, nil)
	require.NoError(t, tbl.AppendRow([]any{"a", "x, y", int64(1)}))
	require.NoError(t, tbl.AppendRow([]any{"b", nil, 2.5}))
	return tbl
}

func TestRenderResults(t *testing.T) {
	tests := []struct {
		format   string
		contains []string
	}{
		{FormatTable, []string{"x, y", "NULL", "2.5", "(2 rows)"}},
		{FormatCSV, []string{"name,note,n\n", "a,\"x, y\",1\n", "b,,2.5\n"}},
		{FormatMarkdown, []string{"| a | x, y | 1 |", "| b | NULL | 2.5 |"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, renderResults(buf, notesTable(t), tt.format))
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRenderResults_JSON(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, renderResults(buf, notesTable(t), FormatJSON))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "x, y", rows[0]["note"])
	assert.Equal(t, float64(1), rows[0]["n"])
	assert.Nil(t, rows[1]["note"])
}

func TestRenderResults_Empty(t *testing.T) {
	empty := table.New([]string{"a"}, nil)
	for _, format := range []string{FormatTable, FormatMarkdown} {
		buf := new(bytes.Buffer)
		require.NoError(t, renderResults(buf, empty, format))
		assert.Equal(t, "(0 rows)\n", buf.String(), format)
	}

	buf := new(bytes.Buffer)
	require.NoError(t, renderResults(buf, empty, FormatJSON))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderResults_UnknownFormat(t *testing.T) {
	err := renderResults(new(bytes.Buffer), notesTable(t), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestQueryCommand_DirectSQL(t *testing.T) {
	seededProject(t)

	out, err := execute(t, NewQueryCommand(), "SELECT region, SUM(sales) AS total FROM daily_sales GROUP BY region ORDER BY region", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "region,total\nnorth,29\nsouth,13\nwest,3\n", out)
}

func TestQueryCommand_InputFile(t *testing.T) {
	dir := seededProject(t)
	require.NoError(t, writeFile(filepath.Join(dir, "count.sql"), "SELECT COUNT(*) AS n FROM daily_sales"))

	out, err := execute(t, NewQueryCommand(), "-i", "count.sql", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"n": 6}]`, out)
}

func TestQueryCommand_Tables(t *testing.T) {
	seededProject(t)

	out, err := execute(t, NewQueryCommand(), "tables", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "name\ndaily_sales\n", out)
}

func TestQueryCommand_Schema(t *testing.T) {
	seededProject(t)

	out, err := execute(t, NewQueryCommand(), "schema", "daily_sales")
	require.NoError(t, err)
	assert.Contains(t, out, "Table: daily_sales")
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "INTEGER")

	_, err = execute(t, NewQueryCommand(), "schema", "nonexistent_table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestQueryCommand_NoSQLWithoutTerminal(t *testing.T) {
	seededProject(t)

	_, err := execute(t, NewQueryCommand())
	assert.ErrorIs(t, err, ErrNoSQL)
}

// memoryREPL returns a REPL session on an in-memory database holding the
// sales seed.
func memoryREPL(t *testing.T) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	csvPath := filepath.Join(dir, "daily_sales.csv")
	require.NoError(t, writeFile(csvPath, "date,region,sales\n2024-01-01,north,10\n2024-01-02,north,7\n"))

	ctx := context.Background()
	eng, err := engine.New(ctx, engine.Config{
		Database: adapter.Config{Type: "sqlite", Path: ":memory:"},
		Logger:   testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	require.NoError(t, eng.LoadCSV(ctx, "daily_sales", csvPath))

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	r := &repl{
		cmdCtx: &CommandContext{
			Cfg:    &config.Config{Chart: config.ChartConfig{Format: "svg"}},
			Engine: eng,
		},
		out:    out,
		errOut: errOut,
		format: FormatCSV,
	}
	return r, out, errOut
}

func TestREPL_MultiLineStatement(t *testing.T) {
	r, out, errOut := memoryREPL(t)
	ctx := context.Background()

	assert.False(t, r.handleLine(ctx, "SELECT date, sales"))
	assert.Empty(t, out.String(), "statement is incomplete until the semicolon")
	assert.False(t, r.handleLine(ctx, "FROM daily_sales ORDER BY date;"))

	assert.Equal(t, "date,sales\n2024-01-01,10\n2024-01-02,7\n\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Equal(t, "SELECT date, sales FROM daily_sales ORDER BY date", r.lastSQL)
}

func TestREPL_DotCommands(t *testing.T) {
	r, out, errOut := memoryREPL(t)
	ctx := context.Background()

	assert.False(t, r.handleLine(ctx, ".tables"))
	assert.Equal(t, "daily_sales\n", out.String())

	out.Reset()
	assert.False(t, r.handleLine(ctx, ".help"))
	assert.Contains(t, out.String(), ".plot <x> <y> <kind> [file]")

	assert.False(t, r.handleLine(ctx, ".bogus"))
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")

	assert.True(t, r.handleLine(ctx, ".quit"))
	assert.True(t, r.handleLine(ctx, ".exit"))
}

func TestREPL_Plot(t *testing.T) {
	r, out, errOut := memoryREPL(t)
	ctx := context.Background()

	r.handleLine(ctx, ".plot date sales line")
	assert.Contains(t, errOut.String(), "no query to plot yet")

	r.handleLine(ctx, "SELECT date, sales FROM daily_sales;")
	out.Reset()
	errOut.Reset()

	r.handleLine(ctx, ".plot date sales line")
	require.Empty(t, errOut.String())
	assert.Equal(t, "Wrote line chart to line.svg\n", out.String())
	assert.FileExists(t, "line.svg")

	r.handleLine(ctx, ".plot date sales bar bars.png")
	assert.FileExists(t, "bars.png")

	r.handleLine(ctx, ".plot date")
	assert.Contains(t, errOut.String(), "usage: .plot")
}

func TestREPL_QueryErrorKeepsSession(t *testing.T) {
	r, _, errOut := memoryREPL(t)

	assert.False(t, r.handleLine(context.Background(), "SELECT * FROM missing;"))
	assert.True(t, strings.HasPrefix(errOut.String(), "Error: error executing query"))
	assert.Empty(t, r.lastSQL)
}
