package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sqlchart/pkg/table"
)

// Result formats accepted by query --format.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// ResultFormats lists the query output formats.
var ResultFormats = []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

func renderResults(w io.Writer, t *table.Table, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, t)
	case FormatCSV:
		return renderCSV(w, t)
	case FormatMarkdown, "markdown":
		renderMarkdown(w, t)
		return nil
	case FormatTable, "":
		renderTable(w, t)
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected table, json, csv or md)", format)
	}
}

func newWriter(w io.Writer, t *table.Table) prettytable.Writer {
	tw := prettytable.NewWriter()
	tw.SetOutputMirror(w)

	header := make(prettytable.Row, t.Width())
	for i, col := range t.Columns() {
		header[i] = col
	}
	tw.AppendHeader(header)

	for i := 0; i < t.Len(); i++ {
		values := t.Row(i)
		row := make(prettytable.Row, len(values))
		for j, v := range values {
			row[j] = table.FormatValue(v)
		}
		tw.AppendRow(row)
	}
	return tw
}

func renderTable(w io.Writer, t *table.Table) {
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	tw := newWriter(w, t)
	tw.SetStyle(prettytable.StyleLight)
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.Len())
}

// renderCSV writes RFC 4180 CSV. NULL becomes an empty field.
func renderCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	record := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j, v := range t.Row(i) {
			record[j] = ""
			if v != nil {
				record[j] = table.FormatValue(v)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, t *table.Table) {
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}
	newWriter(w, t).RenderMarkdown()
}

// renderJSON writes the rows as an array of objects keyed by column name.
// Values keep their JSON types; NULL becomes null.
func renderJSON(w io.Writer, t *table.Table) error {
	cols := t.Columns()
	results := make([]map[string]any, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := make(map[string]any, len(cols))
		for j, v := range t.Row(i) {
			row[cols[j]] = v
		}
		results = append(results, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
