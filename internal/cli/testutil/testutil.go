// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlchart/internal/cli/output"
)

// SalesCSV is the seed data of the test project.
const SalesCSV = `date,region,sales
2024-01-01,north,10
2024-01-01,south,4
2024-01-02,north,7
2024-01-02,south,9
2024-01-03,north,12
2024-01-03,west,3
`

// SetupTestProject creates a temporary project directory holding:
//
//	sqlchart.yaml           database.path: sales.db
//	seeds/daily_sales.csv   SalesCSV
//	queries/by_region.sql   grouped bar chart with frontmatter
//	charts.yaml             manifest with a line chart and the grouped chart
//
// The database itself is not created.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		"sqlchart.yaml":         "database:\n  type: sqlite\n  path: sales.db\n",
		"seeds/daily_sales.csv": SalesCSV,
		"queries/by_region.sql": `/*---
x: date
y: sales
group: region
title: Sales by region
---*/
SELECT date, region, sales FROM daily_sales ORDER BY date`,
		"charts.yaml": `charts:
  - name: daily
    sql: SELECT date, SUM(sales) AS sales FROM daily_sales GROUP BY date ORDER BY date
    x: date
    y: sales
    kind: line
    output: out/daily.svg
  - file: queries/by_region.sql
    mode: clustered
    output: out/by_region.png
`,
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks that headers have content and table rows are
// well formed.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
		if strings.HasPrefix(trimmed, "|") && !strings.HasSuffix(trimmed, "|") {
			t.Errorf("unterminated table row at line %d: %q", i+1, line)
		}
	}
}
