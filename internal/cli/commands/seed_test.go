package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlchart/internal/cli/output"
	"github.com/leapstack-labs/sqlchart/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCommand_Directory(t *testing.T) {
	dir := loadProject(t)

	out, err := execute(t, NewSeedCommand(), "seeds")
	require.NoError(t, err)

	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Seeds Loaded")
	assert.Contains(t, out, "- **daily_sales**: success (seeds/daily_sales.csv)")
	assert.Contains(t, out, "**Total Seeds:** 1")
	assert.FileExists(t, filepath.Join(dir, "sales.db"))

	out, err = execute(t, NewQueryCommand(), "SELECT COUNT(*) AS n FROM daily_sales", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "n\n6\n", out)
}

func TestSeedCommand_TableFlag(t *testing.T) {
	loadProject(t)

	_, err := execute(t, NewSeedCommand(), "seeds/daily_sales.csv", "--table", "sales")
	require.NoError(t, err)

	out, err := execute(t, NewQueryCommand(), "tables", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nsales\n", out)
}

func TestSeedCommand_JSON(t *testing.T) {
	t.Setenv("SQLCHART_OUTPUT", "json")
	dir := loadProject(t)

	out, err := execute(t, NewSeedCommand(), "seeds")
	require.NoError(t, err)

	var res output.SeedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, filepath.Join(dir, "sales.db"), res.Database)
	require.Len(t, res.Seeds, 1)
	assert.Equal(t, "daily_sales", res.Seeds[0].Table)
	assert.True(t, filepath.IsAbs(res.Seeds[0].FilePath))
}

func TestSeedCommand_Errors(t *testing.T) {
	dir := loadProject(t)
	require.NoError(t, writeFile(filepath.Join(dir, "seeds", "regions.csv"), "region\nnorth\n"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o750))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no args", nil, "requires at least 1 arg"},
		{"missing path", []string{"nope.csv"}, "failed to read seed path"},
		{"empty directory", []string{"empty"}, "no CSV files found in empty"},
		{"table with many files", []string{"seeds", "--table", "t"}, "--table needs exactly one CSV file, got 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewSeedCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCollectSeedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(filepath.Join(dir, "daily-sales.csv"), "a\n1\n"))
	require.NoError(t, writeFile(filepath.Join(dir, "Regions.CSV"), "a\n1\n"))
	require.NoError(t, writeFile(filepath.Join(dir, "notes.txt"), "skip"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.csv"), 0o750))

	files, err := collectSeedFiles([]string{dir}, "")
	require.NoError(t, err)
	assert.Equal(t, []output.SeedInfo{
		{Table: "Regions", FilePath: filepath.Join(dir, "Regions.CSV")},
		{Table: "daily_sales", FilePath: filepath.Join(dir, "daily-sales.csv")},
	}, files)

	files, err = collectSeedFiles([]string{filepath.Join(dir, "daily-sales.csv")}, "sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", files[0].Table)
}
