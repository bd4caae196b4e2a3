package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manifest is a list of charts rendered together by the batch command.
//
//	charts:
//	  - name: daily_sales
//	    sql: SELECT date, SUM(amount) AS sales FROM orders GROUP BY date
//	    x: date
//	    y: sales
//	    kind: line
//	  - name: by_region
//	    file: queries/by_region.sql
//	    group: region
//	    mode: clustered
type Manifest struct {
	Charts []Chart `yaml:"charts"`

	// Dir is the directory of the manifest file; file and output paths
	// are relative to it.
	Dir string `yaml:"-"`
}

// Load reads a manifest, resolves every chart's SQL and validates the
// chart definitions. Charts that name a file take their query and any unset
// fields from it, frontmatter included.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // manifest path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m := &Manifest{Dir: filepath.Dir(path)}
	if err := decodeStrict(data, m); err != nil {
		return nil, withFile(err, path)
	}
	if len(m.Charts) == 0 {
		return nil, &ParseError{File: path, Message: "no charts defined"}
	}

	seen := make(map[string]bool, len(m.Charts))
	for i := range m.Charts {
		c := &m.Charts[i]
		if err := m.resolve(c); err != nil {
			return nil, &ParseError{File: path, Message: fmt.Sprintf("chart %d: %v", i+1, err)}
		}
		if _, err := c.Request(); err != nil {
			return nil, &ParseError{File: path, Message: fmt.Sprintf("chart %d (%s): %v", i+1, c.Name, err)}
		}
		if c.Name != "" {
			if seen[c.Name] {
				return nil, &ParseError{File: path, Message: fmt.Sprintf("duplicate chart name %q", c.Name)}
			}
			seen[c.Name] = true
		}
	}
	return m, nil
}

func (m *Manifest) resolve(c *Chart) error {
	switch {
	case c.SQL != "" && c.File != "":
		return fmt.Errorf("sql and file are mutually exclusive")
	case c.File == "":
		return nil
	}

	path := c.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.Dir, path)
	}
	fromFile, err := LoadSQLFile(path)
	if err != nil {
		return err
	}
	c.SQL = fromFile.SQL
	c.merge(fromFile)
	if c.Name == "" {
		c.Name = baseName(c.File)
	}
	return nil
}

// LoadSQLFile reads a SQL file and its optional frontmatter.
func LoadSQLFile(path string) (*Chart, error) {
	data, err := os.ReadFile(path) //nolint:gosec // SQL path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read SQL file: %w", err)
	}

	res, err := ExtractFrontmatter(string(data))
	if err != nil {
		return nil, withFile(err, path)
	}
	return res.Chart, nil
}

func withFile(err error, path string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.File == "" {
		pe.File = path
	}
	return err
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
