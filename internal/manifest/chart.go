// Package manifest reads chart definitions from YAML manifests and from
// frontmatter blocks at the top of SQL files.
package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlchart/internal/engine"
	"github.com/leapstack-labs/sqlchart/pkg/chart"
)

// Chart is one chart definition. Exactly one of SQL and File is set in a
// manifest; File is resolved relative to the manifest.
type Chart struct {
	Name   string `yaml:"name"`
	SQL    string `yaml:"sql"`
	File   string `yaml:"file"`
	X      string `yaml:"x"`
	Y      string `yaml:"y"`
	Kind   string `yaml:"kind"`
	Group  string `yaml:"group"`
	Mode   string `yaml:"mode"`
	Title  string `yaml:"title"`
	Output string `yaml:"output"`
}

// Request validates the definition and converts it into an engine request.
// Kind defaults to bar for grouped charts.
func (c *Chart) Request() (engine.Request, error) {
	var missing []string
	if strings.TrimSpace(c.SQL) == "" {
		missing = append(missing, "sql")
	}
	if c.X == "" {
		missing = append(missing, "x")
	}
	if c.Y == "" {
		missing = append(missing, "y")
	}
	if c.Group == "" && c.Kind == "" {
		missing = append(missing, "kind")
	}
	if len(missing) > 0 {
		return engine.Request{}, fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}

	req := engine.Request{
		SQL:   c.SQL,
		X:     c.X,
		Y:     c.Y,
		Group: c.Group,
		Title: c.Title,
	}

	if c.Group != "" {
		if c.Kind != "" && !strings.EqualFold(c.Kind, string(chart.KindBar)) {
			return engine.Request{}, fmt.Errorf("grouped charts are bar charts, got kind %q", c.Kind)
		}
		req.Kind = chart.KindBar
		if c.Mode != "" {
			mode, err := chart.ParseGroupMode(c.Mode)
			if err != nil {
				return engine.Request{}, err
			}
			req.Mode = mode
		}
		return req, nil
	}

	if c.Mode != "" {
		return engine.Request{}, fmt.Errorf("mode %q requires a group column", c.Mode)
	}
	kind, err := chart.ParseKind(c.Kind)
	if err != nil {
		return engine.Request{}, err
	}
	req.Kind = kind
	return req, nil
}

// OutputPath returns where the chart is written: Output if set, otherwise
// <name>, or <kind> for unnamed charts. A path without an extension gets
// format. Relative paths resolve against dir.
func (c *Chart) OutputPath(dir string, format chart.Format) string {
	out := c.Output
	if out == "" {
		base := c.Name
		if base == "" {
			base = c.Kind
			if c.Group != "" {
				base = "bar"
			}
		}
		out = base
	}
	if filepath.Ext(out) == "" {
		out += "." + string(format)
	}
	if filepath.IsAbs(out) || dir == "" {
		return out
	}
	return filepath.Join(dir, out)
}

// merge fills empty fields of c from other.
func (c *Chart) merge(other *Chart) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&c.Name, other.Name)
	fill(&c.X, other.X)
	fill(&c.Y, other.Y)
	fill(&c.Kind, other.Kind)
	fill(&c.Group, other.Group)
	fill(&c.Mode, other.Mode)
	fill(&c.Title, other.Title)
	fill(&c.Output, other.Output)
}
