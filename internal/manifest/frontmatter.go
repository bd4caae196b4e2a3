package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatterPattern matches a leading /*--- ... ---*/ block.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Chart   *Chart
	SQL     string // SQL content after frontmatter
	HasYAML bool   // Whether frontmatter was found
}

// ExtractFrontmatter splits a SQL file into its chart frontmatter and the
// query. A file without frontmatter yields a Chart holding only the SQL.
// Frontmatter is a YAML block in a leading comment:
//
//	/*---
//	x: date
//	y: sales
//	kind: line
//	---*/
//	SELECT date, SUM(amount) AS sales FROM orders GROUP BY date
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Chart: &Chart{},
		SQL:   strings.TrimSpace(content),
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		result.Chart.SQL = result.SQL
		return result, nil
	}

	result.HasYAML = true
	result.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	if err := decodeStrict([]byte(matches[1]), result.Chart); err != nil {
		return nil, err
	}
	if result.Chart.SQL != "" || result.Chart.File != "" {
		return nil, &ParseError{Message: "frontmatter cannot set sql or file"}
	}
	result.Chart.SQL = result.SQL
	return result, nil
}

// decodeStrict decodes YAML into v, rejecting unknown fields.
func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return &ParseError{Message: strings.Join(typeErr.Errors, "; ")}
		}
		return &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return nil
}

// ParseError represents a manifest or frontmatter parsing error.
type ParseError struct {
	File    string
	Message string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
