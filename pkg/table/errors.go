package table

import (
	"fmt"
	"strings"
)

// SchemaError is returned when requested columns are absent from a table.
type SchemaError struct {
	Missing   []string
	Available []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, name := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	noun := "column"
	if len(e.Missing) > 1 {
		noun = "columns"
	}
	return fmt.Sprintf("%s %s not found in query result\nAvailable columns: %s",
		noun, strings.Join(quoted, ", "), strings.Join(e.Available, ", "))
}

// ValueError is returned when a value cannot be used as a number.
type ValueError struct {
	Column string
	Row    int
	Value  any
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("column %q row %d: value %v (%T) is not numeric", e.Column, e.Row, e.Value, e.Value)
}
