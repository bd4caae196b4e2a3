// Package table provides the in-memory result table produced by a query.
//
// A Table is an ordered collection of named columns whose schema is only
// known once the query has run. It is created per request and never cached.
package table

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Table is the materialized result of a SQL query.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates an empty table with the given column names.
// types may be nil or shorter than names; missing types are left empty.
func New(names []string, types []string) *Table {
	t := &Table{
		columns: make([]*Column, len(names)),
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		col := &Column{Name: name}
		if i < len(types) {
			col.DatabaseType = types[i]
		}
		t.columns[i] = col
		// First occurrence wins for duplicate names (e.g. SELECT a.id, b.id).
		if _, ok := t.index[name]; !ok {
			t.index[name] = i
		}
	}
	return t
}

// FromRows scans every row of rows into a new Table.
// The caller keeps ownership of rows and must close it.
func FromRows(rows *sql.Rows) (*Table, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var types []string
	if colTypes, err := rows.ColumnTypes(); err == nil {
		types = make([]string, len(colTypes))
		for i, ct := range colTypes {
			types[i] = ct.DatabaseTypeName()
		}
	}

	t := New(names, types)
	for rows.Next() {
		values := make([]any, len(names))
		valuePtrs := make([]any, len(names))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", t.rows, err)
		}
		if err := t.AppendRow(values); err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return t, nil
}

// AppendRow adds a row. The number of values must match the number of columns.
func (t *Table) AppendRow(values []any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	for i, v := range values {
		// Drivers reuse byte slices between scans.
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		t.columns[i].Values = append(t.columns[i].Values, v)
	}
	t.rows++
	return nil
}

// Columns returns the column names in query order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Require checks that every named column exists.
// It returns a *SchemaError listing the missing names, or nil.
func (t *Table) Require(names ...string) error {
	var missing []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if !t.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Missing: missing, Available: t.Columns()}
}

// Equal reports whether both tables have the same columns and row values.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.rows != other.rows || len(t.columns) != len(other.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := other.columns[i]
		if c.Name != oc.Name || !reflect.DeepEqual(c.Values, oc.Values) {
			return false
		}
	}
	return true
}
