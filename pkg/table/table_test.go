package table

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesTable(t *testing.T) *Table {
	t.Helper()
	tbl := New([]string{"date", "region", "sales"}, nil)
	rows := [][]any{
		{"2024-01-02", "north", int64(10)},
		{"2024-01-01", "south", int64(5)},
		{"2024-01-01", "north", int64(7)},
		{"2024-01-02", "north", int64(3)},
		{"2024-01-02", "west", 2.5},
	}
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r))
	}
	return tbl
}

func TestTable_Basics(t *testing.T) {
	tbl := salesTable(t)

	assert.Equal(t, []string{"date", "region", "sales"}, tbl.Columns())
	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, 3, tbl.Width())
	assert.Equal(t, []any{"2024-01-01", "south", int64(5)}, tbl.Row(1))

	col, ok := tbl.Column("region")
	require.True(t, ok)
	assert.Equal(t, "region", col.Name)

	_, ok = tbl.Column("revenue")
	assert.False(t, ok)
}

func TestTable_AppendRowArity(t *testing.T) {
	tbl := New([]string{"a", "b"}, nil)
	err := tbl.AppendRow([]any{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row has 1 values")
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_AppendRowConvertsBytes(t *testing.T) {
	tbl := New([]string{"name"}, nil)
	require.NoError(t, tbl.AppendRow([]any{[]byte("alice")}))
	assert.Equal(t, []any{"alice"}, tbl.Row(0))
}

func TestTable_Require(t *testing.T) {
	tbl := salesTable(t)

	tests := []struct {
		name    string
		cols    []string
		missing []string
	}{
		{name: "all present", cols: []string{"date", "sales"}},
		{name: "no columns", cols: nil},
		{name: "one missing", cols: []string{"date", "revenue"}, missing: []string{"revenue"}},
		{name: "several missing", cols: []string{"profit", "date", "revenue"}, missing: []string{"profit", "revenue"}},
		{name: "duplicates reported once", cols: []string{"revenue", "revenue"}, missing: []string{"revenue"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tbl.Require(tt.cols...)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.missing, schemaErr.Missing)
			assert.Equal(t, tbl.Columns(), schemaErr.Available)
			for _, m := range tt.missing {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestTable_Equal(t *testing.T) {
	a := salesTable(t)
	b := salesTable(t)
	assert.True(t, a.Equal(b))

	require.NoError(t, b.AppendRow([]any{"2024-01-03", "east", int64(1)}))
	assert.False(t, a.Equal(b))

	c := New([]string{"date", "region", "amount"}, nil)
	assert.False(t, a.Equal(c))
}

func TestFromRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"name", "total"}).
			AddRow([]byte("alice"), 12.5).
			AddRow("bob", nil),
	)

	rows, err := db.QueryContext(context.Background(), "SELECT name, total FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	tbl, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "total"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []any{"alice", 12.5}, tbl.Row(0))
	assert.Equal(t, []any{"bob", nil}, tbl.Row(1))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFromRows_IterationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).
			AddRow(1).
			AddRow(2).
			RowError(1, sql.ErrConnDone),
	)

	rows, err := db.QueryContext(context.Background(), "SELECT id FROM t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	_, err = FromRows(rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrConnDone))
}

func TestColumn_Kind(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		values []any
		want   Kind
	}{
		{name: "ints", values: []any{int64(1), int64(2)}, want: KindNumeric},
		{name: "mixed numbers and null", values: []any{1.5, nil, int32(3)}, want: KindNumeric},
		{name: "numeric strings", values: []any{"1", " 2.5 "}, want: KindNumeric},
		{name: "bools", values: []any{true, false}, want: KindNumeric},
		{name: "times", values: []any{day, nil, day.AddDate(0, 0, 1)}, want: KindTemporal},
		{name: "strings", values: []any{"north", "south"}, want: KindCategorical},
		{name: "mixed", values: []any{int64(1), "south"}, want: KindCategorical},
		{name: "all null", values: []any{nil, nil}, want: KindCategorical},
		{name: "empty", values: nil, want: KindCategorical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Column{Name: "c", Values: tt.values}
			assert.Equal(t, tt.want, c.Kind())
		})
	}
}

func TestColumn_Floats(t *testing.T) {
	c := &Column{Name: "sales", Values: []any{int64(3), nil, "4.5", true}}
	got, err := c.Floats()
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 3.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 4.5, got[2])
	assert.Equal(t, 1.0, got[3])

	bad := &Column{Name: "region", Values: []any{int64(1), "north"}}
	_, err = bad.Floats()
	var valueErr *ValueError
	require.ErrorAs(t, err, &valueErr)
	assert.Equal(t, "region", valueErr.Column)
	assert.Equal(t, 1, valueErr.Row)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{int64(42), "42"},
		{2.50, "2.5"},
		{"north", "north"},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01"},
		{time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), "2024-03-01T10:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.in))
		})
	}
}
