package sqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlchart/pkg/adapter"
)

// Column affinities inferred from CSV data. DATE and TIMESTAMP are declared
// so the driver returns time.Time for them.
const (
	typeInteger   = "INTEGER"
	typeReal      = "REAL"
	typeDate      = "DATE"
	typeTimestamp = "TIMESTAMP"
	typeText      = "TEXT"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// LoadCSV loads a CSV file with a header row into tableName, replacing any
// existing table. Column types are inferred from the data; empty cells
// become NULL.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.DB == nil {
		return adapter.ErrNotConnected
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	headers, records, err := readCSV(absPath)
	if err != nil {
		return err
	}
	types := inferTypes(len(headers), records)

	a.Logger.Debug("loading csv",
		"table", tableName,
		"path", absPath,
		"rows", len(records),
		"types", strings.Join(types, ","))

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := adapter.QuoteIdentifier(tableName)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	colDefs := make([]string, len(headers))
	for i, h := range headers {
		colDefs[i] = adapter.QuoteIdentifier(h) + " " + types[i]
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(colDefs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(headers)), ", ")
	//nolint:gosec // identifiers are quoted
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", table, placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(headers))
	for n, rec := range records {
		for i := range args {
			args[i] = convertCell(rec[i], types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert CSV row %d: %w", n+2, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CSV load: %w", err)
	}
	return nil
}

func readCSV(path string) (headers []string, records [][]string, err error) {
	file, err := os.Open(path) //nolint:gosec // path is chosen by the caller
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	headers, err = reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("CSV file %s is empty", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	// The reader enforces that every record has len(headers) fields.
	records, err = reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	return headers, records, nil
}

// inferTypes picks the narrowest type that fits every non-empty cell of each
// column. A column with no values is TEXT.
func inferTypes(width int, records [][]string) []string {
	types := make([]string, width)
	for col := range types {
		types[col] = inferColumn(records, col)
	}
	return types
}

func inferColumn(records [][]string, col int) string {
	isInt, isReal, isDate, isTimestamp, seen := true, true, true, true, false
	for _, rec := range records {
		v := strings.TrimSpace(rec[col])
		if v == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isReal {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isReal = false
			}
		}
		if isDate {
			if _, err := time.Parse(time.DateOnly, v); err != nil {
				isDate = false
			}
		}
		if isTimestamp {
			isTimestamp = parseTimestamp(v)
		}
	}

	switch {
	case !seen:
		return typeText
	case isInt:
		return typeInteger
	case isReal:
		return typeReal
	case isDate:
		return typeDate
	case isTimestamp:
		return typeTimestamp
	default:
		return typeText
	}
}

func parseTimestamp(v string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func convertCell(v, typ string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	switch typ {
	case typeInteger:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case typeReal:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return v
	}
}
