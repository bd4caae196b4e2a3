package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV loads a CSV file into tableName, replacing any existing table.
func (e *Engine) LoadCSV(ctx context.Context, tableName, path string) error {
	if e.closed {
		return ErrClosed
	}
	e.logger.Debug("loading csv", "table", tableName, "path", path)

	if err := e.db.LoadCSV(ctx, tableName, path); err != nil {
		return fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadSeeds loads every CSV file in dir into a table named after the file.
// It returns the names of the loaded tables in directory order.
func (e *Engine) LoadSeeds(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds directory: %w", err)
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		tableName := TableNameFromPath(entry.Name())
		if err := e.LoadCSV(ctx, tableName, filepath.Join(dir, entry.Name())); err != nil {
			return loaded, err
		}
		loaded = append(loaded, tableName)
	}
	return loaded, nil
}

// TableNameFromPath derives a table name from a CSV file name:
// "data/daily-sales.csv" becomes "daily_sales".
func TableNameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
}
