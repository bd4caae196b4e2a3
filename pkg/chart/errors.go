package chart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoData is returned when there are no plottable rows.
	ErrNoData = errors.New("query returned no plottable rows")

	// ErrNegativeValue is returned when a pie chart receives a negative value.
	ErrNegativeValue = errors.New("pie chart values must not be negative")
)

// UnsupportedChartTypeError is returned for a chart-type tag outside the
// supported set.
type UnsupportedChartTypeError struct {
	Kind  string
	Valid []string
}

func (e *UnsupportedChartTypeError) Error() string {
	return fmt.Sprintf("unsupported chart type %q\nChoose from: %s", e.Kind, strings.Join(e.Valid, ", "))
}

// UnsupportedGroupModeError is returned for an unknown grouped bar layout.
type UnsupportedGroupModeError struct {
	Mode  string
	Valid []string
}

func (e *UnsupportedGroupModeError) Error() string {
	return fmt.Sprintf("unsupported group mode %q\nChoose from: %s", e.Mode, strings.Join(e.Valid, ", "))
}

// UnsupportedFormatError is returned when a figure cannot be written in the
// requested image format.
type UnsupportedFormatError struct {
	Format    string
	Supported []Format
}

func (e *UnsupportedFormatError) Error() string {
	names := make([]string, len(e.Supported))
	for i, f := range e.Supported {
		names[i] = string(f)
	}
	return fmt.Sprintf("unsupported image format %q (supported: %s)", e.Format, strings.Join(names, ", "))
}
