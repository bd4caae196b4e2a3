package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind classifies the values held by a column.
type Kind int

// Column kinds.
const (
	KindCategorical Kind = iota
	KindNumeric
	KindTemporal
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTemporal:
		return "temporal"
	default:
		return "categorical"
	}
}

// Column is a named, ordered list of values. nil marks SQL NULL.
type Column struct {
	Name         string
	DatabaseType string
	Values       []any
}

// Kind inspects the non-NULL values of the column.
// An all-NULL column is categorical.
func (c *Column) Kind() Kind {
	numeric, temporal, seen := true, true, false
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		seen = true
		if _, ok := v.(time.Time); !ok {
			temporal = false
		}
		if _, ok := toFloat(v); !ok {
			numeric = false
		}
		if !numeric && !temporal {
			return KindCategorical
		}
	}
	switch {
	case !seen:
		return KindCategorical
	case temporal:
		return KindTemporal
	case numeric:
		return KindNumeric
	default:
		return KindCategorical
	}
}

// Floats returns the column as float64 values. NULL becomes NaN.
func (c *Column) Floats() ([]float64, error) {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, &ValueError{Column: c.Name, Row: i, Value: v}
		}
		out[i] = f
	}
	return out, nil
}

// Times returns the column as timestamps. It reports false if any
// non-NULL value is not a time.Time. NULL becomes the zero time.
func (c *Column) Times() ([]time.Time, bool) {
	out := make([]time.Time, len(c.Values))
	for i, v := range c.Values {
		if v == nil {
			continue
		}
		ts, ok := v.(time.Time)
		if !ok {
			return nil, false
		}
		out[i] = ts
	}
	return out, true
}

// Labels returns display strings for every value.
func (c *Column) Labels() []string {
	out := make([]string, len(c.Values))
	for i, v := range c.Values {
		out[i] = FormatValue(v)
	}
	return out
}

// FormatValue renders a cell value for labels and terminal output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
