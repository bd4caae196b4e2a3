package table

import (
	"math"
	"sort"
	"time"
)

// PivotTable holds values summed per (index, series) cell.
type PivotTable struct {
	Index  []string
	Series []string
	// Values is indexed [series][index].
	Values [][]float64
}

// SeriesValues returns the values of the named series.
func (p *PivotTable) SeriesValues(name string) ([]float64, bool) {
	for i, s := range p.Series {
		if s == name {
			return p.Values[i], true
		}
	}
	return nil, false
}

// Total returns the sum over every series for each index entry.
func (p *PivotTable) Total() []float64 {
	totals := make([]float64, len(p.Index))
	for _, series := range p.Values {
		for i, v := range series {
			totals[i] += v
		}
	}
	return totals
}

// Pivot sums values per (index, columns) pair. Each distinct value of the
// columns column becomes one series; cells without rows are 0. NULL values
// are skipped. When columns is empty the result has a single series named
// after values.
func Pivot(t *Table, index, columns, values string) (*PivotTable, error) {
	required := []string{index, values}
	if columns != "" {
		required = append(required, columns)
	}
	if err := t.Require(required...); err != nil {
		return nil, err
	}

	idxCol, _ := t.Column(index)
	valCol, _ := t.Column(values)
	nums, err := valCol.Floats()
	if err != nil {
		return nil, err
	}

	idxKeys := newKeySet(idxCol)
	var serKeys *keySet
	if columns != "" {
		serCol, _ := t.Column(columns)
		serKeys = newKeySet(serCol)
	}

	type cell struct{ index, series string }
	sums := make(map[cell]float64)
	for row := 0; row < t.Len(); row++ {
		v := nums[row]
		if math.IsNaN(v) {
			continue
		}
		c := cell{index: idxKeys.label(row)}
		if serKeys != nil {
			c.series = serKeys.label(row)
		}
		sums[c] += v
	}

	p := &PivotTable{Index: idxKeys.sorted()}
	if serKeys != nil {
		p.Series = serKeys.sorted()
	} else {
		p.Series = []string{values}
	}

	p.Values = make([][]float64, len(p.Series))
	for si, s := range p.Series {
		p.Values[si] = make([]float64, len(p.Index))
		if serKeys == nil {
			s = ""
		}
		for ii, idx := range p.Index {
			p.Values[si][ii] = sums[cell{index: idx, series: s}]
		}
	}

	return p, nil
}

// keySet collects the distinct labels of a column and sorts them by the
// column's kind.
type keySet struct {
	col    *Column
	kind   Kind
	labels []string
	first  map[string]any
}

func newKeySet(col *Column) *keySet {
	ks := &keySet{
		col:    col,
		kind:   col.Kind(),
		labels: col.Labels(),
		first:  make(map[string]any),
	}
	for i, l := range ks.labels {
		if _, ok := ks.first[l]; !ok {
			ks.first[l] = col.Values[i]
		}
	}
	return ks
}

func (ks *keySet) label(row int) string {
	return ks.labels[row]
}

func (ks *keySet) sorted() []string {
	keys := make([]string, 0, len(ks.first))
	for k := range ks.first {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return ks.less(keys[i], keys[j])
	})
	return keys
}

func (ks *keySet) less(a, b string) bool {
	va, vb := ks.first[a], ks.first[b]
	// NULL sorts last.
	if va == nil || vb == nil {
		if va == nil && vb == nil {
			return a < b
		}
		return vb == nil
	}
	switch ks.kind {
	case KindNumeric:
		fa, _ := toFloat(va)
		fb, _ := toFloat(vb)
		if fa != fb {
			return fa < fb
		}
	case KindTemporal:
		ta, _ := va.(time.Time)
		tb, _ := vb.(time.Time)
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
	}
	return a < b
}
