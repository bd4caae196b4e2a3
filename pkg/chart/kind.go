package chart

import "strings"

// Kind is the chart-type tag selecting a rendering routine.
type Kind string

// Supported chart kinds.
const (
	KindLine    Kind = "line"
	KindBar     Kind = "bar"
	KindScatter Kind = "scatter"
	KindHist    Kind = "hist"
	KindBox     Kind = "box"
	KindPie     Kind = "pie"
	KindArea    Kind = "area"
	KindHeatmap Kind = "heatmap"
	KindViolin  Kind = "violin"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{
		KindLine, KindBar, KindScatter, KindHist, KindBox,
		KindPie, KindArea, KindHeatmap, KindViolin,
	}
}

// KindNames returns the supported kinds as strings, e.g. for flag completion.
func KindNames() []string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// ParseKind converts a tag into a Kind. Matching ignores case and
// surrounding whitespace.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &UnsupportedChartTypeError{Kind: s, Valid: KindNames()}
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := renderers[k]
	return ok
}

// GroupMode selects how the series of a grouped bar chart are laid out.
type GroupMode string

// Grouped bar layouts.
const (
	GroupStacked   GroupMode = "stacked"
	GroupClustered GroupMode = "clustered"
)

// GroupModeNames returns the supported group modes.
func GroupModeNames() []string {
	return []string{string(GroupStacked), string(GroupClustered)}
}

// ParseGroupMode converts a string into a GroupMode.
func ParseGroupMode(s string) (GroupMode, error) {
	switch m := GroupMode(strings.ToLower(strings.TrimSpace(s))); m {
	case GroupStacked, GroupClustered:
		return m, nil
	default:
		return "", &UnsupportedGroupModeError{Mode: s, Valid: GroupModeNames()}
	}
}
