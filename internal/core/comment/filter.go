package comment

import "fmt"

// Filter selects which comment threads are displayed.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterOpen     Filter = "open"
	FilterResolved Filter = "resolved"
)

// Filters lists every filter in display order.
var Filters = []Filter{FilterOpen, FilterResolved, FilterAll}

// ParseFilter parses a filter name.
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.IsValid() {
		return "", fmt.Errorf("invalid filter %q (want one of open, resolved, all)", s)
	}
	return f, nil
}

// IsValid reports whether f is a known filter.
func (f Filter) IsValid() bool {
	switch f {
	case FilterAll, FilterOpen, FilterResolved:
		return true
	default:
		return false
	}
}

// Match reports whether c is visible under f.
func (f Filter) Match(c *Comment) bool {
	switch f {
	case FilterOpen:
		return !c.IsResolved
	case FilterResolved:
		return c.IsResolved
	default:
		return true
	}
}

// Next returns the filter following f in display order.
func (f Filter) Next() Filter {
	for i, cur := range Filters {
		if cur == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterOpen
}
