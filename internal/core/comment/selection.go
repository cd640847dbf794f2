package comment

import "slices"

// Rect is a rectangle in screen coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Contains reports whether the point lies inside r. Right and Bottom are
// exclusive.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// Positions records where the active comment is anchored on screen. Dialog is
// nil for comments without a code reference.
type Positions struct {
	Trigger Rect
	Dialog  *Rect
}

// MultiSelector is the disambiguation overlay shown when a click resolves to
// several comments.
type MultiSelector struct {
	IDs []string
	X   int
	Y   int
}

func (p *Positions) clone() *Positions {
	if p == nil {
		return nil
	}
	out := *p
	if p.Dialog != nil {
		d := *p.Dialog
		out.Dialog = &d
	}
	return &out
}

func (m *MultiSelector) clone() *MultiSelector {
	if m == nil {
		return nil
	}
	out := *m
	out.IDs = slices.Clone(m.IDs)
	return &out
}
