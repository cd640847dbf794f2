package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/styles"
	"github.com/colonyops/remarks/internal/editor"
	"github.com/colonyops/remarks/internal/remarks"
)

// markerWidth is the marker cell plus its separating space.
const markerWidth = 2

// anchor is a thread attached to a range of the open file.
type anchor struct {
	id       string
	start    int
	end      int
	resolved bool
}

// covers reports whether the rune offset falls inside the anchor. Empty
// ranges cover only their own offset.
func (a anchor) covers(offset int) bool {
	if a.start == a.end {
		return offset == a.start
	}
	return offset >= a.start && offset < a.end
}

// anchorsFor lists the threads anchored to path, in thread order.
func anchorsFor(threads []*comment.Comment, path string) []anchor {
	var out []anchor
	for _, c := range threads {
		ref, ok := c.CodeReference()
		if !ok || ref.Metadata.Path != path {
			continue
		}
		out = append(out, anchor{
			id:       c.ID,
			start:    ref.Metadata.Start(),
			end:      ref.Metadata.End(),
			resolved: c.IsResolved,
		})
	}
	return out
}

// idsAt returns the ids of anchors covering offset.
func idsAt(anchors []anchor, offset int) []string {
	var ids []string
	for _, a := range anchors {
		if a.covers(offset) {
			ids = append(ids, a.id)
		}
	}
	return ids
}

// marker summarizes the threads starting on one line.
type marker struct {
	ids      []string
	resolved bool
}

// markersByLine groups anchors by the line their range starts on.
func markersByLine(code string, anchors []anchor) map[int]*marker {
	out := make(map[int]*marker)
	for _, a := range anchors {
		line := editor.PositionAt(code, a.start).Line
		m, ok := out[line]
		if !ok {
			m = &marker{resolved: true}
			out[line] = m
		}
		m.ids = append(m.ids, a.id)
		m.resolved = m.resolved && a.resolved
	}
	return out
}

// codeView renders the open file with a gutter of thread markers.
type codeView struct {
	code      string
	width     int
	height    int
	scroll    int
	cursor    int
	selection *remarks.TextRange
	active    *anchor
	activeID  string
	markers   map[int]*marker
}

// numberWidth is the width of the line number column.
func numberWidth(code string) int {
	return len(fmt.Sprint(len(editor.Lines(code))))
}

// gutterWidth is the number of cells left of the code text.
func gutterWidth(code string) int {
	return markerWidth + numberWidth(code) + 1
}

func (v codeView) render() string {
	lines := editor.Lines(v.code)
	numW := numberWidth(v.code)
	textW := max(v.width-gutterWidth(v.code), 0)

	lineStart := 0
	for i := range min(v.scroll, len(lines)) {
		lineStart += len([]rune(lines[i])) + 1
	}

	out := make([]string, 0, v.height)
	for row := range v.height {
		idx := v.scroll + row
		if idx >= len(lines) {
			out = append(out, "")
			continue
		}

		number := styles.LineNumberStyle.Render(fmt.Sprintf("%*d", numW, idx+1))
		text := v.renderText(lines[idx], lineStart, textW)
		out = append(out, v.renderMarker(idx)+" "+number+" "+text)
		lineStart += len([]rune(lines[idx])) + 1
	}
	return strings.Join(out, "\n")
}

func (v codeView) renderMarker(line int) string {
	m, ok := v.markers[line]
	if !ok {
		return " "
	}

	icon := styles.IconComment
	if len(m.ids) > 1 {
		icon = styles.IconMany
	}

	switch {
	case v.activeID != "" && slices.Contains(m.ids, v.activeID):
		return styles.GutterActiveStyle.Render(icon)
	case m.resolved:
		return styles.GutterResolvedStyle.Render(styles.IconResolved)
	default:
		return styles.GutterStyle.Render(icon)
	}
}

// renderText styles one line of code. Runes are grouped into runs sharing a
// style so each run is rendered once.
func (v codeView) renderText(line string, lineStart, width int) string {
	var (
		b       strings.Builder
		run     strings.Builder
		runKind = -1
		col     int
	)

	flush := func() {
		if run.Len() == 0 {
			return
		}
		b.WriteString(v.styleFor(runKind).Render(run.String()))
		run.Reset()
	}

	offset := lineStart
	for _, r := range line {
		cell := string(r)
		w := ansi.StringWidth(cell)
		if r == '\t' {
			w = editor.TabWidth - col%editor.TabWidth
			cell = strings.Repeat(" ", w)
		}
		if r == '\r' {
			offset++
			continue
		}
		if col+w > width {
			break
		}

		kind := v.kindAt(offset)
		if kind != runKind {
			flush()
			runKind = kind
		}
		run.WriteString(cell)
		col += w
		offset++
	}

	// A cursor at the end of the line is drawn on a trailing cell.
	if v.kindAt(offset) == kindCursor && col < width {
		if runKind != kindCursor {
			flush()
			runKind = kindCursor
		}
		run.WriteString(" ")
	}
	flush()
	return b.String()
}

const (
	kindPlain = iota
	kindActive
	kindSelected
	kindCursor
)

func (v codeView) kindAt(offset int) int {
	switch {
	case offset == v.cursor:
		return kindCursor
	case v.selection != nil && offset >= min(v.selection.Anchor, v.selection.Head) && offset < max(v.selection.Anchor, v.selection.Head):
		return kindSelected
	case v.active != nil && v.active.covers(offset):
		return kindActive
	default:
		return kindPlain
	}
}

func (v codeView) styleFor(kind int) lipgloss.Style {
	switch kind {
	case kindCursor:
		return styles.CursorStyle
	case kindSelected, kindActive:
		return styles.HighlightStyle
	default:
		return lipgloss.NewStyle()
	}
}
