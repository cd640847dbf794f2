package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/remarks/internal/core/comment"
)

// TabWidth is the number of cells a tab expands to.
const TabWidth = 4

// ErrNoModule is returned when a boundary is requested with no file open.
var ErrNoModule = errors.New("no file open")

// Layout places the code view on screen. Gutter is the width of the marker
// column left of the code; Scroll is the first visible line.
type Layout struct {
	Left   int
	Top    int
	Gutter int
	Scroll int
}

// SetLayout updates where the code view is drawn.
func (w *Workspace) SetLayout(l Layout) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.layout = l
}

// Layout returns the current view placement.
func (w *Workspace) Layout() Layout {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.layout
}

// Position is a line and display column, both zero based.
type Position struct {
	Line int
	Col  int
}

// ExpandTabs replaces tabs with spaces up to the next tab stop.
func ExpandTabs(line string) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := TabWidth - col%TabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += ansi.StringWidth(string(r))
	}
	return b.String()
}

// Lines splits code on newlines. A carriage return before the newline stays
// on its line so rune offsets are preserved.
func Lines(code string) []string {
	return strings.Split(code, "\n")
}

// PositionAt converts a rune offset into a line and display column. Offsets
// past the end clamp to the end of the code.
func PositionAt(code string, offset int) Position {
	offset = max(0, offset)
	line, lineStart := 0, 0
	runes := []rune(code)
	offset = min(offset, len(runes))
	for i := range offset {
		if runes[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	prefix := strings.TrimSuffix(string(runes[lineStart:offset]), "\r")
	return Position{Line: line, Col: ansi.StringWidth(ExpandTabs(prefix))}
}

// OffsetAt converts a line and display column back to a rune offset. Columns
// past the end of a line map to the line end.
func OffsetAt(code string, line, col int) int {
	lines := Lines(code)
	if len(lines) == 0 || line < 0 {
		return 0
	}
	line = min(line, len(lines)-1)

	offset := 0
	for i := range line {
		offset += len([]rune(lines[i])) + 1
	}

	width := 0
	for _, r := range lines[line] {
		w := ansi.StringWidth(string(r))
		if r == '\t' {
			w = TabWidth - width%TabWidth
		}
		if width+w > col {
			break
		}
		width += w
		offset++
	}
	return offset
}

// CodeReferenceBoundary returns the screen rectangle a code reference covers.
// A nil ref yields a one-cell rectangle at the cursor, or at the origin of the
// code area when no file is open.
func (w *Workspace) CodeReferenceBoundary(_ context.Context, commentID string, ref *comment.Reference) (comment.Rect, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.current == nil {
		if ref != nil {
			return comment.Rect{}, ErrNoModule
		}
		x := w.layout.Left + w.layout.Gutter
		return comment.Rect{Left: x, Top: w.layout.Top, Right: x + 1, Bottom: w.layout.Top + 1}, nil
	}
	code := w.current.Code

	if ref == nil {
		cursor := 0
		if w.selection != nil {
			cursor = w.selection.Cursor
		}
		p := PositionAt(code, cursor)
		return w.rectLocked(p, Position{Line: p.Line, Col: p.Col + 1}), nil
	}

	meta := ref.Metadata
	if meta.Path != w.current.Path {
		return comment.Rect{}, fmt.Errorf("comment %s refers to %s, open file is %s", commentID, meta.Path, w.current.Path)
	}

	start := PositionAt(code, meta.Start())
	end := PositionAt(code, meta.End())
	if start.Line != end.Line {
		// Multi-line ranges span the widest covered line.
		lines := Lines(code)
		widest := end.Col
		for i := start.Line; i < end.Line && i < len(lines); i++ {
			widest = max(widest, ansi.StringWidth(ExpandTabs(lines[i])))
		}
		return w.rectLocked(Position{Line: start.Line, Col: 0}, Position{Line: end.Line, Col: widest}), nil
	}
	if end.Col == start.Col {
		end.Col++
	}
	return w.rectLocked(start, end), nil
}

// rectLocked maps code positions to screen coordinates. end is exclusive in
// columns and inclusive in lines.
func (w *Workspace) rectLocked(start, end Position) comment.Rect {
	l := w.layout
	x := l.Left + l.Gutter
	y := l.Top - l.Scroll
	return comment.Rect{
		Left:   x + start.Col,
		Top:    y + start.Line,
		Right:  x + end.Col,
		Bottom: y + end.Line + 1,
	}
}
