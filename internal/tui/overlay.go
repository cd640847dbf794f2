package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// placeOverlay draws fg over bg with its top-left corner at (x, y). Lines of
// fg that fall outside bg are dropped; bg lines shorter than x are padded.
func placeOverlay(x, y int, fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	for i, line := range fgLines {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}

		base := bgLines[row]
		left := ansi.Truncate(base, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(base, x+ansi.StringWidth(line), "")

		if strings.Contains(line, "\x1b[") {
			line += ansi.ResetStyle
		}
		bgLines[row] = left + line + right
	}

	return strings.Join(bgLines, "\n")
}
