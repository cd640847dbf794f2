package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/styles"
)

const (
	panelMinWidth = 30
	panelMaxWidth = 56
)

// panelWidth sizes the thread panel for a terminal width.
func panelWidth(termWidth int) int {
	return max(panelMinWidth, min(panelMaxWidth, termWidth*2/5))
}

// threadView renders the active comment with its replies.
type threadView struct {
	root     *comment.Comment
	replies  []*comment.Comment
	composer string
	width    int
	now      time.Time
}

func (v threadView) render() string {
	inner := max(v.width-4, 10)

	var sections []string

	title := styles.IconComment + " Thread"
	if v.root.IsOptimistic() {
		title = styles.IconDraft + " New comment"
	}
	header := styles.PanelTitleStyle.Render(title)
	if v.root.IsResolved {
		header += " " + styles.ResolvedBadgeStyle.Render("resolved")
	}
	sections = append(sections, header)

	if ref, ok := v.root.CodeReference(); ok && ref.Metadata.Code != "" {
		sections = append(sections, styles.MutedStyle.Width(inner).Render(quoteCode(ref.Metadata.Code, 3)))
	}

	if !v.root.IsOptimistic() || v.root.Content != "" {
		sections = append(sections, v.renderComment(v.root, inner))
	}
	for _, r := range v.replies {
		sections = append(sections, v.renderReply(r, inner))
	}

	if v.composer != "" {
		sections = append(sections, styles.ComposerStyle.Width(inner).Render(v.composer))
	}

	return styles.PanelStyle.Width(v.width - 2).Render(strings.Join(sections, "\n\n"))
}

func (v threadView) renderComment(c *comment.Comment, width int) string {
	meta := styles.AuthorStyle.Render(displayName(c.User))
	if c.IsOptimistic() {
		meta += " " + styles.DraftBadgeStyle.Render("sending")
	} else {
		meta += " " + styles.TimestampStyle.Render(humanize.RelTime(c.InsertedAt, v.now, "ago", "from now"))
	}
	body := lipgloss.NewStyle().Width(width).Render(c.Content)
	return meta + "\n" + body
}

func (v threadView) renderReply(c *comment.Comment, width int) string {
	inner := v.renderComment(c, width-2)
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.MutedStyle.Render(styles.IconReply+" "), inner)
}

func displayName(u comment.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return "@" + u.Username
	default:
		return "unknown"
	}
}

// quoteCode returns the first n lines of code, marking elided lines.
func quoteCode(code string, n int) string {
	lines := strings.Split(strings.TrimRight(code, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "…")
	}
	for i, l := range lines {
		lines[i] = "│ " + l
	}
	return strings.Join(lines, "\n")
}

// selectorView renders the disambiguation overlay listing several threads.
type selectorView struct {
	threads []*comment.Comment
}

func (v selectorView) render() string {
	lines := make([]string, 0, len(v.threads)+1)
	lines = append(lines, styles.PanelTitleStyle.Render(styles.IconMany+" Comments here"))
	for i, c := range v.threads {
		if i >= 9 {
			break
		}
		summary := firstLine(c.Content)
		if summary == "" {
			summary = "(empty)"
		}
		key := styles.OverlayItemKeyStyle.Render(string(rune('1' + i)))
		text := styles.OverlayItemStyle.Render(truncate(displayName(c.User)+": "+summary, 40))
		lines = append(lines, key+" "+text)
	}
	return styles.OverlayStyle.Render(strings.Join(lines, "\n"))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
