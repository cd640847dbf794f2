package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/core/styles"
	"github.com/colonyops/remarks/internal/editor"
	"github.com/colonyops/remarks/internal/remarks"
)

// View renders the frame: header, code, footer, then the thread panel,
// selector, help, notification history, delete confirmation and toasts
// layered on top.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	tree := m.svc.State().Snapshot()
	mod, hasModule := m.ws.CurrentModule()
	threads := tree.Comments.Threads(tree.SandboxID, tree.SelectedFilter)

	var body string
	if hasModule {
		body = m.renderCode(tree, mod, threads)
	} else {
		body = lipgloss.Place(m.width, m.codeHeight(), lipgloss.Center, lipgloss.Center,
			styles.MutedStyle.Render("No file open. Run: remarks tui <path>"))
	}

	frame := strings.Join([]string{m.renderHeader(tree, mod, threads), body, m.renderFooter()}, "\n")

	if tree.HasCurrent() {
		frame = m.overlayPanel(frame, tree, mod, hasModule)
	}
	if tree.MultiSelector != nil {
		view := selectorView{threads: selectorThreads(tree)}.render()
		x, y := m.clampOverlay(tree.MultiSelector.X, tree.MultiSelector.Y, view)
		frame = placeOverlay(x, y, view, frame)
	}
	if m.help.ShowAll {
		full := styles.OverlayStyle.Render(m.help.FullHelpView(m.keys.FullHelp()))
		frame = placeOverlay(0, max(m.height-footerHeight-lipgloss.Height(full), 0), full, frame)
	}
	if m.modal != nil {
		frame = m.modal.Overlay(frame, m.width, m.height)
	}
	if m.confirm != nil {
		frame = m.confirm.Overlay(frame, m.width, m.height)
	}
	return m.toastView.Overlay(frame, m.width, m.height)
}

func (m Model) renderHeader(tree comment.Tree, mod remarks.Module, threads []*comment.Comment) string {
	count := 0
	for _, c := range threads {
		if !c.IsOptimistic() {
			count++
		}
	}

	path := mod.Path
	if path == "" {
		path = "no file"
	}
	sandbox := tree.SandboxID
	if sandbox == "" {
		sandbox = "no sandbox"
	}

	left := styles.HeaderStyle.Render("remarks") + " " + path
	right := styles.MutedStyle.Render(fmt.Sprintf("%s · %d threads · %s", tree.SelectedFilter, count, sandbox))
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.StatusBarStyle.Width(m.width).Render(truncate(left+strings.Repeat(" ", gap)+right, m.width-2))
}

func (m Model) renderCode(tree comment.Tree, mod remarks.Module, threads []*comment.Comment) string {
	anchors := anchorsFor(threads, mod.Path)

	view := codeView{
		code:     mod.Code,
		width:    m.codeWidth(tree),
		height:   m.codeHeight(),
		scroll:   m.scroll,
		cursor:   -1,
		activeID: tree.CurrentCommentID,
		markers:  markersByLine(mod.Code, anchors),
	}
	if sel := m.ws.CurrentSelection(); sel != nil {
		view.cursor = sel.Cursor
		view.selection = sel.Range
	}
	for i := range anchors {
		if anchors[i].id == tree.CurrentCommentID {
			view.active = &anchors[i]
		}
	}

	// The code area keeps the full width so the panel overlays it.
	return lipgloss.NewStyle().Width(m.width).Render(view.render())
}

func (m Model) renderFooter() string {
	if m.mode != composeNone {
		return m.help.ShortHelpView(m.composerKeys.ShortHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// overlayPanel places the active thread on the right, level with its anchor
// when it is on screen.
func (m Model) overlayPanel(frame string, tree comment.Tree, mod remarks.Module, hasModule bool) string {
	root, ok := activeComment(tree)
	if !ok {
		return frame
	}

	view := threadView{
		root:    root,
		replies: tree.Comments.Replies(tree.SandboxID, root),
		width:   panelWidth(m.width),
		now:     m.now(),
	}
	if m.mode != composeNone {
		view.composer = m.composer.View()
	}
	panel := lipgloss.NewStyle().MaxHeight(m.codeHeight()).Render(view.render())

	top := headerHeight
	switch ref, isCode := root.CodeReference(); {
	case isCode && hasModule && ref.Metadata.Path == mod.Path:
		top = editor.PositionAt(mod.Code, ref.Metadata.Start()).Line - m.scroll + headerHeight
	case tree.Positions != nil && tree.Positions.Dialog != nil:
		top = tree.Positions.Dialog.Top
	case tree.Positions != nil:
		top = tree.Positions.Trigger.Top
	}
	top = max(headerHeight, min(top, headerHeight+m.codeHeight()-lipgloss.Height(panel)))

	return placeOverlay(max(m.width-lipgloss.Width(panel), 0), top, panel, frame)
}

// clampOverlay keeps a rendered block inside the terminal.
func (m Model) clampOverlay(x, y int, view string) (int, int) {
	w, h := lipgloss.Width(view), lipgloss.Height(view)
	return max(0, min(x, m.width-w)), max(0, min(y, m.height-h))
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return ansi.Truncate(s, n, "…")
}
