package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/remarks/internal/core/styles"
)

// Modal is a confirmation dialog guarding a destructive action on a comment.
type Modal struct {
	title           string
	message         string
	commentID       string
	confirmSelected bool // true = confirm button selected, false = cancel button selected
}

// NewModal creates a dialog confirming an action on commentID.
func NewModal(title, message, commentID string) *Modal {
	return &Modal{
		title:           title,
		message:         message,
		commentID:       commentID,
		confirmSelected: true, // default to confirm button
	}
}

// ToggleSelection switches the selected button.
func (m *Modal) ToggleSelection() {
	m.confirmSelected = !m.confirmSelected
}

// ConfirmSelected returns true if the confirm button is selected.
func (m *Modal) ConfirmSelected() bool {
	return m.confirmSelected
}

// CommentID returns the comment the action applies to.
func (m *Modal) CommentID() string {
	return m.commentID
}

// Overlay renders the dialog centered over background.
func (m *Modal) Overlay(background string, width, height int) string {
	p := styles.CurrentPalette
	button := lipgloss.NewStyle().Padding(0, 2).Foreground(p.Foreground).Background(p.Surface)
	selected := button.Foreground(p.Background).Background(p.Primary).Bold(true)

	confirmBtn, cancelBtn := button.Render("Delete"), button.Render("Cancel")
	if m.confirmSelected {
		confirmBtn = selected.Background(p.Error).Render("Delete")
	} else {
		cancelBtn = selected.Render("Cancel")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center, confirmBtn, "  ", cancelBtn)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.PanelTitleStyle.Render(m.title),
		"",
		m.message,
		lipgloss.NewStyle().MarginTop(1).Render(buttons),
		styles.HelpStyle.Render("←/→ select  enter confirm  esc cancel"),
	)

	modal := styles.OverlayStyle.Render(content)

	x := max((width-lipgloss.Width(modal))/2, 0)
	y := max((height-lipgloss.Height(modal))/2, 0)
	return placeOverlay(x, y, modal, background)
}
