package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestModal_NewDefaults(t *testing.T) {
	m := NewModal("Title", "Are you sure?", "c1")
	assert.True(t, m.ConfirmSelected()) // defaults to confirm
	assert.Equal(t, "c1", m.CommentID())
	assert.Equal(t, "Title", m.title)
	assert.Equal(t, "Are you sure?", m.message)
}

func TestModal_ToggleSelection(t *testing.T) {
	m := NewModal("", "", "c1")
	assert.True(t, m.ConfirmSelected())

	m.ToggleSelection()
	assert.False(t, m.ConfirmSelected())

	m.ToggleSelection()
	assert.True(t, m.ConfirmSelected())
}

func TestModal_OverlayKeepsBackground(t *testing.T) {
	m := NewModal("Delete comment?", "This cannot be undone.", "c1")
	bg := strings.Repeat(strings.Repeat(".", 80)+"\n", 23) + strings.Repeat(".", 80)

	out := ansi.Strip(m.Overlay(bg, 80, 24))
	lines := strings.Split(out, "\n")

	assert.Len(t, lines, 24)
	assert.Equal(t, strings.Repeat(".", 80), lines[0])
	assert.Contains(t, out, "Delete comment?")
	assert.Contains(t, out, "Cancel")
}
