package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/core/styles"
)

const (
	notifyModalWidthPct  = 65
	notifyModalMinWidth  = 50
	notifyModalMaxHeight = 30
	notifyModalMargin    = 4
	notifyModalChrome    = 6 // title + divider + help + spacing
)

// notificationHistory is the persisted notification log.
type notificationHistory interface {
	History(ctx context.Context) ([]notify.Notification, error)
	Clear(ctx context.Context) error
}

// NotificationModal displays a scrollable history of notifications.
type NotificationModal struct {
	history  notificationHistory
	viewport viewport.Model
	log      zerolog.Logger
}

// NewNotificationModal creates a modal showing notification history.
func NewNotificationModal(history notificationHistory, width, height int, log zerolog.Logger) *NotificationModal {
	modalWidth := calcNotificationModalWidth(width)
	modalHeight := min(height-notifyModalMargin, notifyModalMaxHeight)

	m := &NotificationModal{
		history:  history,
		viewport: viewport.New(modalWidth-4, max(modalHeight-notifyModalChrome, 1)),
		log:      log,
	}
	m.refreshContent()
	return m
}

func (m *NotificationModal) refreshContent() {
	if m.history == nil {
		m.viewport.SetContent(styles.MutedStyle.Render("No notifications"))
		return
	}

	history, err := m.history.History(context.Background())
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load notification history")
		m.viewport.SetContent(styles.ErrorStyle.Render(fmt.Sprintf("failed to load notifications: %v", err)))
		return
	}
	if len(history) == 0 {
		m.viewport.SetContent(styles.MutedStyle.Render("No notifications"))
		return
	}

	var b strings.Builder
	for i, n := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatNotification(n))
	}
	m.viewport.SetContent(b.String())
}

func formatNotification(n notify.Notification) string {
	ts := styles.MutedStyle.Render(n.CreatedAt.Format("15:04:05"))

	var icon string
	var msgStyle lipgloss.Style
	switch n.Level {
	case notify.LevelError:
		icon = styles.IconNotifyError
		msgStyle = styles.ErrorStyle
	case notify.LevelWarning:
		icon = styles.IconNotifyWarning
		msgStyle = styles.WarningStyle
	case notify.LevelSuccess:
		icon = styles.IconNotifySuccess
		msgStyle = styles.SuccessStyle
	default:
		icon = styles.IconNotifyInfo
		msgStyle = styles.InfoStyle
	}

	return fmt.Sprintf("%s %s %s", ts, icon, msgStyle.Render(n.Message))
}

// ScrollUp scrolls the viewport up.
func (m *NotificationModal) ScrollUp() {
	m.viewport.ScrollUp(1)
}

// ScrollDown scrolls the viewport down.
func (m *NotificationModal) ScrollDown() {
	m.viewport.ScrollDown(1)
}

// Clear deletes all notifications and refreshes the view.
func (m *NotificationModal) Clear() error {
	if m.history == nil {
		return nil
	}
	if err := m.history.Clear(context.Background()); err != nil {
		return err
	}
	m.refreshContent()
	return nil
}

// Overlay renders the notification modal centered over the background.
func (m *NotificationModal) Overlay(background string, width, height int) string {
	modalWidth := calcNotificationModalWidth(width)

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		scrollInfo = styles.MutedStyle.Render(fmt.Sprintf(" (%.0f%%)", m.viewport.ScrollPercent()*100))
	}

	divider := styles.MutedStyle.Render(strings.Repeat("─", max(modalWidth-6, 1)))
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		styles.PanelTitleStyle.Render("Notifications"+scrollInfo),
		divider,
		m.viewport.View(),
		styles.HelpStyle.Render("[j/k] scroll  [D] clear all  [esc] close"),
	)

	modal := styles.OverlayStyle.Width(modalWidth).Render(content)

	x := max((width-lipgloss.Width(modal))/2, 0)
	y := max((height-lipgloss.Height(modal))/2, 0)
	return placeOverlay(x, y, modal, background)
}

func calcNotificationModalWidth(termWidth int) int {
	available := max(termWidth-notifyModalMargin, 1)
	target := termWidth * notifyModalWidthPct / 100
	return min(max(target, notifyModalMinWidth), available)
}
