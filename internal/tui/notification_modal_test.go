package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/pkg/tuitest"
)

var blankScreen = strings.Repeat("\n", 39)

type fakeHistory struct {
	items   []notify.Notification
	listErr error
	cleared bool
}

func (f *fakeHistory) History(context.Context) ([]notify.Notification, error) {
	return f.items, f.listErr
}

func (f *fakeHistory) Clear(context.Context) error {
	f.items = nil
	f.cleared = true
	return nil
}

func TestNotificationModal_ShowsHistory(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)
	h := &fakeHistory{items: []notify.Notification{
		{Level: notify.LevelError, Message: "Unable to delete comment", CreatedAt: at},
		{Level: notify.LevelSuccess, Message: "Link copied", CreatedAt: at},
	}}

	m := NewNotificationModal(h, 100, 40, zerolog.Nop())
	out := tuitest.StripANSI(m.Overlay(blankScreen, 100, 40))

	assert.Contains(t, out, "Notifications")
	assert.Contains(t, out, "09:30:15")
	assert.Contains(t, out, "Unable to delete comment")
	assert.Contains(t, out, "Link copied")
}

func TestNotificationModal_Empty(t *testing.T) {
	m := NewNotificationModal(&fakeHistory{}, 100, 40, zerolog.Nop())
	assert.Contains(t, tuitest.StripANSI(m.Overlay(blankScreen, 100, 40)), "No notifications")

	m = NewNotificationModal(nil, 100, 40, zerolog.Nop())
	assert.Contains(t, tuitest.StripANSI(m.Overlay(blankScreen, 100, 40)), "No notifications")
	require.NoError(t, m.Clear())
}

func TestNotificationModal_HistoryError(t *testing.T) {
	m := NewNotificationModal(&fakeHistory{listErr: errors.New("locked")}, 100, 40, zerolog.Nop())
	assert.Contains(t, tuitest.StripANSI(m.Overlay(blankScreen, 100, 40)), "failed to load notifications: locked")
}

func TestNotificationModal_Clear(t *testing.T) {
	h := &fakeHistory{items: []notify.Notification{{Level: notify.LevelInfo, Message: "Loaded"}}}
	m := NewNotificationModal(h, 100, 40, zerolog.Nop())

	require.NoError(t, m.Clear())
	assert.True(t, h.cleared)
	assert.Contains(t, tuitest.StripANSI(m.Overlay(blankScreen, 100, 40)), "No notifications")
}

func TestCalcNotificationModalWidth(t *testing.T) {
	assert.Equal(t, 65, calcNotificationModalWidth(100))
	assert.Equal(t, notifyModalMinWidth, calcNotificationModalWidth(60))
	assert.Equal(t, 36, calcNotificationModalWidth(40), "never wider than the terminal")
}
