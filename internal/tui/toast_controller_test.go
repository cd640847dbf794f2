package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/remarks/internal/core/notify"
)

func TestToastController_Push(t *testing.T) {
	c := NewToastController(0)

	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "hello"})

	assert.True(t, c.HasToasts())
	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "hello", c.Toasts()[0].notification.Message)
	assert.Equal(t, defaultToastTTL, c.Toasts()[0].remaining)
}

func TestToastController_CustomTTL(t *testing.T) {
	c := NewToastController(2 * time.Second)
	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "short"})

	assert.Equal(t, 2*time.Second, c.Toasts()[0].remaining)
}

func TestToastController_Push_evicts_oldest_at_max(t *testing.T) {
	c := NewToastController(0)

	for i := range defaultMaxToasts + 2 {
		c.Push(notify.Notification{
			Level:   notify.LevelInfo,
			Message: time.Duration(i).String(),
		})
	}

	assert.Len(t, c.Toasts(), defaultMaxToasts)
	// Oldest two should have been evicted; first remaining is "2".
	assert.Equal(t, "2ns", c.Toasts()[0].notification.Message)
}

func TestToastController_Tick_removes_expired(t *testing.T) {
	c := NewToastController(0)
	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "expires"})
	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "survives"})

	c.toasts[0].remaining = 50 * time.Millisecond
	c.Tick(100 * time.Millisecond)

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "survives", c.Toasts()[0].notification.Message)
	assert.Equal(t, defaultToastTTL-100*time.Millisecond, c.Toasts()[0].remaining)
}

func TestToastController_Push_folds_repeats(t *testing.T) {
	c := NewToastController(0)
	c.Push(notify.Notification{Level: notify.LevelError, Message: "Unable to resolve comment"})
	c.toasts[0].remaining = time.Second
	c.Push(notify.Notification{Level: notify.LevelError, Message: "Unable to resolve comment"})

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, 1, c.Toasts()[0].repeats)
	assert.Equal(t, defaultToastTTL*errorTTLFactor, c.Toasts()[0].remaining, "lifetime restarts")

	c.Push(notify.Notification{Level: notify.LevelSuccess, Message: "Unable to resolve comment"})
	assert.Len(t, c.Toasts(), 2, "different level is a new toast")
}

func TestToastController_Tick_reports_removal(t *testing.T) {
	c := NewToastController(time.Second)
	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "a"})

	assert.False(t, c.Tick(500*time.Millisecond))
	assert.True(t, c.Tick(500*time.Millisecond))
	assert.False(t, c.HasToasts())
}

func TestToastController_Dismiss(t *testing.T) {
	c := NewToastController(0)
	c.Dismiss() // empty stack is a no-op

	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "first"})
	c.Push(notify.Notification{Level: notify.LevelInfo, Message: "second"})
	c.Dismiss()

	assert.Len(t, c.Toasts(), 1)
	assert.Equal(t, "first", c.Toasts()[0].notification.Message)

	c.DismissAll()
	assert.False(t, c.HasToasts())
}

func TestToastView_Levels(t *testing.T) {
	c := NewToastController(0)
	v := NewToastView(c)
	assert.Empty(t, v.View())

	c.Push(notify.Notification{Level: notify.LevelError, Message: "boom"})
	c.Push(notify.Notification{Level: notify.LevelSuccess, Message: "copied"})
	c.Push(notify.Notification{Level: notify.LevelSuccess, Message: "copied"})

	out := v.View()
	assert.Contains(t, out, "(×2)")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "copied")
	assert.Less(t, strings.Index(out, "boom"), strings.Index(out, "copied"), "oldest toast renders first")
}

func TestPlaceOverlay(t *testing.T) {
	bg := "aaaaaaaa\nbbbbbbbb\ncccccccc"

	assert.Equal(t, "aaaaaaaa\nbbXYbbbb\ncccccccc", placeOverlay(2, 1, "XY", bg))
	assert.Equal(t, "aaaaaaaa\nbbbbbbbb\nccccccXY", placeOverlay(6, 2, "XY\nZZ", bg), "rows past the bottom are dropped")
	assert.Equal(t, "ab   XY", placeOverlay(5, 0, "XY", "ab"), "short lines are padded")
}
