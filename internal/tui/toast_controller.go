package tui

import (
	"time"

	"github.com/colonyops/remarks/internal/core/notify"
)

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 5
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 50

	// errorTTLFactor keeps failures on screen longer than confirmations.
	errorTTLFactor = 2
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
	// repeats counts identical notifications folded into this toast.
	repeats      int
}

// ToastController tracks the toasts shown for comment action outcomes.
// Identical notifications arriving back to back fold into one toast.
type ToastController struct {
	toasts  []toast
	ttl     time.Duration
	ticking bool
}

// NewToastController creates a controller whose toasts live for ttl. A
// non-positive ttl uses defaultToastTTL.
func NewToastController(ttl time.Duration) *ToastController {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &ToastController{ttl: ttl}
}

func (c *ToastController) lifetime(level notify.Level) time.Duration {
	if level == notify.LevelError {
		return c.ttl * errorTTLFactor
	}
	return c.ttl
}

// Push shows n. When the newest toast carries the same level and message
// its lifetime restarts instead. Past defaultMaxToasts the oldest is dropped.
func (c *ToastController) Push(n notify.Notification) {
	if last := len(c.toasts) - 1; last >= 0 {
		prev := &c.toasts[last]
		if prev.notification.Level == n.Level && prev.notification.Message == n.Message {
			prev.repeats++
			prev.remaining = c.lifetime(n.Level)
			prev.notification.CreatedAt = n.CreatedAt
			return
		}
	}

	c.toasts = append(c.toasts, toast{
		notification: n,
		remaining:    c.lifetime(n.Level),
	})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick ages every toast by d and drops the expired ones. It reports whether
// any toast was removed.
func (c *ToastController) Tick(d time.Duration) bool {
	before := len(c.toasts)
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
	return len(alive) != before
}

// Dismiss removes the newest toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

func (c *ToastController) DismissAll() {
	c.toasts = c.toasts[:0]
}

func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// Toasts returns the active toasts, oldest first.
func (c *ToastController) Toasts() []toast {
	return c.toasts
}

func (c *ToastController) Ticking() bool {
	return c.ticking
}

func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
