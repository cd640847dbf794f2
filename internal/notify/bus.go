// Package notify is the user-facing notification surface. Comment actions
// report failures and confirmations through it; the TUI renders them as
// toasts and the CLI prints them.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/rs/zerolog"
)

// Subscriber is a callback invoked when a notification is published.
type Subscriber func(notify.Notification)

// Bus is a synchronous in-process notification bus. It dispatches notifications
// to subscribers inline and persists them to a Store.
type Bus struct {
	store       notify.Store
	log         zerolog.Logger
	subscribers []Subscriber
	mu          sync.Mutex
}

// NewBus creates a notification bus backed by the given store.
// If store is nil, notifications are dispatched to subscribers but not persisted.
func NewBus(store notify.Store, log zerolog.Logger) *Bus {
	return &Bus{
		store: store,
		log:   log,
	}
}

// Subscribe registers a callback that will be invoked on every Publish.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Publish dispatches a notification to all subscribers and persists it to the store.
func (b *Bus) Publish(n notify.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	// Persist first so the notification has an ID for subscribers.
	if b.store != nil {
		id, err := b.store.Save(context.Background(), n)
		if err != nil {
			b.log.Error().Err(err).Str("notification", n.Message).Msg("failed to persist notification")
		} else {
			n.ID = id
		}
	}

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Error publishes an error-level notification.
func (b *Bus) Error(msg string) {
	b.Publish(notify.Notification{Level: notify.LevelError, Message: msg})
}

// Success publishes a success-level notification.
func (b *Bus) Success(msg string) {
	b.Publish(notify.Notification{Level: notify.LevelSuccess, Message: msg})
}

// Errorf publishes an error-level notification.
func (b *Bus) Errorf(format string, args ...any) {
	b.Error(fmt.Sprintf(format, args...))
}

// Warnf publishes a warning-level notification.
func (b *Bus) Warnf(format string, args ...any) {
	b.Publish(notify.Notification{
		Level:   notify.LevelWarning,
		Message: fmt.Sprintf(format, args...),
	})
}

// Infof publishes an info-level notification.
func (b *Bus) Infof(format string, args ...any) {
	b.Publish(notify.Notification{
		Level:   notify.LevelInfo,
		Message: fmt.Sprintf(format, args...),
	})
}

// History returns all persisted notifications (newest first).
// Returns nil if no store is configured.
func (b *Bus) History(ctx context.Context) ([]notify.Notification, error) {
	if b.store == nil {
		return nil, nil
	}
	return b.store.List(ctx)
}

// Clear deletes all persisted notifications.
func (b *Bus) Clear(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	return b.store.Clear(ctx)
}
