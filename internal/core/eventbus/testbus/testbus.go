// Package testbus runs a real EventBus that records everything published to
// it, for asserting on comment lifecycle events in tests.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/remarks/internal/core/eventbus"
)

// Recorded is one delivered event.
type Recorded struct {
	Event   eventbus.Event
	Payload any
}

// Bus wraps a started EventBus and records every delivered event.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	events  []Recorded
	arrived chan struct{}
}

// New starts a recording bus that stops when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{
		EventBus: eventbus.New(64),
		arrived:  make(chan struct{}, 1),
	}
	tb.SubscribeAll(tb.record)

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	tb.events = append(tb.events, Recorded{Event: event, Payload: payload})
	tb.mu.Unlock()

	select {
	case tb.arrived <- struct{}{}:
	default:
	}
}

// Events returns a copy of the recorded events in delivery order.
func (tb *Bus) Events() []Recorded {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return append([]Recorded(nil), tb.events...)
}

// Reset forgets everything recorded so far.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	tb.events = nil
	tb.mu.Unlock()
}

// WaitFor reports whether event is delivered within timeout.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if tb.count(event) > 0 {
			return true
		}
		select {
		case <-tb.arrived:
		case <-deadline.C:
			return tb.count(event) > 0
		}
	}
}

func (tb *Bus) count(event eventbus.Event) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	n := 0
	for _, e := range tb.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// AssertPublished fails the test unless event is delivered shortly.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished fails the test if event is delivered within a short
// settling window.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if tb.WaitFor(event, 50*time.Millisecond) {
		t.Errorf("expected event %q not to be published, but it was", event)
	}
}

// Payloads returns the recorded payloads of type T, oldest first.
func Payloads[T any](tb *Bus) []T {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	var out []T
	for _, e := range tb.events {
		if p, ok := e.Payload.(T); ok {
			out = append(out, p)
		}
	}
	return out
}
