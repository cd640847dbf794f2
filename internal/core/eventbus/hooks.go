package eventbus

import "sync"

// hookList is a copy-on-read list of callbacks safe for concurrent use.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (l *hookList[F]) add(fn F) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *hookList[F]) each(call func(F)) {
	l.mu.RLock()
	fns := append([]F(nil), l.fns...)
	l.mu.RUnlock()
	for _, fn := range fns {
		call(fn)
	}
}

// hooks holds the observers of bus activity.
type hooks struct {
	publish hookList[func(Event, any)]
	drop    hookList[func(Event, any)]
	panics  hookList[func(Event, any, any)]
}

// OnPublish registers fn to run after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) { bus.hooks.publish.add(fn) }

// OnDrop registers fn to run when an event is dropped on a full buffer.
func (bus *EventBus) OnDrop(fn func(Event, any)) { bus.hooks.drop.add(fn) }

// OnPanic registers fn to run when a subscriber panics. It receives the
// recovered value as its last argument.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { bus.hooks.panics.add(fn) }

func (bus *EventBus) firePublish(event Event, payload any) {
	bus.hooks.publish.each(func(fn func(Event, any)) { fn(event, payload) })
}

func (bus *EventBus) fireDrop(event Event, payload any) {
	bus.hooks.drop.each(func(fn func(Event, any)) { fn(event, payload) })
}

func (bus *EventBus) firePanic(event Event, payload, recovered any) {
	bus.hooks.panics.each(func(fn func(Event, any, any)) { fn(event, payload, recovered) })
}
