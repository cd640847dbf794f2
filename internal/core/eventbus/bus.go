package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches published events to subscribers from a single goroutine
// started with Start. Publishing never blocks; events are dropped when the
// buffer is full. A nil *EventBus discards everything published to it.
type EventBus struct {
	queue chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates an event bus with the given buffer size.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		queue: make(chan envelope, buffer),
		subs:  make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.queue:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) publish(event Event, payload any) {
	if bus == nil {
		return
	}
	select {
	case bus.queue <- envelope{event: event, payload: payload}:
		bus.firePublish(event, payload)
	default:
		bus.fireDrop(event, payload)
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := append([]func(any){}, bus.subs[env.event]...)
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.firePanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

// PublishCommentCreated enqueues a comment.created event.
func (bus *EventBus) PublishCommentCreated(p CommentCreatedPayload) {
	bus.publish(EventCommentCreated, p)
}

// SubscribeCommentCreated registers fn for comment.created events.
func (bus *EventBus) SubscribeCommentCreated(fn func(CommentCreatedPayload)) {
	bus.subscribe(EventCommentCreated, func(p any) { fn(p.(CommentCreatedPayload)) })
}

// PublishCommentUpdated enqueues a comment.updated event.
func (bus *EventBus) PublishCommentUpdated(p CommentUpdatedPayload) {
	bus.publish(EventCommentUpdated, p)
}

// SubscribeCommentUpdated registers fn for comment.updated events.
func (bus *EventBus) SubscribeCommentUpdated(fn func(CommentUpdatedPayload)) {
	bus.subscribe(EventCommentUpdated, func(p any) { fn(p.(CommentUpdatedPayload)) })
}

// PublishCommentResolved enqueues a comment.resolved event.
func (bus *EventBus) PublishCommentResolved(p CommentResolvedPayload) {
	bus.publish(EventCommentResolved, p)
}

// SubscribeCommentResolved registers fn for comment.resolved events.
func (bus *EventBus) SubscribeCommentResolved(fn func(CommentResolvedPayload)) {
	bus.subscribe(EventCommentResolved, func(p any) { fn(p.(CommentResolvedPayload)) })
}

// PublishCommentDeleted enqueues a comment.deleted event.
func (bus *EventBus) PublishCommentDeleted(p CommentDeletedPayload) {
	bus.publish(EventCommentDeleted, p)
}

// SubscribeCommentDeleted registers fn for comment.deleted events.
func (bus *EventBus) SubscribeCommentDeleted(fn func(CommentDeletedPayload)) {
	bus.subscribe(EventCommentDeleted, func(p any) { fn(p.(CommentDeletedPayload)) })
}

// PublishCommentOpened enqueues a comment.opened event.
func (bus *EventBus) PublishCommentOpened(p CommentOpenedPayload) {
	bus.publish(EventCommentOpened, p)
}

// SubscribeCommentOpened registers fn for comment.opened events.
func (bus *EventBus) SubscribeCommentOpened(fn func(CommentOpenedPayload)) {
	bus.subscribe(EventCommentOpened, func(p any) { fn(p.(CommentOpenedPayload)) })
}

// PublishCommentClosed enqueues a comment.closed event.
func (bus *EventBus) PublishCommentClosed(p CommentClosedPayload) {
	bus.publish(EventCommentClosed, p)
}

// SubscribeCommentClosed registers fn for comment.closed events.
func (bus *EventBus) SubscribeCommentClosed(fn func(CommentClosedPayload)) {
	bus.subscribe(EventCommentClosed, func(p any) { fn(p.(CommentClosedPayload)) })
}

// PublishCommentThreadLoaded enqueues a comment.thread-loaded event.
func (bus *EventBus) PublishCommentThreadLoaded(p CommentThreadLoadedPayload) {
	bus.publish(EventCommentThreadLoaded, p)
}

// SubscribeCommentThreadLoaded registers fn for comment.thread-loaded events.
func (bus *EventBus) SubscribeCommentThreadLoaded(fn func(CommentThreadLoadedPayload)) {
	bus.subscribe(EventCommentThreadLoaded, func(p any) { fn(p.(CommentThreadLoadedPayload)) })
}

// PublishCommentsLoaded enqueues a comments.loaded event.
func (bus *EventBus) PublishCommentsLoaded(p CommentsLoadedPayload) {
	bus.publish(EventCommentsLoaded, p)
}

// SubscribeCommentsLoaded registers fn for comments.loaded events.
func (bus *EventBus) SubscribeCommentsLoaded(fn func(CommentsLoadedPayload)) {
	bus.subscribe(EventCommentsLoaded, func(p any) { fn(p.(CommentsLoadedPayload)) })
}

// SubscribeAll registers fn for every event kind.
func (bus *EventBus) SubscribeAll(fn func(Event, any)) {
	for _, event := range []Event{
		EventCommentClosed,
		EventCommentCreated,
		EventCommentDeleted,
		EventCommentOpened,
		EventCommentResolved,
		EventCommentThreadLoaded,
		EventCommentUpdated,
		EventCommentsLoaded,
	} {
		bus.subscribe(event, func(p any) { fn(event, p) })
	}
}
