package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs bus activity: published events at debug, drops as
// warnings and subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		withComment(logger.Debug(), payload).Str("event", string(event)).Msg("event fired")
	})

	bus.OnDrop(func(event Event, payload any) {
		withComment(logger.Warn(), payload).Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, payload, recovered any) {
		withComment(logger.Error(), payload).
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

// withComment adds the sandbox and comment ids carried by payload.
func withComment(e *zerolog.Event, payload any) *zerolog.Event {
	var sandbox, id string
	switch p := payload.(type) {
	case CommentCreatedPayload:
		sandbox = p.SandboxID
		if p.Comment != nil {
			id = p.Comment.ID
		}
	case CommentUpdatedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentResolvedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentDeletedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentOpenedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentClosedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentThreadLoadedPayload:
		sandbox, id = p.SandboxID, p.CommentID
	case CommentsLoadedPayload:
		sandbox = p.SandboxID
	}

	if sandbox != "" {
		e = e.Str("sandbox_id", sandbox)
	}
	if id != "" {
		e = e.Str("comment_id", id)
	}
	return e
}
