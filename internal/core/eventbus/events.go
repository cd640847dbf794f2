// Package eventbus provides a typed publish/subscribe event bus for
// comment lifecycle events within remarks.
package eventbus

import "github.com/colonyops/remarks/internal/core/comment"

// Event names a kind of event carried by the bus.
type Event string

// Keep list sorted A-Z.
const (
	EventCommentClosed       Event = "comment.closed"
	EventCommentCreated      Event = "comment.created"
	EventCommentDeleted      Event = "comment.deleted"
	EventCommentOpened       Event = "comment.opened"
	EventCommentResolved     Event = "comment.resolved"
	EventCommentThreadLoaded Event = "comment.thread-loaded"
	EventCommentUpdated      Event = "comment.updated"
	EventCommentsLoaded      Event = "comments.loaded"
)

// CommentCreatedPayload is emitted when the server accepted a new comment.
type CommentCreatedPayload struct {
	SandboxID string
	Comment   *comment.Comment
}

// CommentUpdatedPayload is emitted when a comment's content was persisted.
type CommentUpdatedPayload struct {
	SandboxID string
	CommentID string
}

// CommentResolvedPayload is emitted when a comment's resolved flag was persisted.
type CommentResolvedPayload struct {
	SandboxID  string
	CommentID  string
	IsResolved bool
}

// CommentDeletedPayload is emitted when the server confirmed a deletion.
type CommentDeletedPayload struct {
	SandboxID string
	CommentID string
}

// CommentOpenedPayload is emitted when a comment becomes the active comment.
type CommentOpenedPayload struct {
	SandboxID string
	CommentID string
}

// CommentClosedPayload is emitted when the active comment is closed.
type CommentClosedPayload struct {
	SandboxID string
	CommentID string
}

// CommentThreadLoadedPayload is emitted when a thread's replies were merged
// into the store.
type CommentThreadLoadedPayload struct {
	SandboxID string
	CommentID string
	Replies   int
}

// CommentsLoadedPayload is emitted when a sandbox's comments were loaded.
type CommentsLoadedPayload struct {
	SandboxID string
	Count     int
}
