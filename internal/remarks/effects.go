package remarks

import (
	"context"

	"github.com/colonyops/remarks/internal/core/comment"
)

// API is the remote comment API.
type API interface {
	// SandboxComments returns every comment of a sandbox.
	SandboxComments(ctx context.Context, sandboxID string) ([]comment.Comment, error)
	// Comment returns a comment with its full reply records.
	Comment(ctx context.Context, sandboxID, commentID string) (comment.Thread, error)
	CreateComment(ctx context.Context, in comment.CreateCommentInput) (comment.Comment, error)
	CreateCodeComment(ctx context.Context, in comment.CreateCodeCommentInput) (comment.Comment, error)
	UpdateComment(ctx context.Context, in comment.UpdateCommentInput) (comment.Comment, error)
	DeleteComment(ctx context.Context, sandboxID, commentID string) error
}

// Module is the file currently open in the editor.
type Module struct {
	Path string
	Code string
}

// TextRange is a selected character range. Anchor is where the selection
// started, Head where the cursor is.
type TextRange struct {
	Anchor int
	Head   int
}

// Selection is the editor's primary selection. Range is nil when only a
// cursor is placed.
type Selection struct {
	Cursor int
	Range  *TextRange
}

// Editor is the code editor the comments are attached to.
type Editor interface {
	// CurrentModule returns the open file, false when no file is open.
	CurrentModule() (Module, bool)
	// CurrentSelection returns the primary selection, nil when the editor has
	// no live selection.
	CurrentSelection() *Selection
	// SelectModule opens the file at path.
	SelectModule(ctx context.Context, path string) error
}

// BoundaryResolver maps a code reference to the on-screen rectangle it
// occupies. ref is nil for a comment without a code reference.
type BoundaryResolver interface {
	CodeReferenceBoundary(ctx context.Context, commentID string, ref *comment.Reference) (comment.Rect, error)
}

// Notifier presents user-facing notifications.
type Notifier interface {
	Error(msg string)
	Success(msg string)
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Router builds shareable URLs.
type Router interface {
	CommentURL(commentID string) string
}
