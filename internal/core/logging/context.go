package logging

import "context"

type contextKey string

const (
	sandboxIDKey contextKey = "sandbox_id"
	commentIDKey contextKey = "comment_id"
)

// WithSandboxID adds a sandbox ID to the context.
func WithSandboxID(ctx context.Context, sandboxID string) context.Context {
	return context.WithValue(ctx, sandboxIDKey, sandboxID)
}

// WithCommentID adds a comment ID to the context.
func WithCommentID(ctx context.Context, commentID string) context.Context {
	return context.WithValue(ctx, commentIDKey, commentID)
}

// GetSandboxID retrieves the sandbox ID from the context.
// Returns empty string if not present.
func GetSandboxID(ctx context.Context) string {
	if id, ok := ctx.Value(sandboxIDKey).(string); ok {
		return id
	}
	return ""
}

// GetCommentID retrieves the comment ID from the context.
// Returns empty string if not present.
func GetCommentID(ctx context.Context) string {
	if id, ok := ctx.Value(commentIDKey).(string); ok {
		return id
	}
	return ""
}
