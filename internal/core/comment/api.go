package comment

// Thread is a comment together with its full reply records, as returned by the
// comment query.
type Thread struct {
	Comment Comment
	Replies []Comment
}

// CreateCommentInput is the payload of the plain comment mutation.
type CreateCommentInput struct {
	SandboxID       string
	Content         string
	ParentCommentID string // empty for a top-level comment
}

// CreateCodeCommentInput is the payload of the code-anchored comment mutation.
type CreateCodeCommentInput struct {
	SandboxID     string
	Content       string
	CodeReference CodeReference
}

// UpdateCommentInput is the payload of the update mutation. Content and the
// resolved flag are always sent together.
type UpdateCommentInput struct {
	SandboxID  string
	CommentID  string
	Content    string
	IsResolved bool
}
