package gql

import (
	"context"

	"github.com/colonyops/remarks/internal/core/comment"
)

// Operation names understood by the comments API.
const (
	OpSandboxComments   = "SandboxComments"
	OpComment           = "Comment"
	OpCreateComment     = "CreateComment"
	OpCreateCodeComment = "CreateCodeComment"
	OpUpdateComment     = "UpdateComment"
	OpDeleteComment     = "DeleteComment"
)

const commentFields = `
fragment CommentFields on Comment {
  id
  content
  insertedAt
  updatedAt
  isResolved
  parentComment { id }
  user { id name username avatarUrl }
  references { id type metadata resource }
  comments { id }
}`

// Query documents, keyed by operation name.
var Queries = map[string]string{
	OpSandboxComments: `query SandboxComments($sandboxId: ID!) {
  sandbox(sandboxId: $sandboxId) { comments { ...CommentFields } }
}` + commentFields,

	OpComment: `query Comment($sandboxId: ID!, $commentId: UUID4!) {
  sandbox(sandboxId: $sandboxId) {
    comment(commentId: $commentId) {
      ...CommentFields
      comments { ...CommentFields }
    }
  }
}` + commentFields,

	OpCreateComment: `mutation CreateComment($sandboxId: ID!, $content: String!, $parentCommentId: UUID4) {
  createComment(sandboxId: $sandboxId, content: $content, parentCommentId: $parentCommentId) { ...CommentFields }
}` + commentFields,

	OpCreateCodeComment: `mutation CreateCodeComment($sandboxId: ID!, $content: String!, $codeReference: CodeReference!) {
  createCodeComment(sandboxId: $sandboxId, content: $content, codeReference: $codeReference) { ...CommentFields }
}` + commentFields,

	OpUpdateComment: `mutation UpdateComment($sandboxId: ID!, $commentId: UUID4!, $content: String, $isResolved: Boolean) {
  updateComment(sandboxId: $sandboxId, commentId: $commentId, content: $content, isResolved: $isResolved) { ...CommentFields }
}` + commentFields,

	OpDeleteComment: `mutation DeleteComment($sandboxId: ID!, $commentId: UUID4!) {
  deleteComment(sandboxId: $sandboxId, commentId: $commentId) { id }
}`,
}

// ThreadPayload is the wire shape of the Comment query's comment: the comment
// fields plus full reply records under "comments".
type ThreadPayload struct {
	comment.Comment
	Replies []comment.Comment `json:"comments"`
}

// Thread converts the payload, filling the comment's reply stubs.
func (p ThreadPayload) Thread() comment.Thread {
	t := comment.Thread{Comment: p.Comment, Replies: p.Replies}
	t.Comment.Comments = make([]comment.Ref, 0, len(p.Replies))
	for _, r := range p.Replies {
		t.Comment.AppendChild(r.ID)
	}
	return t
}

// SandboxComments lists every comment of a sandbox.
func (c *Client) SandboxComments(ctx context.Context, sandboxID string) ([]comment.Comment, error) {
	var out struct {
		Sandbox struct {
			Comments []comment.Comment `json:"comments"`
		} `json:"sandbox"`
	}
	err := c.Do(ctx, OpSandboxComments, Queries[OpSandboxComments], map[string]any{
		"sandboxId": sandboxID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Sandbox.Comments, nil
}

// Comment fetches a comment and its replies.
func (c *Client) Comment(ctx context.Context, sandboxID, commentID string) (comment.Thread, error) {
	var out struct {
		Sandbox struct {
			Comment *ThreadPayload `json:"comment"`
		} `json:"sandbox"`
	}
	err := c.Do(ctx, OpComment, Queries[OpComment], map[string]any{
		"sandboxId": sandboxID,
		"commentId": commentID,
	}, &out)
	if err != nil {
		return comment.Thread{}, err
	}
	if out.Sandbox.Comment == nil {
		return comment.Thread{}, comment.ErrCommentNotFound
	}
	return out.Sandbox.Comment.Thread(), nil
}

// CreateComment creates a thread, or a reply when ParentCommentID is set.
func (c *Client) CreateComment(ctx context.Context, in comment.CreateCommentInput) (comment.Comment, error) {
	vars := map[string]any{
		"sandboxId":       in.SandboxID,
		"content":         in.Content,
		"parentCommentId": nil,
	}
	if in.ParentCommentID != "" {
		vars["parentCommentId"] = in.ParentCommentID
	}

	var out struct {
		CreateComment comment.Comment `json:"createComment"`
	}
	if err := c.Do(ctx, OpCreateComment, Queries[OpCreateComment], vars, &out); err != nil {
		return comment.Comment{}, err
	}
	return out.CreateComment, nil
}

// CreateCodeComment creates a thread anchored to a code range.
func (c *Client) CreateCodeComment(ctx context.Context, in comment.CreateCodeCommentInput) (comment.Comment, error) {
	var out struct {
		CreateCodeComment comment.Comment `json:"createCodeComment"`
	}
	err := c.Do(ctx, OpCreateCodeComment, Queries[OpCreateCodeComment], map[string]any{
		"sandboxId":     in.SandboxID,
		"content":       in.Content,
		"codeReference": in.CodeReference,
	}, &out)
	if err != nil {
		return comment.Comment{}, err
	}
	return out.CreateCodeComment, nil
}

// UpdateComment writes a comment's content and resolved flag.
func (c *Client) UpdateComment(ctx context.Context, in comment.UpdateCommentInput) (comment.Comment, error) {
	var out struct {
		UpdateComment comment.Comment `json:"updateComment"`
	}
	err := c.Do(ctx, OpUpdateComment, Queries[OpUpdateComment], map[string]any{
		"sandboxId":  in.SandboxID,
		"commentId":  in.CommentID,
		"content":    in.Content,
		"isResolved": in.IsResolved,
	}, &out)
	if err != nil {
		return comment.Comment{}, err
	}
	return out.UpdateComment, nil
}

// DeleteComment deletes a comment and its replies.
func (c *Client) DeleteComment(ctx context.Context, sandboxID, commentID string) error {
	return c.Do(ctx, OpDeleteComment, Queries[OpDeleteComment], map[string]any{
		"sandboxId": sandboxID,
		"commentId": commentID,
	}, nil)
}
