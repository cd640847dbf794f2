package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/data/stores"
	"github.com/colonyops/remarks/internal/gql"
)

type operation struct {
	// field is the top-level response field, used as the error path.
	field string
	run   func(ctx context.Context, vars json.RawMessage) (any, error)
}

// inputError is reported to the client verbatim.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func invalid(msg string) error { return &inputError{msg: msg} }

type variables struct {
	SandboxID       string                 `json:"sandboxId"`
	CommentID       string                 `json:"commentId"`
	Content         *string                `json:"content"`
	ParentCommentID *string                `json:"parentCommentId"`
	IsResolved      *bool                  `json:"isResolved"`
	CodeReference   *comment.CodeReference `json:"codeReference"`
}

func decodeVars(raw json.RawMessage) (variables, error) {
	var v variables
	if len(raw) == 0 {
		return v, invalid("missing variables")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, invalid("invalid variables")
	}
	if v.SandboxID == "" {
		return v, invalid("sandboxId is required")
	}
	return v, nil
}

func (v variables) requireComment() error {
	if v.CommentID == "" {
		return invalid("commentId is required")
	}
	return nil
}

func (v variables) content() (string, error) {
	if v.Content == nil || strings.TrimSpace(*v.Content) == "" {
		return "", invalid("content cannot be empty")
	}
	return *v.Content, nil
}

func (s *Server) operations() map[string]operation {
	return map[string]operation{
		gql.OpSandboxComments:   {field: "sandbox", run: s.sandboxComments},
		gql.OpComment:           {field: "sandbox", run: s.commentThread},
		gql.OpCreateComment:     {field: "createComment", run: s.createComment},
		gql.OpCreateCodeComment: {field: "createCodeComment", run: s.createCodeComment},
		gql.OpUpdateComment:     {field: "updateComment", run: s.updateComment},
		gql.OpDeleteComment:     {field: "deleteComment", run: s.deleteComment},
	}
}

func (s *Server) sandboxComments(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.List(ctx, v.SandboxID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []comment.Comment{}
	}

	return map[string]any{"sandbox": map[string]any{"comments": list}}, nil
}

func (s *Server) commentThread(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}
	if err := v.requireComment(); err != nil {
		return nil, err
	}

	thread, err := s.repo.Thread(ctx, v.SandboxID, v.CommentID)
	if errors.Is(err, comment.ErrCommentNotFound) {
		return map[string]any{"sandbox": map[string]any{"comment": nil}}, nil
	}
	if err != nil {
		return nil, err
	}

	replies := thread.Replies
	if replies == nil {
		replies = []comment.Comment{}
	}
	payload := gql.ThreadPayload{Comment: thread.Comment, Replies: replies}
	return map[string]any{"sandbox": map[string]any{"comment": payload}}, nil
}

func (s *Server) createComment(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}
	content, err := v.content()
	if err != nil {
		return nil, err
	}

	nc := stores.NewComment{SandboxID: v.SandboxID, Content: content, Author: s.cfg.Author}
	if v.ParentCommentID != nil {
		nc.ParentID = *v.ParentCommentID
	}

	created, err := s.repo.Create(ctx, nc)
	if err != nil {
		return nil, err
	}
	return map[string]any{"createComment": created}, nil
}

func (s *Server) createCodeComment(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}
	content, err := v.content()
	if err != nil {
		return nil, err
	}
	if v.CodeReference == nil || v.CodeReference.Path == "" {
		return nil, invalid("codeReference with a path is required")
	}

	created, err := s.repo.Create(ctx, stores.NewComment{
		SandboxID: v.SandboxID,
		Content:   content,
		Author:    s.cfg.Author,
		Code:      v.CodeReference,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"createCodeComment": created}, nil
}

func (s *Server) updateComment(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}
	if err := v.requireComment(); err != nil {
		return nil, err
	}

	// Omitted fields keep their stored value.
	current, err := s.repo.Thread(ctx, v.SandboxID, v.CommentID)
	if err != nil {
		return nil, err
	}
	in := comment.UpdateCommentInput{
		SandboxID:  v.SandboxID,
		CommentID:  v.CommentID,
		Content:    current.Comment.Content,
		IsResolved: current.Comment.IsResolved,
	}
	if v.Content != nil {
		if in.Content, err = v.content(); err != nil {
			return nil, err
		}
	}
	if v.IsResolved != nil {
		in.IsResolved = *v.IsResolved
	}

	updated, err := s.repo.Update(ctx, in)
	if err != nil {
		return nil, err
	}
	return map[string]any{"updateComment": updated}, nil
}

func (s *Server) deleteComment(ctx context.Context, raw json.RawMessage) (any, error) {
	v, err := decodeVars(raw)
	if err != nil {
		return nil, err
	}
	if err := v.requireComment(); err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, v.SandboxID, v.CommentID); err != nil {
		return nil, err
	}
	return map[string]any{"deleteComment": map[string]string{"id": v.CommentID}}, nil
}
