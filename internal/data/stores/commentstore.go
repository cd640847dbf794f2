package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/remarks/internal/core/comment"
	"github.com/colonyops/remarks/internal/data/db"
)

// NewComment describes a comment to insert.
type NewComment struct {
	SandboxID string
	// ParentID makes the comment a reply. Empty for a thread.
	ParentID string
	Content  string
	Author   comment.User
	// Code anchors the comment to a code range.
	Code *comment.CodeReference
}

// CommentStore persists comment threads in SQLite. It backs the local
// development API server.
type CommentStore struct {
	db  *db.DB
	now func() time.Time
}

// NewCommentStore creates a new SQLite-backed comment store.
func NewCommentStore(db *db.DB) *CommentStore {
	return &CommentStore{db: db, now: time.Now}
}

// List returns every comment of a sandbox, oldest first, with reply stubs
// filled in.
func (s *CommentStore) List(ctx context.Context, sandboxID string) ([]comment.Comment, error) {
	rows, err := s.db.Queries().ListSandboxComments(ctx, sandboxID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	children := make(map[string][]comment.Ref)
	for _, row := range rows {
		if row.ParentID.Valid {
			children[row.ParentID.String] = append(children[row.ParentID.String], comment.Ref{ID: row.ID})
		}
	}

	out := make([]comment.Comment, 0, len(rows))
	for _, row := range rows {
		c := rowToComment(row)
		c.Comments = children[row.ID]
		out = append(out, c)
	}
	return out, nil
}

// Get returns a comment with its reply stubs. Returns comment.ErrCommentNotFound
// if it does not exist.
func (s *CommentStore) Get(ctx context.Context, sandboxID, id string) (comment.Comment, error) {
	thread, err := s.Thread(ctx, sandboxID, id)
	if err != nil {
		return comment.Comment{}, err
	}
	return thread.Comment, nil
}

// Thread returns a comment together with its direct replies.
func (s *CommentStore) Thread(ctx context.Context, sandboxID, id string) (comment.Thread, error) {
	row, err := s.db.Queries().GetComment(ctx, sandboxID, id)
	if IsNotFoundError(err) {
		return comment.Thread{}, comment.ErrCommentNotFound
	}
	if err != nil {
		return comment.Thread{}, fmt.Errorf("get comment: %w", err)
	}

	replyRows, err := s.db.Queries().ListReplies(ctx, sandboxID, id)
	if err != nil {
		return comment.Thread{}, fmt.Errorf("list replies: %w", err)
	}

	thread := comment.Thread{Comment: rowToComment(row)}
	for _, r := range replyRows {
		thread.Comment.AppendChild(r.ID)
		thread.Replies = append(thread.Replies, rowToComment(r))
	}
	return thread, nil
}

// Create inserts a comment with a generated id. Replies to a missing parent
// return comment.ErrCommentNotFound.
func (s *CommentStore) Create(ctx context.Context, nc NewComment) (comment.Comment, error) {
	now := s.now().UnixNano()
	row := db.Comment{
		ID:            uuid.NewString(),
		SandboxID:     nc.SandboxID,
		Content:       nc.Content,
		UserID:        nc.Author.ID,
		UserName:      nc.Author.Name,
		UserUsername:  nc.Author.Username,
		UserAvatarURL: nc.Author.AvatarURL,
		InsertedAt:    now,
		UpdatedAt:     now,
	}
	if nc.ParentID != "" {
		row.ParentID = sql.NullString{String: nc.ParentID, Valid: true}
	}
	if nc.Code != nil {
		row.RefID = sql.NullString{String: uuid.NewString(), Valid: true}
		row.RefPath = sql.NullString{String: nc.Code.Path, Valid: true}
		row.RefAnchor = sql.NullInt64{Int64: int64(nc.Code.Anchor), Valid: true}
		row.RefHead = sql.NullInt64{Int64: int64(nc.Code.Head), Valid: true}
		row.RefCode = sql.NullString{String: nc.Code.Code, Valid: true}
	}

	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		if nc.ParentID != "" {
			if _, err := q.GetComment(ctx, nc.SandboxID, nc.ParentID); err != nil {
				if IsNotFoundError(err) {
					return comment.ErrCommentNotFound
				}
				return err
			}
		}
		return q.InsertComment(ctx, row)
	})
	if err != nil {
		return comment.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	return rowToComment(row), nil
}

// Update sets a comment's content and resolved flag.
func (s *CommentStore) Update(ctx context.Context, in comment.UpdateCommentInput) (comment.Comment, error) {
	n, err := s.db.Queries().UpdateComment(ctx, db.UpdateCommentParams{
		SandboxID:  in.SandboxID,
		ID:         in.CommentID,
		Content:    in.Content,
		IsResolved: in.IsResolved,
		UpdatedAt:  s.now().UnixNano(),
	})
	if err != nil {
		return comment.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	if n == 0 {
		return comment.Comment{}, comment.ErrCommentNotFound
	}

	return s.Get(ctx, in.SandboxID, in.CommentID)
}

// Delete removes a comment and its replies.
func (s *CommentStore) Delete(ctx context.Context, sandboxID, id string) error {
	n, err := s.db.Queries().DeleteComment(ctx, sandboxID, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if n == 0 {
		return comment.ErrCommentNotFound
	}
	return nil
}

func rowToComment(row db.Comment) comment.Comment {
	c := comment.Comment{
		ID:         row.ID,
		InsertedAt: time.Unix(0, row.InsertedAt).UTC(),
		UpdatedAt:  time.Unix(0, row.UpdatedAt).UTC(),
		Content:    row.Content,
		IsResolved: row.IsResolved,
		User: comment.User{
			ID:        row.UserID,
			Name:      row.UserName,
			Username:  row.UserUsername,
			AvatarURL: row.UserAvatarURL,
		},
	}
	if row.ParentID.Valid {
		c.ParentComment = &comment.Ref{ID: row.ParentID.String}
	}
	if row.RefID.Valid {
		c.References = []comment.Reference{{
			ID:   row.RefID.String,
			Type: comment.ReferenceCode,
			Metadata: comment.CodeReference{
				Anchor: int(row.RefAnchor.Int64),
				Head:   int(row.RefHead.Int64),
				Code:   row.RefCode.String,
				Path:   row.RefPath.String,
			},
			Resource: row.RefPath.String,
		}}
	}
	return c
}
