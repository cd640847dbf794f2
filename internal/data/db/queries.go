package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the stores.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Notification is a row of the notifications table.
type Notification struct {
	ID        int64
	Level     string
	Message   string
	CreatedAt int64
}

type InsertNotificationParams struct {
	Level     string
	Message   string
	CreatedAt int64
}

const insertNotification = `INSERT INTO notifications (level, message, created_at) VALUES (?, ?, ?) RETURNING id`

func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, insertNotification, arg.Level, arg.Message, arg.CreatedAt).Scan(&id)
	return id, err
}

const listNotifications = `SELECT id, level, message, created_at FROM notifications ORDER BY created_at DESC, id DESC`

func (q *Queries) ListNotifications(ctx context.Context) ([]Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(&i.ID, &i.Level, &i.Message, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteAllNotifications = `DELETE FROM notifications`

func (q *Queries) DeleteAllNotifications(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNotifications)
	return err
}

const pruneNotifications = `DELETE FROM notifications WHERE id NOT IN (
	SELECT id FROM notifications ORDER BY created_at DESC, id DESC LIMIT ?
)`

// PruneNotifications deletes all but the newest keep notifications.
func (q *Queries) PruneNotifications(ctx context.Context, keep int64) error {
	_, err := q.db.ExecContext(ctx, pruneNotifications, keep)
	return err
}

const countNotifications = `SELECT COUNT(*) FROM notifications`

func (q *Queries) CountNotifications(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNotifications).Scan(&count)
	return count, err
}

// Comment is a row of the comments table.
type Comment struct {
	ID            string
	SandboxID     string
	ParentID      sql.NullString
	Content       string
	IsResolved    bool
	UserID        string
	UserName      string
	UserUsername  string
	UserAvatarURL string
	RefID         sql.NullString
	RefPath       sql.NullString
	RefAnchor     sql.NullInt64
	RefHead       sql.NullInt64
	RefCode       sql.NullString
	InsertedAt    int64
	UpdatedAt     int64
}

const commentColumns = `id, sandbox_id, parent_id, content, is_resolved, user_id, user_name, user_username,
	user_avatar_url, ref_id, ref_path, ref_anchor, ref_head, ref_code, inserted_at, updated_at`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var c Comment
	err := row.Scan(
		&c.ID, &c.SandboxID, &c.ParentID, &c.Content, &c.IsResolved,
		&c.UserID, &c.UserName, &c.UserUsername, &c.UserAvatarURL,
		&c.RefID, &c.RefPath, &c.RefAnchor, &c.RefHead, &c.RefCode,
		&c.InsertedAt, &c.UpdatedAt,
	)
	return c, err
}

func (q *Queries) listComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const insertComment = `INSERT INTO comments (` + commentColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertComment(ctx context.Context, c Comment) error {
	_, err := q.db.ExecContext(ctx, insertComment,
		c.ID, c.SandboxID, c.ParentID, c.Content, c.IsResolved,
		c.UserID, c.UserName, c.UserUsername, c.UserAvatarURL,
		c.RefID, c.RefPath, c.RefAnchor, c.RefHead, c.RefCode,
		c.InsertedAt, c.UpdatedAt,
	)
	return err
}

const getComment = `SELECT ` + commentColumns + ` FROM comments WHERE sandbox_id = ? AND id = ?`

func (q *Queries) GetComment(ctx context.Context, sandboxID, id string) (Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getComment, sandboxID, id))
}

const listSandboxComments = `SELECT ` + commentColumns + ` FROM comments WHERE sandbox_id = ? ORDER BY inserted_at, id`

func (q *Queries) ListSandboxComments(ctx context.Context, sandboxID string) ([]Comment, error) {
	return q.listComments(ctx, listSandboxComments, sandboxID)
}

const listReplies = `SELECT ` + commentColumns + ` FROM comments WHERE sandbox_id = ? AND parent_id = ? ORDER BY inserted_at, id`

func (q *Queries) ListReplies(ctx context.Context, sandboxID, parentID string) ([]Comment, error) {
	return q.listComments(ctx, listReplies, sandboxID, parentID)
}

type UpdateCommentParams struct {
	SandboxID  string
	ID         string
	Content    string
	IsResolved bool
	UpdatedAt  int64
}

const updateComment = `UPDATE comments SET content = ?, is_resolved = ?, updated_at = ? WHERE sandbox_id = ? AND id = ?`

// UpdateComment returns the number of rows changed.
func (q *Queries) UpdateComment(ctx context.Context, arg UpdateCommentParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateComment, arg.Content, arg.IsResolved, arg.UpdatedAt, arg.SandboxID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteComment = `DELETE FROM comments WHERE sandbox_id = ? AND id = ?`

// DeleteComment removes a comment and, through the foreign key, its replies.
// It returns the number of rows deleted directly.
func (q *Queries) DeleteComment(ctx context.Context, sandboxID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteComment, sandboxID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
