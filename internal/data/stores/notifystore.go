package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/remarks/internal/core/notify"
	"github.com/colonyops/remarks/internal/data/db"
)

// DefaultNotificationHistory is the number of notifications kept on disk.
const DefaultNotificationHistory = 500

// NotifyStore implements notify.Store using SQLite. Only the newest entries
// are kept; older ones are pruned on every save.
type NotifyStore struct {
	db    *db.DB
	limit int64
}

var _ notify.Store = (*NotifyStore)(nil)

// NewNotifyStore creates a SQLite-backed notification store that keeps at
// most limit entries. A limit of zero or less keeps everything.
func NewNotifyStore(db *db.DB, limit int) *NotifyStore {
	return &NotifyStore{db: db, limit: int64(limit)}
}

// Save persists a notification and returns its auto-generated ID.
func (s *NotifyStore) Save(ctx context.Context, n notify.Notification) (int64, error) {
	var id int64
	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		var err error
		id, err = q.InsertNotification(ctx, db.InsertNotificationParams{
			Level:     string(n.Level),
			Message:   n.Message,
			CreatedAt: n.CreatedAt.UnixNano(),
		})
		if err != nil {
			return err
		}
		if s.limit > 0 {
			return q.PruneNotifications(ctx, s.limit)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}

	return id, nil
}

// List returns all notifications ordered by newest first.
func (s *NotifyStore) List(ctx context.Context) ([]notify.Notification, error) {
	rows, err := s.db.Queries().ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	result := make([]notify.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, notify.Notification{
			ID:        row.ID,
			Level:     notify.Level(row.Level),
			Message:   row.Message,
			CreatedAt: time.Unix(0, row.CreatedAt),
		})
	}

	return result, nil
}

// Clear deletes all notifications.
func (s *NotifyStore) Clear(ctx context.Context) error {
	if err := s.db.Queries().DeleteAllNotifications(ctx); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}

// Count returns the total number of notifications.
func (s *NotifyStore) Count(ctx context.Context) (int64, error) {
	count, err := s.db.Queries().CountNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return count, nil
}
