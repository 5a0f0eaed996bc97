/*
notifications.go - Admin feed rows
*/
package sqlite

import (
	"context"
	"fmt"

	"github.com/tribe/loyalty-engine/loyalty"
)

// SaveNotification appends to the admin feed.
func (s *Store) SaveNotification(ctx context.Context, n loyalty.Notification) error {
	defer s.wlock()()

	query := `
		INSERT INTO notifications (id, category, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		n.ID, n.Category, n.Title, n.Message, n.Read, fmtTime(n.CreatedAt))
	return err
}

// ListNotifications returns the feed, newest first.
func (s *Store) ListNotifications(ctx context.Context, limit int) ([]loyalty.Notification, error) {
	defer s.rlock()()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, category, title, message, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []loyalty.Notification
	for rows.Next() {
		var n loyalty.Notification
		var createdAt string
		if err := rows.Scan(&n.ID, &n.Category, &n.Title, &n.Message, &n.Read, &createdAt); err != nil {
			return nil, err
		}
		n.CreatedAt = parseTime(createdAt)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationsRead marks the whole feed as read.
func (s *Store) MarkNotificationsRead(ctx context.Context) error {
	defer s.wlock()()

	_, err := s.q.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE is_read = 0")
	return err
}
