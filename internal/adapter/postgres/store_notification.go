package postgres

import (
	"context"
	"fmt"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
)

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, message, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		n.ID, n.UserID, n.Type, n.Message, n.Read)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	q := `SELECT id, user_id, type, message, read, created_at FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read = false`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []notification.Notification
	for rows.Next() {
		var n notification.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark notification read %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
