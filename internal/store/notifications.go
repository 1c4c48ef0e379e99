package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
)

// InsertNotification stores a notification and fills in its ID.
func InsertNotification(ctx context.Context, q Querier, n *model.Notification) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, type, related_entity_type, related_entity_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Type, nullString(n.RelatedEntityType), n.RelatedEntityID,
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting notification id: %w", err)
	}
	n.ID = id
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, q Querier, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, title, message, type, related_entity_type, related_entity_id, read_at, created_at
	          FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY id DESC`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var entityType sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &entityType,
			&n.RelatedEntityID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.RelatedEntityType = entityType.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks a user's notification as read. It reports false
// if no such notification belongs to the user.
func MarkNotificationRead(ctx context.Context, q Querier, id, userID int64) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, CURRENT_TIMESTAMP)
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking notification update: %w", err)
	}
	return n > 0, nil
}

// HasRecentNotification reports whether the user got a notification of the
// given type about the entity within the last sinceHours hours.
func HasRecentNotification(ctx context.Context, q Querier, userID int64, notificationType string, entityID int64, sinceHours int) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE user_id = ? AND type = ? AND related_entity_id = ?
		   AND created_at >= datetime('now', ?)`,
		userID, notificationType, entityID, fmt.Sprintf("-%d hours", sinceHours),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking recent notifications: %w", err)
	}
	return count > 0, nil
}
