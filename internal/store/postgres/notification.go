package postgres

import (
	"context"
	"fmt"

	"scout/internal/store"

	"github.com/google/uuid"
)

// CreateNotification inserts a notification row.
func (s *Store) CreateNotification(ctx context.Context, tx store.DBTransaction, n *store.Notification) error {
	executor := s.getExecutor(tx)

	_, err := executor.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, assignment_id, kind, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.AssignmentID, n.Kind, n.Title, n.Body, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification %s: %w", n.ID, err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]store.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, assignment_id, kind, title, body, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.AssignmentID, &n.Kind, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateNote inserts a note row and returns its ID. Notes are write-only from
// the worker's perspective.
func (s *Store) CreateNote(ctx context.Context, userID uuid.UUID, title, body string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, body)
		VALUES ($1, $2, $3, $4)
	`, id, userID, title, body)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert note: %w", err)
	}
	return id, nil
}
