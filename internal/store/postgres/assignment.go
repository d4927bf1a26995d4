package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scout/internal/store"

	"github.com/google/uuid"
)

const assignmentColumns = `id, user_id, title, description, query, type, priority, status, findings, attempts, last_error, created_at, updated_at`

// CreateAssignment inserts a new assignment row with status=pending.
func (s *Store) CreateAssignment(ctx context.Context, tx store.DBTransaction, a *store.Assignment) error {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO assignments (id, user_id, title, description, query, type, priority, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $9)
	`

	_, err := executor.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.Title,
		a.Description,
		a.Query,
		a.Type,
		a.Priority,
		store.AssignmentStatusPending,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment %s: %w", a.ID, err)
	}
	return nil
}

// GetAssignmentByID returns an assignment by its ID.
func (s *Store) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	query := "SELECT " + assignmentColumns + " FROM assignments WHERE id = $1"

	a, err := scanAssignment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListAssignments returns assignments newest first, optionally filtered by status.
func (s *Store) ListAssignments(ctx context.Context, status store.AssignmentStatus, limit int) ([]store.Assignment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + assignmentColumns + " FROM assignments"
	args := []interface{}{limit}
	if status != "" {
		query += " WHERE status = $2"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT $1"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []store.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// AssignmentStats returns assignment counts grouped by status.
func (s *Store) AssignmentStats(ctx context.Context) (*store.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM assignments GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	defer rows.Close()

	var stats store.Stats
	for rows.Next() {
		var status store.AssignmentStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case store.AssignmentStatusPending:
			stats.Pending = count
		case store.AssignmentStatusInProgress:
			stats.InProgress = count
		case store.AssignmentStatusCompleted:
			stats.Completed = count
		case store.AssignmentStatusFailed:
			stats.Failed = count
		}
	}
	return &stats, rows.Err()
}

// ClaimAssignment transitions pending|failed -> in_progress with a single
// conditional UPDATE, so racing claims are decided by the database: exactly
// one caller gets the row, the rest get ErrAlreadyInProgress.
func (s *Store) ClaimAssignment(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(s.db.QueryRowContext(ctx, query,
		store.AssignmentStatusInProgress, id,
		store.AssignmentStatusPending, store.AssignmentStatusFailed,
	))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to claim assignment %s: %w", id, err)
	}

	// No row matched: distinguish the loser of a race from a missing or
	// terminal assignment.
	var status store.AssignmentStatus
	err = s.db.QueryRowContext(ctx, "SELECT status FROM assignments WHERE id = $1", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if status == store.AssignmentStatusInProgress {
		return nil, store.ErrAlreadyInProgress
	}
	return nil, store.ErrInvalidTransition
}

// CompleteAssignment transitions in_progress -> completed and sets findings.
func (s *Store) CompleteAssignment(ctx context.Context, id uuid.UUID, findings string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE assignments
		SET status = $1, findings = $2, last_error = NULL, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, store.AssignmentStatusCompleted, findings, id, store.AssignmentStatusInProgress)
	if err != nil {
		return fmt.Errorf("failed to complete assignment %s: %w", id, err)
	}
	return requireTransition(res)
}

// FailAssignment transitions in_progress -> failed, records the error and
// increments attempts. Returns the new attempt count.
func (s *Store) FailAssignment(ctx context.Context, id uuid.UUID, errMsg string) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx, `
		UPDATE assignments
		SET status = $1, last_error = $2, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING attempts
	`, store.AssignmentStatusFailed, errMsg, id, store.AssignmentStatusInProgress).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrInvalidTransition
	}
	if err != nil {
		return 0, fmt.Errorf("failed to fail assignment %s: %w", id, err)
	}
	return attempts, nil
}

// RetryAssignment validates retry eligibility under a row lock. The status
// stays failed; the caller enqueues a fresh job afterwards.
func (s *Store) RetryAssignment(ctx context.Context, id uuid.UUID, maxAttempts int) (*store.Assignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := "SELECT " + assignmentColumns + " FROM assignments WHERE id = $1 FOR UPDATE"
	a, err := scanAssignment(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if a.Status != store.AssignmentStatusFailed {
		return nil, store.ErrInvalidState
	}
	if a.Attempts >= maxAttempts {
		return nil, store.ErrRetryExhausted
	}

	if _, err := tx.ExecContext(ctx, "UPDATE assignments SET updated_at = NOW() WHERE id = $1", id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

// requireTransition turns an UPDATE that matched no rows into ErrInvalidTransition.
func requireTransition(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrInvalidTransition
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (*store.Assignment, error) {
	var a store.Assignment
	err := row.Scan(
		&a.ID, &a.UserID, &a.Title, &a.Description, &a.Query,
		&a.Type, &a.Priority, &a.Status, &a.Findings, &a.Attempts,
		&a.LastError, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
