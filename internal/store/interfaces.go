package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// AssignmentStore is the single source of truth for assignment state.
// Claim, Complete, Fail and Retry implement the state machine
// pending -> in_progress -> {completed | failed}, with failed -> in_progress
// reachable only through Retry followed by a fresh Claim.
type AssignmentStore interface {
	// CreateAssignment inserts a new assignment with status=pending, attempts=0.
	CreateAssignment(ctx context.Context, tx DBTransaction, a *Assignment) error

	// GetAssignmentByID returns an assignment by its ID, or ErrNotFound.
	GetAssignmentByID(ctx context.Context, id uuid.UUID) (*Assignment, error)

	// ListAssignments returns assignments newest first, optionally filtered
	// by status. limit <= 0 applies the store default.
	ListAssignments(ctx context.Context, status AssignmentStatus, limit int) ([]Assignment, error)

	// AssignmentStats returns assignment counts grouped by status.
	AssignmentStats(ctx context.Context) (*Stats, error)

	// ClaimAssignment atomically transitions pending|failed -> in_progress
	// and returns the claimed row. Two concurrent claims on the same ID must
	// never both succeed: the loser gets ErrAlreadyInProgress.
	ClaimAssignment(ctx context.Context, id uuid.UUID) (*Assignment, error)

	// CompleteAssignment transitions in_progress -> completed, sets findings
	// and clears last_error. Returns ErrInvalidTransition otherwise.
	CompleteAssignment(ctx context.Context, id uuid.UUID, findings string) error

	// FailAssignment transitions in_progress -> failed, records the error and
	// increments attempts. Returns the new attempt count.
	FailAssignment(ctx context.Context, id uuid.UUID, errMsg string) (int, error)

	// RetryAssignment validates that the assignment is failed with
	// attempts < maxAttempts and returns it. Status stays failed until the
	// next claim; the caller is responsible for enqueueing a new job.
	RetryAssignment(ctx context.Context, id uuid.UUID, maxAttempts int) (*Assignment, error)
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	// CreateNotification inserts a notification record.
	CreateNotification(ctx context.Context, tx DBTransaction, n *Notification) error

	// ListNotifications returns a user's notifications, newest first.
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
}

// NoteStore is the creation contract for the notes collaborator. The worker
// only ever creates notes; reading and managing them belongs to another
// service.
type NoteStore interface {
	CreateNote(ctx context.Context, userID uuid.UUID, title, body string) (uuid.UUID, error)
}
