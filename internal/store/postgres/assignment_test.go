package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"scout/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return &Store{db: db}, mock
}

func assignmentRows(id, userID uuid.UUID, status store.AssignmentStatus, attempts int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "title", "description", "query", "type", "priority",
		"status", "findings", "attempts", "last_error", "created_at", "updated_at",
	}).AddRow(id, userID, "best pizza", "", "best pizza NYC", "research", 50,
		status, nil, attempts, nil, now, now)
}

func TestCreateAssignment(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	a := &store.Assignment{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Title:     "best pizza",
		Query:     "best pizza NYC",
		Type:      store.AssignmentTypeResearch,
		Priority:  50,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO assignments`).
		WithArgs(a.ID, a.UserID, a.Title, a.Description, a.Query, a.Type, a.Priority, store.AssignmentStatusPending, a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CreateAssignment(context.Background(), nil, a); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetAssignmentByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM assignments WHERE id`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetAssignmentByID(context.Background(), id)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestClaimAssignment_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`UPDATE assignments`).
		WithArgs(store.AssignmentStatusInProgress, id, store.AssignmentStatusPending, store.AssignmentStatusFailed).
		WillReturnRows(assignmentRows(id, userID, store.AssignmentStatusInProgress, 0))

	a, err := s.ClaimAssignment(context.Background(), id)
	if err != nil {
		t.Fatalf("ClaimAssignment failed: %v", err)
	}
	if a.Status != store.AssignmentStatusInProgress {
		t.Errorf("got status %s, want in_progress", a.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestClaimAssignment_AlreadyInProgress(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()

	// The conditional UPDATE matches nothing because a racing claim won.
	mock.ExpectQuery(`UPDATE assignments`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT status FROM assignments`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(store.AssignmentStatusInProgress))

	_, err := s.ClaimAssignment(context.Background(), id)
	if !errors.Is(err, store.ErrAlreadyInProgress) {
		t.Errorf("got %v, want ErrAlreadyInProgress", err)
	}
}

func TestClaimAssignment_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()

	mock.ExpectQuery(`UPDATE assignments`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT status FROM assignments`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.ClaimAssignment(context.Background(), id)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestClaimAssignment_Completed(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()

	mock.ExpectQuery(`UPDATE assignments`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT status FROM assignments`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(store.AssignmentStatusCompleted))

	_, err := s.ClaimAssignment(context.Background(), id)
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteAssignment_InvalidTransition(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()

	mock.ExpectExec(`UPDATE assignments`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CompleteAssignment(context.Background(), id, "findings")
	if !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("got %v, want ErrInvalidTransition", err)
	}
}

func TestFailAssignment_IncrementsAttempts(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()

	mock.ExpectQuery(`UPDATE assignments`).
		WithArgs(store.AssignmentStatusFailed, "research timed out", id, store.AssignmentStatusInProgress).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(2))

	attempts, err := s.FailAssignment(context.Background(), id, "research timed out")
	if err != nil {
		t.Fatalf("FailAssignment failed: %v", err)
	}
	if attempts != 2 {
		t.Errorf("got attempts %d, want 2", attempts)
	}
}

func TestRetryAssignment_Exhausted(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	userID := uuid.New()

	rows := assignmentRows(id, userID, store.AssignmentStatusFailed, 3)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM assignments WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := s.RetryAssignment(context.Background(), id, 3)
	if !errors.Is(err, store.ErrRetryExhausted) {
		t.Errorf("got %v, want ErrRetryExhausted", err)
	}
}

func TestRetryAssignment_NotFailed(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM assignments WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(assignmentRows(id, userID, store.AssignmentStatusPending, 0))
	mock.ExpectRollback()

	_, err := s.RetryAssignment(context.Background(), id, 3)
	if !errors.Is(err, store.ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
}

func TestRetryAssignment_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	id := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM assignments WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(assignmentRows(id, userID, store.AssignmentStatusFailed, 1))
	mock.ExpectExec(`UPDATE assignments SET updated_at`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := s.RetryAssignment(context.Background(), id, 3)
	if err != nil {
		t.Fatalf("RetryAssignment failed: %v", err)
	}
	if a.Attempts != 1 {
		t.Errorf("got attempts %d, want 1", a.Attempts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
