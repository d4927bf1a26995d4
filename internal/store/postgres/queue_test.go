package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"scout/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestEnqueue_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	assignmentID := uuid.New()
	payload := json.RawMessage(`{"assignment":{}}`)
	runAt := time.Now()
	expectedJobID := int64(42)

	mock.ExpectQuery(`INSERT INTO assignment_queue`).
		WithArgs(assignmentID, payload, store.JobStateScheduled, runAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(expectedJobID))

	id, err := s.Enqueue(ctx, nil, assignmentID, payload, runAt)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if id != expectedJobID {
		t.Errorf("got id %d, want %d", id, expectedJobID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDequeueBatch_Success(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	ctx := context.Background()
	a1 := uuid.New()
	a2 := uuid.New()

	mock.ExpectBegin()

	// SELECT ... FOR UPDATE OF q SKIP LOCKED LIMIT 3
	mock.ExpectQuery(`SELECT q.id, q.assignment_id, q.attempt, q.payload FROM assignment_queue q`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "attempt", "payload"}).
			AddRow(int64(1), a1, 0, json.RawMessage(`{}`)).
			AddRow(int64(2), a2, 1, json.RawMessage(`{}`)))

	// Bulk claim update
	mock.ExpectExec(`UPDATE assignment_queue`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	mock.ExpectCommit()

	items, err := s.DequeueBatch(ctx, 3)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].AssignmentID != a1 {
		t.Errorf("got assignmentID %v, want %v", items[0].AssignmentID, a1)
	}
	if items[1].Attempt != 1 {
		t.Errorf("got attempt %d, want 1", items[1].Attempt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDequeueBatch_Empty(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT q.id, q.assignment_id, q.attempt, q.payload FROM assignment_queue q`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assignment_id", "attempt", "payload"}))
	mock.ExpectRollback()

	items, err := s.DequeueBatch(context.Background(), 5)
	if err != nil {
		t.Fatalf("DequeueBatch failed: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil slice on empty queue, got %v", items)
	}
}

func TestRequeueStale(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	staleAssignment := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE assignment_queue`).
		WithArgs(store.JobStateScheduled, store.JobStateRunning).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id"}).AddRow(staleAssignment))
	// The assignment held by the dead worker is reopened.
	mock.ExpectExec(`UPDATE assignments`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := s.RequeueStale(context.Background())
	if err != nil {
		t.Fatalf("RequeueStale failed: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d requeued, want 1", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRequeueStale_NothingStale(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE assignment_queue`).
		WithArgs(store.JobStateScheduled, store.JobStateRunning).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id"}))
	mock.ExpectRollback()

	n, err := s.RequeueStale(context.Background())
	if err != nil {
		t.Fatalf("RequeueStale failed: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d requeued, want 0", n)
	}
}

func TestCompleteJob(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectExec(`UPDATE assignment_queue`).
		WithArgs(store.JobStateSucceeded, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.CompleteJob(context.Background(), 7); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
}

func TestFailJob(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectExec(`UPDATE assignment_queue`).
		WithArgs(store.JobStateFailed, "boom", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.FailJob(context.Background(), 7, "boom"); err != nil {
		t.Fatalf("FailJob failed: %v", err)
	}
}

func TestDepth(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assignment_queue`).
		WithArgs(store.JobStateScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := s.Depth(context.Background())
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if n != 3 {
		t.Errorf("got depth %d, want 3", n)
	}
}
