package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"scout/internal/store"

	"github.com/google/uuid"
)

// Mock transaction
type mockTx struct {
	commitErr error
}

func (m *mockTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (m *mockTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (m *mockTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (m *mockTx) Commit() error { return m.commitErr }

func (m *mockTx) Rollback() error { return nil }

// Mock Store
type mockStore struct {
	// Hooks
	beginTxErr        error
	pingErr           error
	createErr         error
	getByIDResp       *store.Assignment
	getByIDErr        error
	listResp          []store.Assignment
	listErr           error
	statsResp         *store.Stats
	statsErr          error
	claimResp         *store.Assignment
	claimErr          error
	completeErr       error
	failResp          int
	failErr           error
	retryResp         *store.Assignment
	retryErr          error
	enqueueErr        error
	depthResp         int64
	depthErr          error
	listNotifsResp    []store.Notification
	listNotifsErr     error
	createNotifErr    error

	// Spies (to verify arguments passed by handlers)
	capturedAssignment *store.Assignment
	capturedPayload    json.RawMessage
	capturedRunAt      time.Time
	capturedListStatus store.AssignmentStatus
	capturedListLimit  int
	enqueueCalls       int
}

func (m *mockStore) BeginTx(ctx context.Context) (store.Tx, error) {
	if m.beginTxErr != nil {
		return nil, m.beginTxErr
	}
	return &mockTx{}, nil
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingErr }

func (m *mockStore) CreateAssignment(ctx context.Context, tx store.DBTransaction, a *store.Assignment) error {
	m.capturedAssignment = a
	return m.createErr
}

func (m *mockStore) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	return m.getByIDResp, m.getByIDErr
}

func (m *mockStore) ListAssignments(ctx context.Context, status store.AssignmentStatus, limit int) ([]store.Assignment, error) {
	m.capturedListStatus = status
	m.capturedListLimit = limit
	return m.listResp, m.listErr
}

func (m *mockStore) AssignmentStats(ctx context.Context) (*store.Stats, error) {
	return m.statsResp, m.statsErr
}

func (m *mockStore) ClaimAssignment(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	return m.claimResp, m.claimErr
}

func (m *mockStore) CompleteAssignment(ctx context.Context, id uuid.UUID, findings string) error {
	return m.completeErr
}

func (m *mockStore) FailAssignment(ctx context.Context, id uuid.UUID, errMsg string) (int, error) {
	return m.failResp, m.failErr
}

func (m *mockStore) RetryAssignment(ctx context.Context, id uuid.UUID, maxAttempts int) (*store.Assignment, error) {
	return m.retryResp, m.retryErr
}

func (m *mockStore) CreateNotification(ctx context.Context, tx store.DBTransaction, n *store.Notification) error {
	return m.createNotifErr
}

func (m *mockStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]store.Notification, error) {
	return m.listNotifsResp, m.listNotifsErr
}

func (m *mockStore) Enqueue(ctx context.Context, tx store.DBTransaction, assignmentID uuid.UUID, payload json.RawMessage, runAt time.Time) (int64, error) {
	m.enqueueCalls++
	m.capturedPayload = payload
	m.capturedRunAt = runAt
	if m.enqueueErr != nil {
		return 0, m.enqueueErr
	}
	return int64(m.enqueueCalls), nil
}

func (m *mockStore) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	return nil, nil
}

func (m *mockStore) CompleteJob(ctx context.Context, jobID int64) error { return nil }

func (m *mockStore) FailJob(ctx context.Context, jobID int64, errMsg string) error { return nil }

func (m *mockStore) ExtendClaim(ctx context.Context, jobID int64, until time.Time) error { return nil }

func (m *mockStore) RequeueStale(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockStore) Depth(ctx context.Context) (int64, error) { return m.depthResp, m.depthErr }
