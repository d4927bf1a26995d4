// Package memory provides an in-process implementation of the store
// interfaces. It backs tests and single-node development; the postgres
// package is the durable production implementation of the same contracts.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"scout/internal/store"

	"github.com/google/uuid"
)

// Store holds all records behind a single mutex. Every state transition is
// checked and applied inside the lock, which gives the same atomicity the
// postgres implementation gets from conditional UPDATEs.
type Store struct {
	mu            sync.Mutex
	assignments   map[uuid.UUID]*store.Assignment
	jobs          map[int64]*job
	nextJobID     int64
	notifications []store.Notification
	notes         []note

	claimTTL time.Duration
	now      func() time.Time
}

type job struct {
	id             int64
	assignmentID   uuid.UUID
	payload        json.RawMessage
	state          store.JobState
	runAt          time.Time
	claimExpiresAt time.Time
	attempt        int
	errMsg         string
	createdAt      time.Time
}

type note struct {
	id     uuid.UUID
	userID uuid.UUID
	title  string
	body   string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		assignments: make(map[uuid.UUID]*store.Assignment),
		jobs:        make(map[int64]*job),
		claimTTL:    5 * time.Minute,
		now:         time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// BeginTx returns a no-op transaction. The memory store applies every
// operation atomically under its lock, so there is nothing to commit.
func (s *Store) BeginTx(ctx context.Context) (store.Tx, error) {
	return noopTx{}, nil
}

type noopTx struct{}

func (noopTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errors.New("memory store does not execute SQL")
}

func (noopTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("memory store does not execute SQL")
}

func (noopTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

// CreateAssignment inserts a new assignment with status=pending.
func (s *Store) CreateAssignment(ctx context.Context, tx store.DBTransaction, a *store.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.Status = store.AssignmentStatusPending
	cp.Attempts = 0
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	cp.UpdatedAt = cp.CreatedAt
	s.assignments[cp.ID] = &cp
	*a = cp
	return nil
}

// GetAssignmentByID returns a copy of the assignment, or ErrNotFound.
func (s *Store) GetAssignmentByID(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// ListAssignments returns assignments newest first, optionally filtered by status.
func (s *Store) ListAssignments(ctx context.Context, status store.AssignmentStatus, limit int) ([]store.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	var out []store.Assignment
	for _, a := range s.assignments {
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AssignmentStats returns counts grouped by status.
func (s *Store) AssignmentStats(ctx context.Context) (*store.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats store.Stats
	for _, a := range s.assignments {
		stats.Total++
		switch a.Status {
		case store.AssignmentStatusPending:
			stats.Pending++
		case store.AssignmentStatusInProgress:
			stats.InProgress++
		case store.AssignmentStatusCompleted:
			stats.Completed++
		case store.AssignmentStatusFailed:
			stats.Failed++
		}
	}
	return &stats, nil
}

// ClaimAssignment transitions pending|failed -> in_progress. The mutex makes
// the check-and-set atomic: the loser of a concurrent claim observes
// in_progress and gets ErrAlreadyInProgress.
func (s *Store) ClaimAssignment(ctx context.Context, id uuid.UUID) (*store.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}

	switch a.Status {
	case store.AssignmentStatusPending, store.AssignmentStatusFailed:
		a.Status = store.AssignmentStatusInProgress
		a.UpdatedAt = s.now()
		cp := *a
		return &cp, nil
	case store.AssignmentStatusInProgress:
		return nil, store.ErrAlreadyInProgress
	default:
		return nil, store.ErrInvalidTransition
	}
}

// CompleteAssignment transitions in_progress -> completed.
func (s *Store) CompleteAssignment(ctx context.Context, id uuid.UUID, findings string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok || a.Status != store.AssignmentStatusInProgress {
		return store.ErrInvalidTransition
	}
	a.Status = store.AssignmentStatusCompleted
	a.Findings = &findings
	a.LastError = nil
	a.UpdatedAt = s.now()
	return nil
}

// FailAssignment transitions in_progress -> failed and increments attempts.
func (s *Store) FailAssignment(ctx context.Context, id uuid.UUID, errMsg string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok || a.Status != store.AssignmentStatusInProgress {
		return 0, store.ErrInvalidTransition
	}
	a.Status = store.AssignmentStatusFailed
	a.LastError = &errMsg
	a.Attempts++
	a.UpdatedAt = s.now()
	return a.Attempts, nil
}

// RetryAssignment validates retry eligibility; status stays failed until the
// next claim.
func (s *Store) RetryAssignment(ctx context.Context, id uuid.UUID, maxAttempts int) (*store.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if a.Status != store.AssignmentStatusFailed {
		return nil, store.ErrInvalidState
	}
	if a.Attempts >= maxAttempts {
		return nil, store.ErrRetryExhausted
	}
	a.UpdatedAt = s.now()
	cp := *a
	return &cp, nil
}

// Enqueue adds a scheduled job for the assignment.
func (s *Store) Enqueue(ctx context.Context, tx store.DBTransaction, assignmentID uuid.UUID, payload json.RawMessage, runAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[assignmentID]
	if !ok {
		return 0, store.ErrNotFound
	}
	if runAt.IsZero() {
		runAt = s.now()
	}

	s.nextJobID++
	j := &job{
		id:           s.nextJobID,
		assignmentID: assignmentID,
		payload:      payload,
		state:        store.JobStateScheduled,
		runAt:        runAt,
		attempt:      a.Attempts,
		createdAt:    s.now(),
	}
	s.jobs[j.id] = j
	return j.id, nil
}

// DequeueBatch claims up to limit due jobs under the lock.
func (s *Store) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 1
	}
	now := s.now()

	var due []*job
	for _, j := range s.jobs {
		if j.state == store.JobStateScheduled && !j.runAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		pi := s.assignments[due[i].assignmentID].Priority
		pj := s.assignments[due[j].assignmentID].Priority
		if pi != pj {
			return pi > pj
		}
		return due[i].id < due[j].id
	})
	if len(due) > limit {
		due = due[:limit]
	}
	if len(due) == 0 {
		return nil, nil
	}

	items := make([]store.QueueItem, 0, len(due))
	for _, j := range due {
		j.state = store.JobStateRunning
		j.claimExpiresAt = now.Add(s.claimTTL)
		items = append(items, store.QueueItem{
			JobID:        j.id,
			AssignmentID: j.assignmentID,
			Attempt:      j.attempt,
			Payload:      j.payload,
		})
	}
	return items, nil
}

// CompleteJob transitions running -> succeeded.
func (s *Store) CompleteJob(ctx context.Context, jobID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[jobID]; ok {
		j.state = store.JobStateSucceeded
		j.claimExpiresAt = time.Time{}
	}
	return nil
}

// FailJob transitions running -> failed.
func (s *Store) FailJob(ctx context.Context, jobID int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[jobID]; ok {
		j.state = store.JobStateFailed
		j.claimExpiresAt = time.Time{}
		j.errMsg = errMsg
	}
	return nil
}

// ExtendClaim pushes the claim deadline of a running job.
func (s *Store) ExtendClaim(ctx context.Context, jobID int64, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.jobs[jobID]; ok && j.state == store.JobStateRunning {
		j.claimExpiresAt = until
	}
	return nil
}

// RequeueStale flips expired running jobs back to scheduled. The expired
// claim proves the holding worker died, so the linked assignment is
// re-opened from in_progress to pending.
func (s *Store) RequeueStale(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for _, j := range s.jobs {
		if j.state == store.JobStateRunning && !j.claimExpiresAt.IsZero() && j.claimExpiresAt.Before(now) {
			j.state = store.JobStateScheduled
			j.claimExpiresAt = time.Time{}
			j.runAt = now
			n++
			if a, ok := s.assignments[j.assignmentID]; ok && a.Status == store.AssignmentStatusInProgress {
				a.Status = store.AssignmentStatusPending
				a.UpdatedAt = now
			}
		}
	}
	return n, nil
}

// Depth returns the number of scheduled jobs.
func (s *Store) Depth(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, j := range s.jobs {
		if j.state == store.JobStateScheduled {
			n++
		}
	}
	return n, nil
}

// CreateNotification appends a notification record.
func (s *Store) CreateNotification(ctx context.Context, tx store.DBTransaction, n *store.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *n
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}
	s.notifications = append(s.notifications, cp)
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]store.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	var out []store.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if s.notifications[i].UserID == userID {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

// CreateNote appends a note record and returns its ID.
func (s *Store) CreateNote(ctx context.Context, userID uuid.UUID, title, body string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.notes = append(s.notes, note{id: id, userID: userID, title: title, body: body})
	return id, nil
}

// NoteCount reports the number of stored notes. Test helper.
func (s *Store) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// NotificationCount reports the number of stored notifications. Test helper.
func (s *Store) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}
