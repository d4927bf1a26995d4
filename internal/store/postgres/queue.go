package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scout/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// VisibilityTimeout bounds how long a claimed job stays invisible to other
// pollers. A job whose worker died is requeued once the claim expires.
const VisibilityTimeout = 5 * time.Minute

// Enqueue adds a scheduled job to the assignment_queue. The attempt column is
// snapshotted from the assignment so the dequeued item carries the dispatch
// history without a join at processing time.
func (s *Store) Enqueue(ctx context.Context, tx store.DBTransaction, assignmentID uuid.UUID, payload json.RawMessage, runAt time.Time) (int64, error) {
	if runAt.IsZero() {
		runAt = time.Now().UTC()
	}
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO assignment_queue (assignment_id, payload, state, run_at, attempt)
		SELECT id, $2, $3, $4, attempts
		FROM assignments
		WHERE id = $1
		RETURNING id
	`

	executor := s.getExecutor(tx)

	var id int64
	err := executor.QueryRowContext(ctx, query, assignmentID, payload, store.JobStateScheduled, runAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue assignment %s: %w", assignmentID, err)
	}

	return id, nil
}

// DequeueBatch claims up to 'limit' due jobs atomically using
// SELECT ... FOR UPDATE SKIP LOCKED. Highest assignment priority wins,
// then insertion order. Returns nil slice if nothing is due.
func (s *Store) DequeueBatch(ctx context.Context, limit int) ([]store.QueueItem, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	selectQuery := `
		SELECT q.id, q.assignment_id, q.attempt, q.payload
		FROM assignment_queue q
		JOIN assignments a ON a.id = q.assignment_id
		WHERE q.state = $2 AND q.run_at <= NOW()
		ORDER BY a.priority DESC, q.created_at ASC
		FOR UPDATE OF q SKIP LOCKED
		LIMIT $1
	`

	rows, err := tx.QueryContext(ctx, selectQuery, limit, store.JobStateScheduled)
	if err != nil {
		return nil, fmt.Errorf("batch dequeue query failed: %w", err)
	}
	defer rows.Close()

	var items []store.QueueItem
	var jobIDs []int64
	for rows.Next() {
		var item store.QueueItem
		if err := rows.Scan(&item.JobID, &item.AssignmentID, &item.Attempt, &item.Payload); err != nil {
			return nil, fmt.Errorf("batch dequeue scan failed: %w", err)
		}
		items = append(items, item)
		jobIDs = append(jobIDs, item.JobID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("batch dequeue rows error: %w", err)
	}

	if len(items) == 0 {
		return nil, nil
	}

	// Claim all selected jobs in one statement.
	_, err = tx.ExecContext(ctx, `
		UPDATE assignment_queue
		SET state = $1, claim_expires_at = NOW() + ($2 * INTERVAL '1 second')
		WHERE id = ANY($3)
	`, store.JobStateRunning, VisibilityTimeout.Seconds(), pq.Array(jobIDs))
	if err != nil {
		return nil, fmt.Errorf("batch claim update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return items, nil
}

// CompleteJob transitions running -> succeeded.
func (s *Store) CompleteJob(ctx context.Context, jobID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assignment_queue
		SET state = $1, claim_expires_at = NULL
		WHERE id = $2
	`, store.JobStateSucceeded, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job %d: %w", jobID, err)
	}
	return nil
}

// FailJob transitions running -> failed and records the error message.
func (s *Store) FailJob(ctx context.Context, jobID int64, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assignment_queue
		SET state = $1, claim_expires_at = NULL, error_message = $2
		WHERE id = $3
	`, store.JobStateFailed, errMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to fail job %d: %w", jobID, err)
	}
	return nil
}

// ExtendClaim pushes the claim deadline of a running job (heartbeat).
func (s *Store) ExtendClaim(ctx context.Context, jobID int64, until time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE assignment_queue
		SET claim_expires_at = $1
		WHERE id = $2 AND state = $3
	`, until, jobID, store.JobStateRunning)
	return err
}

// RequeueStale flips expired running jobs back to scheduled. The state
// predicate makes repeated stale checks idempotent. An expired claim proves
// the holding worker died (a live one heartbeats), so the linked assignment
// is re-opened from in_progress to pending and the next claim can succeed.
func (s *Store) RequeueStale(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE assignment_queue
		SET state = $1, claim_expires_at = NULL, run_at = NOW()
		WHERE state = $2 AND claim_expires_at < NOW()
		RETURNING assignment_id
	`, store.JobStateScheduled, store.JobStateRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale jobs: %w", err)
	}
	defer rows.Close()

	var assignmentIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		assignmentIDs = append(assignmentIDs, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(assignmentIDs) == 0 {
		return 0, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE assignments
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
	`, store.AssignmentStatusPending, pq.Array(assignmentIDs), store.AssignmentStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to reopen stale assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(assignmentIDs)), nil
}

// Depth returns the number of jobs waiting in scheduled state.
func (s *Store) Depth(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignment_queue WHERE state = $1",
		store.JobStateScheduled,
	).Scan(&count)
	return count, err
}
