// Package store contains the database layer for scout.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobState represents the state of a scheduler-owned job. A job records one
// dispatch attempt of an assignment; retries enqueue a fresh job row rather
// than reusing the failed one.
type JobState string

const (
	JobStateScheduled JobState = "scheduled"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// Queue is the durable job scheduler. It exclusively owns job records; the
// assignment store never mutates them. Implementations must make the
// dequeue claim atomic (SELECT ... FOR UPDATE SKIP LOCKED or equivalent) so
// two pollers can never dispatch the same job concurrently.
type Queue interface {
	// Enqueue persists a scheduled job for the assignment, eligible to run
	// at runAt (zero value means now). Retries pass runAt in the future to
	// realize backoff.
	Enqueue(ctx context.Context, tx DBTransaction, assignmentID uuid.UUID, payload json.RawMessage, runAt time.Time) (int64, error)

	// DequeueBatch atomically claims up to limit due jobs, transitioning
	// them scheduled -> running with a claim deadline. Highest assignment
	// priority first, then oldest. Returns a nil slice when nothing is due.
	DequeueBatch(ctx context.Context, limit int) ([]QueueItem, error)

	// CompleteJob transitions running -> succeeded.
	CompleteJob(ctx context.Context, jobID int64) error

	// FailJob transitions running -> failed and records the error message.
	FailJob(ctx context.Context, jobID int64, errMsg string) error

	// ExtendClaim pushes the claim deadline of a running job (heartbeat).
	ExtendClaim(ctx context.Context, jobID int64, until time.Time) error

	// RequeueStale returns running jobs whose claim deadline has passed back
	// to scheduled, making them eligible for pickup again. A job lost to a
	// crashed worker is requeued exactly once: the state flip means repeated
	// stale checks see nothing to do. Returns the number of requeued jobs.
	RequeueStale(ctx context.Context) (int64, error)

	// Depth returns the number of jobs currently in scheduled state.
	Depth(ctx context.Context) (int64, error)
}

// QueueItem represents a dequeued job handed to a worker.
type QueueItem struct {
	JobID        int64
	AssignmentID uuid.UUID
	Attempt      int
	Payload      json.RawMessage
}
