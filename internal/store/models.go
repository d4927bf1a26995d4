// Package store contains the database layer for scout.
package store

import (
	"time"

	"github.com/google/uuid"
)

// Assignment represents a durable unit of asynchronous research work
// requested by a user. Title, Description and Query are immutable after
// creation; Status, Attempts, Findings and LastError are mutated only by
// the worker processor through the state-machine operations.
type Assignment struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Query       string
	Type        AssignmentType
	Priority    int
	Status      AssignmentStatus
	Findings    *string // set if and only if Status == completed
	Attempts    int
	LastError   *string // set only while Status == failed
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignmentStatus represents the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusFailed     AssignmentStatus = "failed"
)

// AssignmentType informs processor routing. The set is closed.
type AssignmentType string

const (
	AssignmentTypeResearch   AssignmentType = "research"
	AssignmentTypeComparison AssignmentType = "comparison"
	AssignmentTypeLookup     AssignmentType = "lookup"
)

// ValidType reports whether t is a member of the closed type set.
func ValidType(t AssignmentType) bool {
	switch t {
	case AssignmentTypeResearch, AssignmentTypeComparison, AssignmentTypeLookup:
		return true
	}
	return false
}

// Notification is a persisted, user-facing record created exactly once per
// successful assignment completion. Body is denormalized so the client can
// render it without re-fetching the assignment.
type Notification struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	AssignmentID uuid.UUID
	Kind         string
	Title        string
	Body         string
	CreatedAt    time.Time
}

// NotificationKindAssignmentComplete tags success notifications.
// Failures are surfaced via assignment status only, never as a notification.
const NotificationKindAssignmentComplete = "assignment-complete"

// Stats holds assignment counts grouped by status.
type Stats struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Failed     int64
}
