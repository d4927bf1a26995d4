// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// Priority bounds accepted on assignment creation.
const (
	PriorityMin     = 0
	PriorityMax     = 100
	PriorityDefault = 50
)

// ChatRequest is the request body for a chat turn.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for a chat turn. For an immediate turn
// Answer is set; for a research turn AssignmentID is set and Answer carries
// the acknowledgement text.
type ChatResponse struct {
	Kind         string `json:"kind"`
	Answer       string `json:"answer,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
}

// CreateAssignmentRequest is the request body for creating an assignment
// directly, bypassing the classifier.
type CreateAssignmentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Query       string `json:"query"`
	Type        string `json:"type,omitempty"`
	// Priority must be between 0 and 100
	Priority *int `json:"priority,omitempty"`
}

// AssignmentResponse represents an assignment in API responses.
type AssignmentResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Query       string    `json:"query"`
	Type        string    `json:"type"`
	Priority    int       `json:"priority"`
	Status      string    `json:"status"`
	Findings    *string   `json:"findings,omitempty"`
	Attempts    int       `json:"attempts"`
	LastError   *string   `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatsResponse is the response body for assignment stats queries.
type StatsResponse struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	QueueDepth int64 `json:"queue_depth"`
}

// NotificationResponse represents a notification in API responses.
type NotificationResponse struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	Kind         string    `json:"kind"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
