// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"scout/internal/classifier"
	"scout/internal/store"
	"scout/pkg/api"
)

// StoreFactory combines the interfaces needed for the controller to function.
type StoreFactory interface {
	BeginTx(ctx context.Context) (store.Tx, error)
	Ping(ctx context.Context) error
	store.AssignmentStore
	store.NotificationStore
	store.Queue
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	store       StoreFactory
	classifier  *classifier.Classifier
	maxAttempts int
}

// New creates a new Handlers instance with the given dependencies.
// maxAttempts <= 0 applies the worker default.
func New(s StoreFactory, c *classifier.Classifier, maxAttempts int) *Handlers {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Handlers{store: s, classifier: c, maxAttempts: maxAttempts}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}

// storeError maps store sentinel errors onto HTTP status codes.
func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.httpError(w, "Assignment not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, store.ErrInvalidTransition):
		h.httpError(w, "Assignment is not in a retryable state", http.StatusConflict)
	case errors.Is(err, store.ErrRetryExhausted):
		h.httpError(w, "Retry attempts exhausted", http.StatusConflict)
	default:
		h.httpError(w, "Internal database error", http.StatusInternalServerError)
	}
}

func assignmentToResponse(a *store.Assignment) api.AssignmentResponse {
	return api.AssignmentResponse{
		ID:          a.ID.String(),
		Title:       a.Title,
		Description: a.Description,
		Query:       a.Query,
		Type:        string(a.Type),
		Priority:    a.Priority,
		Status:      string(a.Status),
		Findings:    a.Findings,
		Attempts:    a.Attempts,
		LastError:   a.LastError,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
