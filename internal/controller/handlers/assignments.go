package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scout/internal/controller/middleware"
	"scout/internal/store"
	"scout/pkg/api"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// queuePayload is the job payload written at enqueue time. The trace
// carrier lets the worker continue the request's trace.
type queuePayload struct {
	Query string                 `json:"query,omitempty"`
	Trace propagation.MapCarrier `json:"trace,omitempty"`
}

// createAndEnqueue persists the assignment and its trigger job in one
// transaction, so an assignment row never exists without a job to drive it.
func (h *Handlers) createAndEnqueue(ctx context.Context, a *store.Assignment) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	payload, _ := json.Marshal(queuePayload{Query: a.Query, Trace: carrier})

	tx, err := h.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := h.store.CreateAssignment(ctx, tx, a); err != nil {
		return err
	}
	if _, err := h.store.Enqueue(ctx, tx, a.ID, payload, time.Time{}); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateAssignment handles POST /assignments.
// It creates a research assignment directly, bypassing the classifier.
func (h *Handlers) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		h.httpError(w, "Query is required", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = deriveTitle(req.Query)
	}

	typ := store.AssignmentTypeResearch
	if req.Type != "" {
		typ = store.AssignmentType(req.Type)
		if !store.ValidType(typ) {
			h.httpError(w, "Invalid assignment type", http.StatusBadRequest)
			return
		}
	}

	priority := api.PriorityDefault
	if req.Priority != nil {
		priority = *req.Priority
		if priority < api.PriorityMin || priority > api.PriorityMax {
			h.httpError(w, "Priority must be between 0 and 100", http.StatusBadRequest)
			return
		}
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	a := &store.Assignment{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Query:       req.Query,
		Type:        typ,
		Priority:    priority,
		Status:      store.AssignmentStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.createAndEnqueue(ctx, a); err != nil {
		h.httpError(w, "Failed to create assignment", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusCreated, assignmentToResponse(a))
}

// GetAssignment handles GET /assignments/{id}.
func (h *Handlers) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	a, err := h.store.GetAssignmentByID(r.Context(), id)
	if err != nil {
		h.storeError(w, err)
		return
	}

	h.respondJson(w, http.StatusOK, assignmentToResponse(a))
}

// ListAssignments handles GET /assignments.
// Optional query params: status, limit.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	var status store.AssignmentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status = store.AssignmentStatus(s)
		switch status {
		case store.AssignmentStatusPending, store.AssignmentStatusInProgress,
			store.AssignmentStatusCompleted, store.AssignmentStatusFailed:
		default:
			h.httpError(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			h.httpError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	assignments, err := h.store.ListAssignments(r.Context(), status, limit)
	if err != nil {
		h.httpError(w, "Failed to list assignments", http.StatusInternalServerError)
		return
	}

	resp := make([]api.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		resp = append(resp, assignmentToResponse(&assignments[i]))
	}
	h.respondJson(w, http.StatusOK, resp)
}

// GetStats handles GET /assignments/stats.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.AssignmentStats(r.Context())
	if err != nil {
		h.httpError(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	depth, err := h.store.Depth(r.Context())
	if err != nil {
		h.httpError(w, "Failed to load queue depth", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, api.StatsResponse{
		Total:      stats.Total,
		Pending:    stats.Pending,
		InProgress: stats.InProgress,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
		QueueDepth: depth,
	})
}

// RetryAssignment handles POST /assignments/{id}/retry.
// It re-enqueues a failed assignment that has attempts left.
func (h *Handlers) RetryAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "Invalid assignment id", http.StatusBadRequest)
		return
	}

	a, err := h.store.RetryAssignment(ctx, id, h.maxAttempts)
	if err != nil {
		h.storeError(w, err)
		return
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	payload, _ := json.Marshal(queuePayload{Query: a.Query, Trace: carrier})

	if _, err := h.store.Enqueue(ctx, nil, a.ID, payload, time.Time{}); err != nil {
		h.httpError(w, "Failed to enqueue retry", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusOK, assignmentToResponse(a))
}

// deriveTitle builds a short title from the query when the caller
// omits one.
func deriveTitle(query string) string {
	title := strings.TrimRight(query, " .!?")
	runes := []rune(title)
	if len(runes) > 80 {
		title = string(runes[:77]) + "..."
	}
	return title
}
