package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scout/internal/classifier"
	"scout/internal/controller/middleware"
	"scout/internal/store"
	"scout/pkg/api"

	"github.com/google/uuid"
)

// Chat handles POST /chat.
// Every message gets exactly one of two outcomes: an immediate answer
// (200) or a research assignment acknowledgement (202).
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	decision, err := h.classifier.Classify(ctx, req.Message)
	if err != nil {
		if errors.Is(err, classifier.ErrEmptyUtterance) {
			h.httpError(w, "Message is required", http.StatusBadRequest)
			return
		}
		h.httpError(w, "Failed to classify message", http.StatusInternalServerError)
		return
	}

	if decision.Kind == classifier.KindImmediate {
		h.respondJson(w, http.StatusOK, api.ChatResponse{
			Kind:   string(classifier.KindImmediate),
			Answer: decision.Answer,
		})
		return
	}

	a := &store.Assignment{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       decision.Title,
		Description: decision.Description,
		Query:       decision.Query,
		Type:        decision.Type,
		Priority:    decision.Priority,
		Status:      store.AssignmentStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.createAndEnqueue(ctx, a); err != nil {
		h.httpError(w, "Failed to create assignment", http.StatusInternalServerError)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.ChatResponse{
		Kind:         string(classifier.KindResearch),
		Answer:       fmt.Sprintf("I'm on it. I'll let you know when %q is done.", a.Title),
		AssignmentID: a.ID.String(),
	})
}
