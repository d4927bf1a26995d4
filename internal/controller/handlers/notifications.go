package handlers

import (
	"net/http"
	"strconv"

	"scout/internal/controller/middleware"
	"scout/pkg/api"
)

// ListNotifications handles GET /notifications.
// Returns the calling user's notifications, newest first.
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.httpError(w, "Unauthorized", http.StatusUnauthorized)
		return
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

	notifications, err := h.store.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		h.httpError(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	resp := make([]api.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, api.NotificationResponse{
			ID:           n.ID.String(),
			AssignmentID: n.AssignmentID.String(),
			Kind:         n.Kind,
			Title:        n.Title,
			Body:         n.Body,
			CreatedAt:    n.CreatedAt,
		})
	}
	h.respondJson(w, http.StatusOK, resp)
}
