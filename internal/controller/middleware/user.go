// Package middleware contains HTTP middleware for the controller.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// userIDKey is the context key for the user ID.
type userIDKey struct{}

// User is middleware that extracts the calling user from the request.
// Every operation must be scoped by user_id.
func User(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
		if err != nil {
			http.Error(w, "missing or invalid user ID", http.StatusUnauthorized)
			return
		}

		ctx := NewContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NewContextWithUserID stores the user ID in the context.
func NewContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext extracts the user ID from the context.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if v, ok := ctx.Value(userIDKey{}).(uuid.UUID); ok {
		return v, true
	}
	return uuid.Nil, false
}
