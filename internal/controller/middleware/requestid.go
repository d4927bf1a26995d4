package middleware

import (
	"net/http"

	"scout/internal/logger"

	"github.com/google/uuid"
)

// RequestID tags every request with a correlation id. An incoming
// X-Request-ID survives a proxy hop; otherwise one is generated. The id
// is stored in the context for logger.FromContext and echoed on the
// response so clients can report it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
