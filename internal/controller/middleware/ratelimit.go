package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"scout/pkg/api"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RateLimit is middleware that throttles requests per user. The chat
// endpoint fronts a paid language model, so it gets a per-user budget
// rather than a global one.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	// userID -> *cachedLimiter, shared across every handler this
	// middleware wraps so one user gets one budget.
	limiters := sync.Map{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: "Unauthorized",
					Code:  "401",
				})
				return
			}

			// perSecond=0 means unlimited
			if perSecond > 0 {
				limiter := getOrCreateLimiter(&limiters, userID, perSecond, burst, 5*time.Minute)
				if !limiter.Allow() {
					w.Header().Set("Retry-After", "1")
					http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func getOrCreateLimiter(limiters *sync.Map, userID uuid.UUID, perSecond float64, burst int, ttl time.Duration) *rate.Limiter {
	if limiter, ok := limiters.Load(userID); ok {
		cached := limiter.(*cachedLimiter)
		if time.Now().Before(cached.expiresAt) {
			return cached.limiter
		}
		// expired, need to create new
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	limiters.Store(userID, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(ttl),
	})
	return limiter
}
