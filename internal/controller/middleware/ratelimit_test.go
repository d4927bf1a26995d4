package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func newLimitedHandler(mw func(http.Handler) http.Handler) http.Handler {
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func doLimitedRequest(h http.Handler, userID uuid.UUID) int {
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req = req.WithContext(NewContextWithUserID(req.Context(), userID))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimit_BurstThenThrottle(t *testing.T) {
	h := newLimitedHandler(RateLimit(1, 2))
	userID := uuid.New()

	for i := 0; i < 2; i++ {
		if code := doLimitedRequest(h, userID); code != http.StatusOK {
			t.Fatalf("request %d within burst got %d, want 200", i+1, code)
		}
	}
	if code := doLimitedRequest(h, userID); code != http.StatusTooManyRequests {
		t.Errorf("request over burst got %d, want 429", code)
	}
}

func TestRateLimit_SharedAcrossWrappedHandlers(t *testing.T) {
	// One middleware instance wrapping several handlers still enforces a
	// single per-user budget.
	mw := RateLimit(1, 1)
	first := newLimitedHandler(mw)
	second := newLimitedHandler(mw)
	userID := uuid.New()

	if code := doLimitedRequest(first, userID); code != http.StatusOK {
		t.Fatalf("first handler got %d, want 200", code)
	}
	if code := doLimitedRequest(second, userID); code != http.StatusTooManyRequests {
		t.Errorf("second handler got %d, want 429", code)
	}
}

func TestRateLimit_PerUserIsolation(t *testing.T) {
	h := newLimitedHandler(RateLimit(1, 1))

	if code := doLimitedRequest(h, uuid.New()); code != http.StatusOK {
		t.Fatalf("first user got %d, want 200", code)
	}
	// A different user has an independent budget.
	if code := doLimitedRequest(h, uuid.New()); code != http.StatusOK {
		t.Errorf("second user got %d, want 200", code)
	}
}

func TestRateLimit_ZeroMeansUnlimited(t *testing.T) {
	h := newLimitedHandler(RateLimit(0, 0))
	userID := uuid.New()

	for i := 0; i < 10; i++ {
		if code := doLimitedRequest(h, userID); code != http.StatusOK {
			t.Fatalf("request %d got %d, want 200", i+1, code)
		}
	}
}

func TestRateLimit_NoUserInContext(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	rr := httptest.NewRecorder()
	RateLimit(1, 1)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want 401", rr.Code)
	}
}
