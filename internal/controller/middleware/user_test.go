package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestUser(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectCtxUser  bool
	}{
		{
			name:           "Valid User",
			header:         userID.String(),
			expectedStatus: http.StatusOK,
			expectCtxUser:  true,
		},
		{
			name:           "Missing Header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed User ID",
			header:         "not-a-uuid",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID uuid.UUID
			var gotOK bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, gotOK = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/assignments", nil)
			if tt.header != "" {
				req.Header.Set("X-User-ID", tt.header)
			}
			rr := httptest.NewRecorder()

			User(next).ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("got status %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectCtxUser {
				if !gotOK || gotID != userID {
					t.Errorf("user ID not propagated: got %v ok=%v", gotID, gotOK)
				}
			}
		})
	}
}
