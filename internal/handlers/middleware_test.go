package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medtrack/internal/security"
)

func TestRequireAuth(t *testing.T) {
	issuer := security.NewTokenIssuer("test-secret", time.Hour)
	mw := NewMiddleware(issuer, security.NewRateLimiter(100, time.Minute))

	var gotUserID int64
	protected := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	token, err := issuer.Issue(42, "pat@example.com")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK && gotUserID != 42 {
				t.Errorf("user ID in context = %d, want 42", gotUserID)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	mw := NewMiddleware(security.NewTokenIssuer("test-secret", time.Hour), security.NewRateLimiter(2, time.Minute))

	limited := mw.RateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		rec := httptest.NewRecorder()
		limited(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want %d", statuses[2], http.StatusTooManyRequests)
	}
}
