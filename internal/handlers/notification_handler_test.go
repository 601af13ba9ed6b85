package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"medtrack/internal/models"
	"medtrack/internal/service"
)

type stubTokenStore struct {
	tokens []models.PushToken
	err    error
}

func (s *stubTokenStore) GetActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens, nil
}

func newSendHandler(store service.TokenStore) http.HandlerFunc {
	svc := service.NewNotificationService(store, map[string]service.PushGateway{
		"ios":     service.LogPushGateway{},
		"android": service.LogPushGateway{},
	})
	h := NewNotificationHandler(svc, nil)
	return h.Send
}

func TestNotificationSend(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		store          *stubTokenStore
		expectedStatus int
		expectedSent   int
	}{
		{
			name:           "missing userId",
			body:           `{"title":"Dose due"}`,
			store:          &stubTokenStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing title",
			body:           `{"userId":1,"body":"Time for your dose"}`,
			store:          &stubTokenStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing body",
			body:           `{"userId":1,"title":"Dose due"}`,
			store:          &stubTokenStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           `{`,
			store:          &stubTokenStore{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "token lookup failure",
			body:           `{"userId":1,"title":"Dose due","body":"Time for your dose"}`,
			store:          &stubTokenStore{err: errors.New("connection reset")},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "no registered tokens",
			body:           `{"userId":1,"title":"Dose due","body":"Time for your dose"}`,
			store:          &stubTokenStore{},
			expectedStatus: http.StatusOK,
			expectedSent:   0,
		},
		{
			name: "tokens on both platforms",
			body: `{"userId":1,"title":"Dose due","body":"Time for your dose"}`,
			store: &stubTokenStore{tokens: []models.PushToken{
				{UserID: 1, Platform: "ios", Token: "tok-a"},
				{UserID: 1, Platform: "android", Token: "tok-b"},
			}},
			expectedStatus: http.StatusOK,
			expectedSent:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/notifications/send", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			newSendHandler(tt.store)(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.expectedStatus, rec.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				var failure struct {
					Success bool   `json:"success"`
					Error   string `json:"error"`
				}
				if err := json.NewDecoder(rec.Body).Decode(&failure); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if failure.Success {
					t.Error("Success = true on failure response")
				}
				if failure.Error == "" {
					t.Error("expected an error message")
				}
				return
			}

			var resp sendNotificationResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if !resp.Success {
				t.Error("Success = false, want true")
			}
			if resp.NotificationsSent != tt.expectedSent {
				t.Errorf("NotificationsSent = %d, want %d", resp.NotificationsSent, tt.expectedSent)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	wrapped := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the inner handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications/send", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSHeadersOnNormalRequest(t *testing.T) {
	wrapped := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/avatar", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
