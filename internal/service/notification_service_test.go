package service

import (
	"context"
	"errors"
	"testing"

	"medtrack/internal/models"
)

type fakeTokenStore struct {
	tokens []models.PushToken
	err    error
}

func (f *fakeTokenStore) GetActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PushToken
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type recordingGateway struct {
	batches map[string][]string
	results func(tokens []string) []models.TokenResult
}

func (g *recordingGateway) Send(ctx context.Context, platform string, tokens []string, msg models.PushMessage) []models.TokenResult {
	if g.batches == nil {
		g.batches = make(map[string][]string)
	}
	g.batches[platform] = append(g.batches[platform], tokens...)
	if g.results != nil {
		return g.results(tokens)
	}
	results := make([]models.TokenResult, len(tokens))
	for i, token := range tokens {
		results[i] = models.TokenResult{Token: token, Delivered: true}
	}
	return results
}

func TestDispatch(t *testing.T) {
	msg := models.PushMessage{Title: "Dose due", Body: "Time for your 8am dose"}

	t.Run("no tokens is a zero-count success", func(t *testing.T) {
		svc := NewNotificationService(&fakeTokenStore{}, map[string]PushGateway{
			"ios": &recordingGateway{},
		})

		result, err := svc.Dispatch(context.Background(), 1, msg)
		if err != nil {
			t.Fatalf("Dispatch() error: %v", err)
		}
		if result.NotificationsSent != 0 {
			t.Errorf("NotificationsSent = %d, want 0", result.NotificationsSent)
		}
		if len(result.Errors) != 0 {
			t.Errorf("Errors = %v, want none", result.Errors)
		}
	})

	t.Run("token lookup failure is a hard error", func(t *testing.T) {
		svc := NewNotificationService(&fakeTokenStore{err: errors.New("connection reset")}, nil)

		if _, err := svc.Dispatch(context.Background(), 1, msg); err == nil {
			t.Fatal("expected error from failing token store")
		}
	})

	t.Run("tokens are partitioned by platform", func(t *testing.T) {
		store := &fakeTokenStore{tokens: []models.PushToken{
			{UserID: 1, Platform: "ios", Token: "tok-a"},
			{UserID: 1, Platform: "android", Token: "tok-b"},
			{UserID: 1, Platform: "ios", Token: "tok-c"},
			{UserID: 2, Platform: "ios", Token: "other-user"},
		}}
		ios := &recordingGateway{}
		android := &recordingGateway{}
		svc := NewNotificationService(store, map[string]PushGateway{
			"ios":     ios,
			"android": android,
		})

		result, err := svc.Dispatch(context.Background(), 1, msg)
		if err != nil {
			t.Fatalf("Dispatch() error: %v", err)
		}
		if result.NotificationsSent != 3 {
			t.Errorf("NotificationsSent = %d, want 3", result.NotificationsSent)
		}
		if len(ios.batches["ios"]) != 2 {
			t.Errorf("ios batch = %v, want 2 tokens", ios.batches["ios"])
		}
		if len(android.batches["android"]) != 1 {
			t.Errorf("android batch = %v, want 1 token", android.batches["android"])
		}
	})

	t.Run("missing gateway is reported, not fatal", func(t *testing.T) {
		store := &fakeTokenStore{tokens: []models.PushToken{
			{UserID: 1, Platform: "ios", Token: "tok-a"},
			{UserID: 1, Platform: "android", Token: "tok-b"},
		}}
		svc := NewNotificationService(store, map[string]PushGateway{
			"ios": &recordingGateway{},
		})

		result, err := svc.Dispatch(context.Background(), 1, msg)
		if err != nil {
			t.Fatalf("Dispatch() error: %v", err)
		}
		if result.NotificationsSent != 1 {
			t.Errorf("NotificationsSent = %d, want 1", result.NotificationsSent)
		}
		if len(result.Errors) != 1 {
			t.Errorf("Errors = %v, want one entry for android", result.Errors)
		}
	})

	t.Run("per-token gateway failures are collected", func(t *testing.T) {
		store := &fakeTokenStore{tokens: []models.PushToken{
			{UserID: 1, Platform: "ios", Token: "tok-a"},
			{UserID: 1, Platform: "ios", Token: "tok-b"},
		}}
		gateway := &recordingGateway{results: func(tokens []string) []models.TokenResult {
			results := make([]models.TokenResult, len(tokens))
			for i, token := range tokens {
				if i == 0 {
					results[i] = models.TokenResult{Token: token, Delivered: true}
				} else {
					results[i] = models.TokenResult{Token: token, Err: errors.New("unregistered")}
				}
			}
			return results
		}}
		svc := NewNotificationService(store, map[string]PushGateway{"ios": gateway})

		result, err := svc.Dispatch(context.Background(), 1, msg)
		if err != nil {
			t.Fatalf("Dispatch() error: %v", err)
		}
		if result.NotificationsSent != 1 {
			t.Errorf("NotificationsSent = %d, want 1", result.NotificationsSent)
		}
		if len(result.Errors) != 1 {
			t.Errorf("Errors = %v, want one entry", result.Errors)
		}
	})
}

func TestLogPushGatewayReportsAllDelivered(t *testing.T) {
	results := LogPushGateway{}.Send(context.Background(), "ios", []string{"a", "b"}, models.PushMessage{Title: "t"})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if !r.Delivered {
			t.Errorf("token %s not marked delivered", r.Token)
		}
	}
}
