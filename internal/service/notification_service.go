package service

import (
	"context"
	"fmt"
	"log"

	"medtrack/internal/models"
)

// TokenStore is the push token read capability dispatch depends on.
type TokenStore interface {
	GetActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error)
}

// PushGateway delivers a message to a batch of same-platform tokens
// and reports a per-token result. Real APNs/FCM integrations implement
// this interface; dispatch itself never talks to a gateway directly.
type PushGateway interface {
	Send(ctx context.Context, platform string, tokens []string, msg models.PushMessage) []models.TokenResult
}

// DispatchResult summarizes one dispatch request.
type DispatchResult struct {
	NotificationsSent int
	Errors            []string
}

// NotificationService partitions a user's active tokens by platform
// and hands each batch to the configured gateway.
type NotificationService struct {
	tokens   TokenStore
	gateways map[string]PushGateway
}

// NewNotificationService creates a dispatcher over the given
// per-platform gateways.
func NewNotificationService(tokens TokenStore, gateways map[string]PushGateway) *NotificationService {
	return &NotificationService{tokens: tokens, gateways: gateways}
}

// Dispatch sends a push message to every active token registered for
// the user. A user with no active tokens yields a zero-count success.
// Token lookup failure is the only hard error; gateway failures are
// collected per platform and reported alongside the sent count.
func (s *NotificationService) Dispatch(ctx context.Context, userID int64, msg models.PushMessage) (*DispatchResult, error) {
	tokens, err := s.tokens.GetActiveTokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load push tokens: %w", err)
	}

	byPlatform := make(map[string][]string)
	for _, t := range tokens {
		byPlatform[t.Platform] = append(byPlatform[t.Platform], t.Token)
	}

	result := &DispatchResult{}
	for platform, batch := range byPlatform {
		gateway, ok := s.gateways[platform]
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("no gateway configured for platform %s", platform))
			continue
		}
		for _, r := range gateway.Send(ctx, platform, batch, msg) {
			if r.Delivered {
				result.NotificationsSent++
			} else if r.Err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", platform, r.Err))
			}
		}
	}

	return result, nil
}

// LogPushGateway is a development stand-in for a real push gateway.
// It logs each batch and reports every token as delivered, so the
// sent count reflects tokens found, not confirmed deliveries. Do not
// read its counts as delivery confirmation; replace it with an
// APNs/FCM-backed implementation for production use.
type LogPushGateway struct{}

// Send implements PushGateway by logging and claiming success
func (LogPushGateway) Send(ctx context.Context, platform string, tokens []string, msg models.PushMessage) []models.TokenResult {
	log.Printf("Push (%s): %q to %d token(s)", platform, msg.Title, len(tokens))

	results := make([]models.TokenResult, len(tokens))
	for i, token := range tokens {
		results[i] = models.TokenResult{Token: token, Delivered: true}
	}
	return results
}
