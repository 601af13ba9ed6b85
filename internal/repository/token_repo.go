package repository

import (
	"context"
	"fmt"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// TokenRepository handles database operations for push tokens
type TokenRepository struct {
	db *database.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *database.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// GetActiveTokens retrieves all active push tokens for a user
func (r *TokenRepository) GetActiveTokens(ctx context.Context, userID int64) ([]models.PushToken, error) {
	query := `
		SELECT id, user_id, token, platform, is_active, created_at
		FROM push_tokens
		WHERE user_id = ? AND is_active = ?
	`
	rows, err := r.db.Query(ctx, query, userID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.PushToken
	for rows.Next() {
		var t models.PushToken
		err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.IsActive, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

// RegisterToken stores a device token for a user, reactivating it if
// it was previously deactivated.
func (r *TokenRepository) RegisterToken(ctx context.Context, userID int64, token, platform string) error {
	// Delete-then-insert keeps the upsert portable across dialects
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, `DELETE FROM push_tokens WHERE user_id = ? AND token = ?`, userID, token); err != nil {
		return fmt.Errorf("failed to clear push token: %w", err)
	}

	query := `INSERT INTO push_tokens (user_id, token, platform, is_active) VALUES (?, ?, ?, ?)`
	if _, err := tx.Exec(ctx, query, userID, token, platform, true); err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}

	return tx.Commit()
}

// DeactivateToken marks a device token inactive without deleting it
func (r *TokenRepository) DeactivateToken(ctx context.Context, userID int64, token string) (bool, error) {
	query := `UPDATE push_tokens SET is_active = ? WHERE user_id = ? AND token = ?`
	result, err := r.db.Exec(ctx, query, false, userID, token)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate push token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
