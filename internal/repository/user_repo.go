package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser creates a new account with a password hash
func (r *UserRepository) CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error) {
	query := `INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// CreateOAuthUser creates a new account linked to an OAuth identity
func (r *UserRepository) CreateOAuthUser(ctx context.Context, email, name, provider, subject string) (*models.User, error) {
	query := `INSERT INTO users (email, name, oauth_provider, oauth_subject) VALUES (?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(ctx, query, email, name, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, or nil if none exists
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at
		FROM users WHERE email = ?
	`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// GetUserByOAuth retrieves a user by OAuth provider and subject, or nil
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at
		FROM users WHERE oauth_provider = ? AND oauth_subject = ?
	`
	user, err := r.scanUser(r.db.QueryRow(ctx, query, provider, subject))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

// LinkOAuthIdentity records an OAuth provider and subject on an
// existing account so later sign-ins resolve by identity, not email.
func (r *UserRepository) LinkOAuthIdentity(ctx context.Context, userID int64, provider, subject string) error {
	query := `UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, query, provider, subject, time.Now(), userID)
	return err
}

// AddCoins credits coins to a user's balance
func (r *UserRepository) AddCoins(ctx context.Context, userID int64, amount int) error {
	query := `UPDATE users SET coins = coins + ?, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, query, amount, time.Now(), userID)
	return err
}

// GetCoins returns a user's coin balance
func (r *UserRepository) GetCoins(ctx context.Context, userID int64) (int, error) {
	var coins int
	err := r.db.QueryRow(ctx, `SELECT coins FROM users WHERE id = ?`, userID).Scan(&coins)
	return coins, err
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
