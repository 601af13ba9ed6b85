package service

import (
	"context"
	"errors"
	"fmt"

	"medtrack/internal/models"
	"medtrack/internal/security"
	"medtrack/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the account persistence needed for authentication.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name string) (*models.User, error)
	CreateOAuthUser(ctx context.Context, email, name, provider, subject string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error)
	LinkOAuthIdentity(ctx context.Context, userID int64, provider, subject string) error
}

// AuthService handles account registration and login. Successful
// authentication yields a signed bearer token for the API.
type AuthService struct {
	userRepo UserStore
	tokens   *security.TokenIssuer
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserStore, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// Register creates a new account and returns it with a bearer token
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*models.User, string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, email, passwordHash, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login authenticates an email/password pair and returns a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}

	if !security.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// LoginOAuth finds or creates an account for a verified OAuth identity
// and returns a bearer token.
func (s *AuthService) LoginOAuth(ctx context.Context, provider, subject, email, name string) (*models.User, string, error) {
	user, err := s.userRepo.GetUserByOAuth(ctx, provider, subject)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up oauth user: %w", err)
	}

	if user == nil {
		// Fall back to the email so an existing password account links
		// to its OAuth identity instead of duplicating.
		user, err = s.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up user: %w", err)
		}
		if user != nil {
			if err := s.userRepo.LinkOAuthIdentity(ctx, user.ID, provider, subject); err != nil {
				return nil, "", fmt.Errorf("failed to link oauth identity: %w", err)
			}
			user.OAuthProvider = provider
			user.OAuthSubject = subject
		}
	}

	if user == nil {
		user, err = s.userRepo.CreateOAuthUser(ctx, email, name, provider, subject)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create oauth user: %w", err)
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUser retrieves an account by id
func (s *AuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}
