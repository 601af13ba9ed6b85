package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/oauth2"

	"medtrack/internal/repository"
	"medtrack/internal/service"
	"medtrack/internal/validation"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	userRepo    *repository.UserRepository

	oauthConfig       *oauth2.Config
	oauthRedirectBase string
	appBaseURL        string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, userRepo *repository.UserRepository, oauthConfig *oauth2.Config, oauthRedirectBase, appBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		userRepo:          userRepo,
		oauthConfig:       oauthConfig,
		oauthRedirectBase: oauthRedirectBase,
		appBaseURL:        appBaseURL,
	}
}

// Register handles account creation
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		var validationErr validation.ValidationError
		switch {
		case errors.As(err, &validationErr):
			respondError(w, http.StatusBadRequest, validationErr.Error(), "", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(w, http.StatusConflict, "An account with that email already exists", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Registration failed", "Registration failed", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserView(user, 0)})
}

// Login handles credential login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Login failed", "Login failed", err)
		return
	}

	coins, err := h.userRepo.GetCoins(r.Context(), user.ID)
	if err != nil {
		coins = 0
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserView(user, coins)})
}

// Me returns the authenticated user's account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load account", "Failed to load account", err)
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "Account not found", "", nil)
		return
	}

	coins, err := h.userRepo.GetCoins(r.Context(), userID)
	if err != nil {
		coins = 0
	}

	respondJSON(w, http.StatusOK, toUserView(user, coins))
}
