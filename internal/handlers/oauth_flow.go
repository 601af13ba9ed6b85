package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type oauthUserInfo struct {
	Subject string
	Email   string
	Name    string
}

// StartOAuth initiates the Google sign-in flow
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil || h.oauthConfig.ClientID == "" || h.oauthConfig.ClientSecret == "" {
		respondError(w, http.StatusBadRequest, "Google sign-in is not configured", "", nil)
		return
	}

	state := uuid.NewString()
	h.setTempCookie(w, "oauth_state", state, 10*time.Minute)

	config := *h.oauthConfig
	config.RedirectURL = h.oauthRedirectURL()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OAuthCallback handles the Google redirect, exchanges the code, and
// hands the mobile app a bearer token via the app redirect URL.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauthConfig == nil || h.oauthConfig.ClientID == "" || h.oauthConfig.ClientSecret == "" {
		respondError(w, http.StatusBadRequest, "Google sign-in is not configured", "", nil)
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "Missing authorization code", "", nil)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		respondError(w, http.StatusBadRequest, "Invalid OAuth state", "", nil)
		return
	}
	h.clearTempCookie(w, "oauth_state")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *h.oauthConfig
	config.RedirectURL = h.oauthRedirectURL()

	token, err := config.Exchange(ctx, code)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to exchange OAuth code", "OAuth code exchange failed", err)
		return
	}

	userInfo, err := fetchGoogleUser(ctx, token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to fetch Google account info", "Google userinfo request failed", err)
		return
	}

	_, bearer, err := h.authService.LoginOAuth(ctx, "google", userInfo.Subject, userInfo.Email, userInfo.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Sign-in failed", "OAuth login failed", err)
		return
	}

	redirect := fmt.Sprintf("%s/auth/complete?%s",
		strings.TrimRight(h.appBaseURL, "/"),
		url.Values{"token": []string{bearer}}.Encode())
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func fetchGoogleUser(ctx context.Context, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch Google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse Google user info: %w", err)
	}

	return oauthUserInfo{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

func (h *AuthHandler) oauthRedirectURL() string {
	return fmt.Sprintf("%s/auth/google/callback", strings.TrimRight(h.oauthRedirectBase, "/"))
}

func (h *AuthHandler) setTempCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearTempCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
