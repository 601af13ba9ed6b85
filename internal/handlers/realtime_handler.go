package handlers

import (
	"net/http"

	"medtrack/internal/realtime"
	"medtrack/internal/security"
)

// RealtimeHandler upgrades authenticated clients to a websocket fed by
// the invalidation hub.
type RealtimeHandler struct {
	hub    *realtime.Hub
	tokens *security.TokenIssuer
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *realtime.Hub, tokens *security.TokenIssuer) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, tokens: tokens}
}

// ServeWS authenticates via the token query parameter and attaches the
// connection to the hub. Websocket clients cannot set an Authorization
// header from a browser, so the bearer token rides on the URL.
func (h *RealtimeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Authentication required", "", nil)
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token", "", nil)
		return
	}

	h.hub.ServeWS(w, r, claims.UserID)
}
