package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"medtrack/internal/models"
	"medtrack/internal/repository"
	"medtrack/internal/service"
)

// NotificationHandler handles push dispatch and token registration
type NotificationHandler struct {
	notifications *service.NotificationService
	tokenRepo     *repository.TokenRepository
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *service.NotificationService, tokenRepo *repository.TokenRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, tokenRepo: tokenRepo}
}

// sendFailure reports a dispatch failure in the endpoint's envelope,
// which carries an explicit success flag alongside the error message.
func sendFailure(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// Send dispatches a push message to every active token of the target
// user. A target with no registered tokens is a success with a zero
// count; only a token lookup failure is a server error.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == 0 {
		sendFailure(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Title == "" {
		sendFailure(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Body == "" {
		sendFailure(w, http.StatusBadRequest, "body is required")
		return
	}

	msg := models.PushMessage{Title: req.Title, Body: req.Body, Data: req.Data}
	result, err := h.notifications.Dispatch(r.Context(), req.UserID, msg)
	if err != nil {
		log.Printf("Notification dispatch failed: %v", err)
		sendFailure(w, http.StatusInternalServerError, "Failed to dispatch notification")
		return
	}

	respondJSON(w, http.StatusOK, sendNotificationResponse{
		Success:           true,
		NotificationsSent: result.NotificationsSent,
		Errors:            result.Errors,
	})
}

// RegisterToken stores a device push token for the authenticated user
func (h *NotificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "token is required", "", nil)
		return
	}
	if req.Platform != models.PlatformIOS && req.Platform != models.PlatformAndroid {
		respondError(w, http.StatusBadRequest, "platform must be ios or android", "", nil)
		return
	}

	if err := h.tokenRepo.RegisterToken(r.Context(), userID, req.Token, req.Platform); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to register token", "Failed to register push token", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]bool{"registered": true})
}

// DeactivateToken retires a device push token for the authenticated user
func (h *NotificationHandler) DeactivateToken(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	found, err := h.tokenRepo.DeactivateToken(r.Context(), userID, req.Token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to deactivate token", "Failed to deactivate push token", err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "Token not found", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"deactivated": true})
}
