package handlers

import (
	"encoding/json"
	"net/http"

	"medtrack/internal/models"
	"medtrack/internal/service"
)

// ProfileHandler handles patient profile HTTP requests
type ProfileHandler struct {
	patients *service.PatientService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(patients *service.PatientService) *ProfileHandler {
	return &ProfileHandler{patients: patients}
}

// GetProfile returns the authenticated user's profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	profile, err := h.patients.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load profile", "Failed to load profile", err)
		return
	}

	respondJSON(w, http.StatusOK, toProfileView(profile))
}

// UpdateProfile replaces the authenticated user's profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req profileView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	profile := &models.UserProfile{
		UserID:     userID,
		Allergies:  req.Allergies,
		Conditions: req.Conditions,
	}
	if req.EmergencyContact != nil {
		profile.EmergencyContact = &models.EmergencyContact{
			Name:         req.EmergencyContact.Name,
			Phone:        req.EmergencyContact.Phone,
			Relationship: req.EmergencyContact.Relationship,
		}
	}
	if req.Pharmacy != nil {
		profile.Pharmacy = &models.Pharmacy{
			Name:    req.Pharmacy.Name,
			Phone:   req.Pharmacy.Phone,
			Address: req.Pharmacy.Address,
		}
	}

	if err := h.patients.SaveProfile(r.Context(), profile); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save profile", "Failed to save profile", err)
		return
	}

	saved, err := h.patients.GetProfile(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load profile", "Failed to reload profile", err)
		return
	}

	respondJSON(w, http.StatusOK, toProfileView(saved))
}
