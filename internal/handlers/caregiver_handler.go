package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"medtrack/internal/models"
	"medtrack/internal/service"
)

// CaregiverHandler handles invitation and relationship HTTP requests
type CaregiverHandler struct {
	caregivers *service.CaregiverService
	patients   *service.PatientService
}

// NewCaregiverHandler creates a new caregiver handler
func NewCaregiverHandler(caregivers *service.CaregiverService, patients *service.PatientService) *CaregiverHandler {
	return &CaregiverHandler{caregivers: caregivers, patients: patients}
}

// CreateInvitation mints a new invite code for the authenticated patient
func (h *CaregiverHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	flags := models.AllCapabilities()
	if req.Flags != nil {
		flags = fromFlagsView(*req.Flags)
	}

	invitation, err := h.caregivers.CreateInvitation(r.Context(), userID, req.Label, req.Email, flags)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create invitation", "Failed to create invitation", err)
		return
	}

	respondJSON(w, http.StatusCreated, toInvitationView(*invitation))
}

// ListInvitations returns the authenticated patient's invitations
func (h *CaregiverHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	invitations, err := h.caregivers.ListInvitations(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load invitations", "Failed to load invitations", err)
		return
	}

	views := make([]invitationView, 0, len(invitations))
	for _, i := range invitations {
		views = append(views, toInvitationView(i))
	}
	respondJSON(w, http.StatusOK, views)
}

// CancelInvitation revokes a pending invitation
func (h *CaregiverHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	invitationID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid invitation ID", "", nil)
		return
	}

	if err := h.caregivers.CancelInvitation(r.Context(), invitationID, userID); err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			respondError(w, http.StatusNotFound, "Invitation not found", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to cancel invitation", "Failed to cancel invitation", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// AcceptInvitation redeems an invite code for the authenticated user.
// The response reports acceptance as a boolean; an invalid, expired,
// or already-used code is a normal false outcome, not an error.
func (h *CaregiverHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	accepted, err := h.caregivers.AcceptInvitation(r.Context(), req.Code, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to accept invitation", "Failed to accept invitation", err)
		return
	}

	respondJSON(w, http.StatusOK, acceptInvitationResponse{Accepted: accepted})
}

// ListCaregivers returns who can see the authenticated patient
func (h *CaregiverHandler) ListCaregivers(w http.ResponseWriter, r *http.Request) {
	h.listRelationships(w, r, h.caregivers.ListCaregivers)
}

// ListPatients returns whom the authenticated caregiver can see
func (h *CaregiverHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	h.listRelationships(w, r, h.caregivers.ListPatients)
}

func (h *CaregiverHandler) listRelationships(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) ([]models.CaregiverRelationship, error)) {
	userID := UserIDFromContext(r.Context())

	rels, err := fn(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load relationships", "Failed to load relationships", err)
		return
	}

	views := make([]relationshipView, 0, len(rels))
	for _, rel := range rels {
		views = append(views, toRelationshipView(rel))
	}
	respondJSON(w, http.StatusOK, views)
}

// UpdateCaregiverFlags adjusts what an existing caregiver may see
func (h *CaregiverHandler) UpdateCaregiverFlags(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	relationshipID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid relationship ID", "", nil)
		return
	}

	var req capabilityFlagsView
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}

	if err := h.caregivers.UpdateCaregiverFlags(r.Context(), relationshipID, userID, fromFlagsView(req)); err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			respondError(w, http.StatusNotFound, "Relationship not found", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to update caregiver", "Failed to update caregiver flags", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// RevokeRelationship removes a caregiving link. Either side may revoke.
func (h *CaregiverHandler) RevokeRelationship(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	relationshipID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid relationship ID", "", nil)
		return
	}

	if err := h.caregivers.RevokeRelationship(r.Context(), relationshipID, userID); err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			respondError(w, http.StatusNotFound, "Relationship not found", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to revoke caregiver", "Failed to revoke relationship", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

// PatientOverview returns the gated read model for one patient the
// authenticated caregiver is linked to.
func (h *CaregiverHandler) PatientOverview(w http.ResponseWriter, r *http.Request) {
	caregiverID := UserIDFromContext(r.Context())

	patientID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid patient ID", "", nil)
		return
	}

	overview, err := h.patients.GetPatientOverview(r.Context(), patientID, caregiverID)
	if err != nil {
		if errors.Is(err, service.ErrNotAuthorized) {
			respondError(w, http.StatusForbidden, "No caregiving relationship with this patient", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to load patient overview", "Failed to load patient overview", err)
		return
	}

	view := overviewView{
		PatientID:   overview.PatientID,
		PatientName: overview.PatientName,
		Adherence:   toStreakView(overview.Adherence),
		Profile:     toProfileView(overview.Profile),
	}
	for _, m := range overview.Medications {
		view.Medications = append(view.Medications, toMedicationView(m))
	}

	respondJSON(w, http.StatusOK, view)
}
