package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/service"
)

// MedicationHandler handles medication and dose HTTP requests
type MedicationHandler struct {
	medications *service.MedicationService
	adherence   *service.AdherenceService
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(medications *service.MedicationService, adherence *service.AdherenceService) *MedicationHandler {
	return &MedicationHandler{medications: medications, adherence: adherence}
}

// ListMedications returns the authenticated patient's medications with
// their scheduled doses.
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	meds, err := h.medications.GetPatientMedications(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load medications", "Failed to load medications", err)
		return
	}

	views := make([]medicationView, 0, len(meds))
	for _, m := range meds {
		views = append(views, toMedicationView(m))
	}
	respondJSON(w, http.StatusOK, views)
}

// CreateMedication adds a medication and schedules its doses
func (h *MedicationHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req createMedicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", "", err)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Medication name is required", "", nil)
		return
	}

	med := &models.Medication{
		PatientID:    userID,
		Name:         req.Name,
		Strength:     req.Strength,
		Form:         req.Form,
		Instructions: req.Instructions,
		Warnings:     req.Warnings,
	}

	created, err := h.medications.CreateMedication(r.Context(), med, req.Times, req.Days)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to create medication", "Failed to create medication", err)
		return
	}

	respondJSON(w, http.StatusCreated, toMedicationView(*created))
}

// DeleteMedication removes a medication owned by the authenticated patient
func (h *MedicationHandler) DeleteMedication(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	medID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid medication ID", "", nil)
		return
	}

	if err := h.medications.DeleteMedication(r.Context(), userID, medID); err != nil {
		if errors.Is(err, service.ErrMedicationNotFound) {
			respondError(w, http.StatusNotFound, "Medication not found", "", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to delete medication", "Failed to delete medication", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// TakeDose marks a dose as taken
func (h *MedicationHandler) TakeDose(w http.ResponseWriter, r *http.Request) {
	h.transitionDose(w, r, func(doseID int64) (*models.Dose, error) {
		return h.medications.TakeDose(r.Context(), UserIDFromContext(r.Context()), doseID)
	})
}

// SkipDose marks a dose as skipped
func (h *MedicationHandler) SkipDose(w http.ResponseWriter, r *http.Request) {
	h.transitionDose(w, r, func(doseID int64) (*models.Dose, error) {
		return h.medications.SkipDose(r.Context(), UserIDFromContext(r.Context()), doseID)
	})
}

// SnoozeDose postpones a pending dose
func (h *MedicationHandler) SnoozeDose(w http.ResponseWriter, r *http.Request) {
	var req snoozeRequest
	if r.Body != nil {
		// A missing or empty body means the default snooze interval.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.transitionDose(w, r, func(doseID int64) (*models.Dose, error) {
		return h.medications.SnoozeDose(r.Context(), UserIDFromContext(r.Context()), doseID, time.Duration(req.Minutes)*time.Minute)
	})
}

func (h *MedicationHandler) transitionDose(w http.ResponseWriter, r *http.Request, fn func(doseID int64) (*models.Dose, error)) {
	doseID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid dose ID", "", nil)
		return
	}

	dose, err := fn(doseID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDoseNotFound):
			respondError(w, http.StatusNotFound, "Dose not found", "", nil)
		case errors.Is(err, service.ErrNotDoseOwner):
			respondError(w, http.StatusForbidden, "Not your dose", "", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(w, http.StatusConflict, "Dose is already resolved", "", nil)
		default:
			respondError(w, http.StatusInternalServerError, "Failed to update dose", "Failed to update dose", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, toDoseView(*dose))
}

// GetStreak returns the authenticated patient's adherence summary
func (h *MedicationHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	streak, err := h.adherence.GetStreak(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute adherence", "Failed to compute adherence", err)
		return
	}

	respondJSON(w, http.StatusOK, toStreakView(streak))
}
