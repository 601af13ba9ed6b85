package service

import (
	"context"
	"fmt"
	"log"

	"medtrack/internal/models"
	"medtrack/internal/repository"
)

// PatientService handles profile management and the caregiver-facing
// patient overview.
type PatientService struct {
	profileRepo *repository.ProfileRepository
	userRepo    *repository.UserRepository
	medRepo     *repository.MedicationRepository
	adherence   *AdherenceService
	caregivers  *CaregiverService
}

// NewPatientService creates a new patient service
func NewPatientService(
	profileRepo *repository.ProfileRepository,
	userRepo *repository.UserRepository,
	medRepo *repository.MedicationRepository,
	adherence *AdherenceService,
	caregivers *CaregiverService,
) *PatientService {
	return &PatientService{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		medRepo:     medRepo,
		adherence:   adherence,
		caregivers:  caregivers,
	}
}

// GetProfile retrieves a user's own profile. A user who has never
// saved one gets an empty profile rather than a not-found error.
func (s *PatientService) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	profile, err := s.profileRepo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		user, err := s.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile = &models.UserProfile{UserID: userID, Name: user.Name}
	}
	return profile, nil
}

// SaveProfile stores a user's profile
func (s *PatientService) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	return s.profileRepo.UpsertProfile(ctx, profile)
}

// GetPatientOverview assembles the read model a caregiver sees for a
// patient. Each section is populated only when the relationship grants
// the corresponding view; ungranted sections stay empty. A failure in
// one granted section is logged and leaves that section empty instead
// of failing the whole overview.
func (s *PatientService) GetPatientOverview(ctx context.Context, patientID, caregiverID int64) (*models.PatientOverview, error) {
	rel, err := s.caregivers.GetGrant(ctx, patientID, caregiverID)
	if err != nil {
		return nil, err
	}

	patient, err := s.userRepo.GetUserByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}

	overview := &models.PatientOverview{
		PatientID:   patientID,
		PatientName: patient.Name,
	}

	if rel.Flags.ViewMedications {
		meds, err := s.medRepo.GetPatientMedications(ctx, patientID)
		if err != nil {
			log.Printf("Failed to load medications for overview of patient %d: %v", patientID, err)
		} else {
			overview.Medications = meds
		}
	}

	if rel.Flags.ViewAdherence {
		streak, err := s.adherence.GetStreak(ctx, patientID)
		if err != nil {
			log.Printf("Failed to load adherence for overview of patient %d: %v", patientID, err)
		} else {
			overview.Adherence = streak
		}
	}

	if rel.Flags.ViewProfile {
		profile, err := s.profileRepo.GetProfile(ctx, patientID)
		if err != nil {
			log.Printf("Failed to load profile for overview of patient %d: %v", patientID, err)
		} else {
			overview.Profile = profile
		}
	}

	return overview, nil
}
