package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/repository"
)

var (
	ErrMedicationNotFound = errors.New("medication not found")
	ErrDoseNotFound       = errors.New("dose not found")
	ErrNotDoseOwner       = errors.New("dose does not belong to this patient")
	ErrInvalidTransition  = errors.New("dose status transition not allowed")
)

// Coins credited per taken dose, and the bonus when a taken dose
// extends the streak to a multiple of seven days.
const (
	coinsPerTakenDose = 10
	coinsStreakBonus  = 50
	streakBonusEvery  = 7
)

// CoinLedger is the write capability for crediting gamification coins.
type CoinLedger interface {
	AddCoins(ctx context.Context, userID int64, amount int) error
}

// MedicationService handles medication and dose business logic
type MedicationService struct {
	medRepo   *repository.MedicationRepository
	coins     CoinLedger
	adherence *AdherenceService
}

// NewMedicationService creates a new medication service
func NewMedicationService(medRepo *repository.MedicationRepository, coins CoinLedger, adherence *AdherenceService) *MedicationService {
	return &MedicationService{
		medRepo:   medRepo,
		coins:     coins,
		adherence: adherence,
	}
}

// CreateMedication creates a medication and schedules its doses: one
// dose per daily time, repeated for the given number of days starting
// today. Daily times are "HH:MM" strings in the patient's local day.
func (s *MedicationService) CreateMedication(ctx context.Context, med *models.Medication, dailyTimes []string, days int) (*models.Medication, error) {
	if med.Name == "" {
		return nil, errors.New("medication name is required")
	}
	if days <= 0 {
		days = 1
	}

	created, err := s.medRepo.CreateMedication(ctx, med)
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	today := time.Now()
	startOfDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	for day := 0; day < days; day++ {
		for _, hhmm := range dailyTimes {
			t, err := time.Parse("15:04", hhmm)
			if err != nil {
				return nil, fmt.Errorf("invalid dose time %q: %w", hhmm, err)
			}
			scheduledAt := startOfDay.AddDate(0, 0, day).
				Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
			if _, err := s.medRepo.CreateDose(ctx, created.ID, scheduledAt); err != nil {
				return nil, fmt.Errorf("failed to schedule dose: %w", err)
			}
		}
	}

	return s.medRepo.GetMedicationByID(ctx, created.ID)
}

// GetPatientMedications retrieves all medications for a patient
func (s *MedicationService) GetPatientMedications(ctx context.Context, patientID int64) ([]models.Medication, error) {
	return s.medRepo.GetPatientMedications(ctx, patientID)
}

// DeleteMedication removes a patient's medication
func (s *MedicationService) DeleteMedication(ctx context.Context, patientID, medicationID int64) error {
	med, err := s.medRepo.GetMedicationByID(ctx, medicationID)
	if err != nil {
		return err
	}
	if med == nil || med.PatientID != patientID {
		return ErrMedicationNotFound
	}
	return s.medRepo.DeleteMedication(ctx, medicationID)
}

// TakeDose marks a dose taken and credits coins. A taken dose that
// completes a streak multiple of seven days earns a bonus.
func (s *MedicationService) TakeDose(ctx context.Context, patientID, doseID int64) (*models.Dose, error) {
	dose, err := s.transition(ctx, patientID, doseID, models.DoseStatusTaken)
	if err != nil {
		return nil, err
	}

	coins := coinsPerTakenDose
	if streak, err := s.adherence.GetStreak(ctx, patientID); err == nil {
		if streak.CurrentStreak > 0 && streak.CurrentStreak%streakBonusEvery == 0 {
			coins += coinsStreakBonus
		}
	}
	if err := s.coins.AddCoins(ctx, patientID, coins); err != nil {
		// Coins are cosmetic; a failed credit must not undo the dose.
		log.Printf("Failed to credit coins to user %d: %v", patientID, err)
	}

	return dose, nil
}

// SkipDose marks a dose deliberately skipped
func (s *MedicationService) SkipDose(ctx context.Context, patientID, doseID int64) (*models.Dose, error) {
	return s.transition(ctx, patientID, doseID, models.DoseStatusSkipped)
}

// SnoozeDose pushes a pending dose out by the given duration
func (s *MedicationService) SnoozeDose(ctx context.Context, patientID, doseID int64, d time.Duration) (*models.Dose, error) {
	if d <= 0 {
		d = 15 * time.Minute
	}

	dose, patientOwner, err := s.medRepo.GetDoseByID(ctx, doseID)
	if err != nil {
		return nil, err
	}
	if dose == nil {
		return nil, ErrDoseNotFound
	}
	if patientOwner != patientID {
		return nil, ErrNotDoseOwner
	}
	if !dose.CanTransition(models.DoseStatusSnoozed) {
		return nil, ErrInvalidTransition
	}

	until := time.Now().Add(d)
	ok, err := s.medRepo.UpdateDoseStatus(ctx, doseID, dose.Status, models.DoseStatusSnoozed, nil, &until)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another transition on the same dose.
		return nil, ErrInvalidTransition
	}

	dose.Status = models.DoseStatusSnoozed
	dose.SnoozeUntil = &until
	return dose, nil
}

// SweepOverdueDoses marks pending and lapsed snoozed doses from
// before today as missed. Run periodically from the server loop.
func (s *MedicationService) SweepOverdueDoses(ctx context.Context) (int64, error) {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.medRepo.MarkOverdueDosesMissed(ctx, startOfToday)
}

func (s *MedicationService) transition(ctx context.Context, patientID, doseID int64, to models.DoseStatus) (*models.Dose, error) {
	dose, patientOwner, err := s.medRepo.GetDoseByID(ctx, doseID)
	if err != nil {
		return nil, err
	}
	if dose == nil {
		return nil, ErrDoseNotFound
	}
	if patientOwner != patientID {
		return nil, ErrNotDoseOwner
	}
	if !dose.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	var takenAt *time.Time
	if to == models.DoseStatusTaken {
		now := time.Now()
		takenAt = &now
	}

	ok, err := s.medRepo.UpdateDoseStatus(ctx, doseID, dose.Status, to, takenAt, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	dose.Status = to
	dose.TakenAt = takenAt
	dose.SnoozeUntil = nil
	return dose, nil
}
