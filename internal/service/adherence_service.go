package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"medtrack/internal/models"
)

// adherenceHistoryDays bounds how far back streak derivation looks.
const adherenceHistoryDays = 365

// DoseHistoryReader is the read capability adherence derivation needs.
type DoseHistoryReader interface {
	GetResolvedDoses(ctx context.Context, patientID int64, from time.Time) ([]models.Dose, error)
}

// AdherenceService derives streaks and weekly adherence from dose history
type AdherenceService struct {
	doses DoseHistoryReader
}

// NewAdherenceService creates a new adherence service
func NewAdherenceService(doses DoseHistoryReader) *AdherenceService {
	return &AdherenceService{doses: doses}
}

// GetStreak computes the rolling adherence summary for a patient
func (s *AdherenceService) GetStreak(ctx context.Context, patientID int64) (*models.AdherenceStreak, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -adherenceHistoryDays)

	doses, err := s.doses.GetResolvedDoses(ctx, patientID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load dose history: %w", err)
	}

	outcomes := DeriveDayOutcomes(doses)
	current, longest := ComputeStreak(outcomes)

	streak := &models.AdherenceStreak{
		CurrentStreak:   current,
		LongestStreak:   longest,
		WeeklyAdherence: WeeklyAdherence(doses, now),
	}

	if last := lastTakenDate(doses); !last.IsZero() {
		streak.LastTakenDate = &last
	}

	return streak, nil
}

// DeriveDayOutcomes aggregates doses into one adherence outcome per
// calendar day, oldest first. A day has a known outcome only once
// every dose scheduled that day is resolved (no pending or snoozed
// doses remain); it is kept only when all of them were taken.
func DeriveDayOutcomes(doses []models.Dose) []models.DayOutcome {
	type dayState struct {
		allTaken bool
		resolved bool
	}

	days := make(map[string]*dayState)
	var order []string

	for _, dose := range doses {
		key := dose.ScheduledAt.Format("2006-01-02")
		state, ok := days[key]
		if !ok {
			state = &dayState{allTaken: true, resolved: true}
			days[key] = state
			order = append(order, key)
		}
		switch dose.Status {
		case models.DoseStatusTaken:
		case models.DoseStatusPending, models.DoseStatusSnoozed:
			state.resolved = false
		default:
			state.allTaken = false
		}
	}

	sort.Strings(order)

	var outcomes []models.DayOutcome
	for _, key := range order {
		state := days[key]
		if !state.resolved {
			continue
		}
		date, _ := time.Parse("2006-01-02", key)
		outcomes = append(outcomes, models.DayOutcome{Date: date, Kept: state.allTaken})
	}

	return outcomes
}

// ComputeStreak walks day outcomes (oldest first) and returns the
// current and longest streaks of consecutive kept days. The current
// streak counts back from the most recent day with a known outcome;
// any unkept day resets it for all days at or before it.
func ComputeStreak(outcomes []models.DayOutcome) (current, longest int) {
	run := 0
	for _, day := range outcomes {
		if day.Kept {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	current = run
	return current, longest
}

// WeeklyAdherence returns the percentage of doses scheduled within the
// trailing 7-day window that were taken, rounded to the nearest
// integer. Defined as 0 when nothing was scheduled in the window.
func WeeklyAdherence(doses []models.Dose, now time.Time) int {
	windowStart := now.AddDate(0, 0, -7)

	scheduled := 0
	taken := 0
	for _, dose := range doses {
		if dose.ScheduledAt.Before(windowStart) || dose.ScheduledAt.After(now) {
			continue
		}
		scheduled++
		if dose.Status == models.DoseStatusTaken {
			taken++
		}
	}

	if scheduled == 0 {
		return 0
	}
	return int(math.Round(float64(taken) / float64(scheduled) * 100))
}

func lastTakenDate(doses []models.Dose) time.Time {
	var last time.Time
	for _, dose := range doses {
		if dose.TakenAt != nil && dose.TakenAt.After(last) {
			last = *dose.TakenAt
		}
	}
	return last
}
