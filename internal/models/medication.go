package models

import "time"

// DoseStatus is the lifecycle state of a scheduled dose.
type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusSkipped DoseStatus = "skipped"
	DoseStatusSnoozed DoseStatus = "snoozed"
	DoseStatusMissed  DoseStatus = "missed"
)

// Time-of-day buckets used to group doses in the schedule view.
const (
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
	BucketNight     = "night"
)

// Medication represents a prescribed drug a patient takes.
// Doses is kept ordered by scheduled time.
type Medication struct {
	ID           int64
	PatientID    int64
	Name         string
	Strength     string
	Form         string
	Instructions string
	Warnings     string
	Doses        []Dose
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Dose is one scheduled administration event.
type Dose struct {
	ID           int64
	MedicationID int64
	ScheduledAt  time.Time
	Bucket       string
	Status       DoseStatus
	TakenAt      *time.Time
	SnoozeUntil  *time.Time
}

// CanTransition reports whether a dose may move to the given status.
// Transitions are one-directional until the day resets: pending may
// move to any terminal state or snoozed, snoozed may only resolve to
// taken or missed.
func (d *Dose) CanTransition(to DoseStatus) bool {
	switch d.Status {
	case DoseStatusPending:
		return to == DoseStatusTaken || to == DoseStatusSkipped ||
			to == DoseStatusSnoozed || to == DoseStatusMissed
	case DoseStatusSnoozed:
		return to == DoseStatusTaken || to == DoseStatusMissed
	default:
		return false
	}
}

// TimeOfDayBucket maps a scheduled time to its display bucket.
func TimeOfDayBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h < 5:
		return BucketNight
	case h < 12:
		return BucketMorning
	case h < 17:
		return BucketAfternoon
	case h < 21:
		return BucketEvening
	default:
		return BucketNight
	}
}
