package models

import "time"

// AdherenceStreak is the rolling adherence summary shown to the
// patient. LongestStreak is always >= CurrentStreak when both are
// computed from the same history.
type AdherenceStreak struct {
	CurrentStreak   int
	LongestStreak   int
	LastTakenDate   *time.Time
	WeeklyAdherence int // percentage 0-100
}

// IsNewRecord reports whether the current streak ties or beats the
// longest recorded one. A zero streak never counts as a record.
func (s *AdherenceStreak) IsNewRecord() bool {
	return s.CurrentStreak >= s.LongestStreak && s.CurrentStreak > 0
}

// DayOutcome is the aggregated adherence result for one calendar day.
// A day is kept only when every dose scheduled that day was taken.
type DayOutcome struct {
	Date time.Time
	Kept bool
}
