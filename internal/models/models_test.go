package models

import (
	"testing"
	"time"
)

func TestDoseCanTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     DoseStatus
		to       DoseStatus
		expected bool
	}{
		{"pending to taken", DoseStatusPending, DoseStatusTaken, true},
		{"pending to skipped", DoseStatusPending, DoseStatusSkipped, true},
		{"pending to snoozed", DoseStatusPending, DoseStatusSnoozed, true},
		{"pending to missed", DoseStatusPending, DoseStatusMissed, true},
		{"snoozed to taken", DoseStatusSnoozed, DoseStatusTaken, true},
		{"snoozed to missed", DoseStatusSnoozed, DoseStatusMissed, true},
		{"snoozed to skipped", DoseStatusSnoozed, DoseStatusSkipped, false},
		{"snoozed to snoozed", DoseStatusSnoozed, DoseStatusSnoozed, false},
		{"taken is terminal", DoseStatusTaken, DoseStatusSkipped, false},
		{"skipped is terminal", DoseStatusSkipped, DoseStatusTaken, false},
		{"missed is terminal", DoseStatusMissed, DoseStatusTaken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dose := Dose{Status: tt.from}
			if got := dose.CanTransition(tt.to); got != tt.expected {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestTimeOfDayBucket(t *testing.T) {
	tests := []struct {
		hour     int
		expected string
	}{
		{6, "morning"},
		{11, "morning"},
		{12, "afternoon"},
		{16, "afternoon"},
		{17, "evening"},
		{20, "evening"},
		{21, "night"},
		{3, "night"},
	}

	for _, tt := range tests {
		at := time.Date(2026, 3, 10, tt.hour, 0, 0, 0, time.UTC)
		if got := TimeOfDayBucket(at); got != tt.expected {
			t.Errorf("TimeOfDayBucket(hour=%d) = %s, want %s", tt.hour, got, tt.expected)
		}
	}
}

func TestInvitationIsAcceptable(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name       string
		invitation CaregiverInvitation
		expected   bool
	}{
		{"pending and unexpired", CaregiverInvitation{Status: "pending", ExpiresAt: future}, true},
		{"pending but expired", CaregiverInvitation{Status: "pending", ExpiresAt: past}, false},
		{"accepted", CaregiverInvitation{Status: "accepted", ExpiresAt: future}, false},
		{"cancelled", CaregiverInvitation{Status: "cancelled", ExpiresAt: future}, false},
		{"expired status", CaregiverInvitation{Status: "expired", ExpiresAt: future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.invitation.IsAcceptable(); got != tt.expected {
				t.Errorf("IsAcceptable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStreakIsNewRecord(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		longest  int
		expected bool
	}{
		{"ties record", 5, 5, true},
		{"beats record", 6, 5, true},
		{"below record", 3, 5, false},
		{"zero never counts", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := AdherenceStreak{CurrentStreak: tt.current, LongestStreak: tt.longest}
			if got := s.IsNewRecord(); got != tt.expected {
				t.Errorf("IsNewRecord() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultAvatar(t *testing.T) {
	avatar := DefaultAvatar()
	if avatar.ItemType != AvatarSentinel {
		t.Errorf("DefaultAvatar().ItemType = %s, want %s", avatar.ItemType, AvatarSentinel)
	}
	if avatar.Icon == "" || avatar.Name == "" {
		t.Error("DefaultAvatar() should have an icon and a name")
	}
}
