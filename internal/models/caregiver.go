package models

import "time"

// Invitation status values. Accepted, expired and cancelled are
// terminal; a terminal invitation is never modified again.
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusExpired   = "expired"
	InvitationStatusCancelled = "cancelled"
)

// CapabilityFlags are the independent read-only views a caregiver can
// be granted over a patient's data. Each flag gates one view and
// nothing else.
type CapabilityFlags struct {
	ViewMedications bool
	ViewAdherence   bool
	ViewProfile     bool
	ReceiveAlerts   bool
}

// AllCapabilities returns flags with every view granted.
func AllCapabilities() CapabilityFlags {
	return CapabilityFlags{
		ViewMedications: true,
		ViewAdherence:   true,
		ViewProfile:     true,
		ReceiveAlerts:   true,
	}
}

// CaregiverRelationship is a granted caregiving link. It is a grant
// record referenced by both patient and caregiver but owned by
// neither; its lifecycle is independent of both profiles.
type CaregiverRelationship struct {
	ID           int64
	PatientID    int64
	CaregiverID  int64
	Relationship string
	Flags        CapabilityFlags
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CaregiverInvitation is a pending or resolved invite. Codes are
// stored uppercase and compared case-insensitively.
type CaregiverInvitation struct {
	ID          int64
	Code        string
	PatientID   int64
	Label       string
	Flags       CapabilityFlags
	Email       string
	Status      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	AcceptedBy  *int64
	PatientName string // populated via JOIN for display
}

// IsExpired checks if the invitation is past its expiry.
func (i *CaregiverInvitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsPending checks if the invitation is still open.
func (i *CaregiverInvitation) IsPending() bool {
	return i.Status == InvitationStatusPending
}

// IsAcceptable reports whether the invitation can still be accepted.
func (i *CaregiverInvitation) IsAcceptable() bool {
	return i.IsPending() && !i.IsExpired()
}
