package models

import "time"

// User represents an account in the system. The same account type backs
// both patients and caregivers; what a user can see is determined by
// caregiver relationships, not by a role on the account.
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	Name          string
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserProfile holds patient identity and safety information.
type UserProfile struct {
	UserID           int64
	Name             string
	Allergies        []string
	Conditions       []string
	EmergencyContact *EmergencyContact
	Pharmacy         *Pharmacy
	UpdatedAt        time.Time
}

// EmergencyContact is an optional person to reach in an emergency.
type EmergencyContact struct {
	Name         string
	Phone        string
	Relationship string
}

// Pharmacy is the patient's preferred pharmacy.
type Pharmacy struct {
	Name    string
	Phone   string
	Address string
}
