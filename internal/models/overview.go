package models

// PatientOverview is the read model a caregiver sees for one patient.
// Sections are populated only when the corresponding capability flag
// is granted; ungranted sections stay nil.
type PatientOverview struct {
	PatientID   int64
	PatientName string
	Medications []Medication     // requires ViewMedications
	Adherence   *AdherenceStreak // requires ViewAdherence
	Profile     *UserProfile     // requires ViewProfile
}
