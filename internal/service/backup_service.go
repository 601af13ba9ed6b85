package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"medtrack/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	DatabaseType  string               `json:"database_type"`
	Users         []UserBackup         `json:"users"`
	Profiles      []ProfileBackup      `json:"profiles"`
	Medications   []MedicationBackup   `json:"medications"`
	Doses         []DoseBackup         `json:"doses"`
	Invitations   []InvitationBackup   `json:"invitations"`
	Relationships []RelationshipBackup `json:"relationships"`
	Preferences   []PreferenceBackup   `json:"preferences"`
	PushTokens    []PushTokenBackup    `json:"push_tokens"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	Coins         int       `json:"coins"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileBackup represents a patient profile record for backup
type ProfileBackup struct {
	UserID                int64     `json:"user_id"`
	Allergies             string    `json:"allergies"`
	Conditions            string    `json:"conditions"`
	EmergencyName         string    `json:"emergency_name"`
	EmergencyPhone        string    `json:"emergency_phone"`
	EmergencyRelationship string    `json:"emergency_relationship"`
	PharmacyName          string    `json:"pharmacy_name"`
	PharmacyPhone         string    `json:"pharmacy_phone"`
	PharmacyAddress       string    `json:"pharmacy_address"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// MedicationBackup represents a medication record for backup
type MedicationBackup struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient_id"`
	Name         string    `json:"name"`
	Strength     string    `json:"strength"`
	Form         string    `json:"form"`
	Instructions string    `json:"instructions"`
	Warnings     string    `json:"warnings"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DoseBackup represents a scheduled dose record for backup
type DoseBackup struct {
	ID           int64      `json:"id"`
	MedicationID int64      `json:"medication_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Bucket       string     `json:"bucket"`
	Status       string     `json:"status"`
	TakenAt      *time.Time `json:"taken_at"`
	SnoozeUntil  *time.Time `json:"snooze_until"`
}

// InvitationBackup represents a caregiver invitation for backup
type InvitationBackup struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	PatientID     int64      `json:"patient_id"`
	Label         string     `json:"label"`
	Email         string     `json:"email"`
	ViewMeds      bool       `json:"view_medications"`
	ViewAdherence bool       `json:"view_adherence"`
	ViewProfile   bool       `json:"view_profile"`
	ReceiveAlerts bool       `json:"receive_alerts"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	AcceptedAt    *time.Time `json:"accepted_at"`
	AcceptedBy    *int64     `json:"accepted_by"`
}

// RelationshipBackup represents a caregiver relationship for backup
type RelationshipBackup struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	CaregiverID   int64     `json:"caregiver_id"`
	Relationship  string    `json:"relationship"`
	ViewMeds      bool      `json:"view_medications"`
	ViewAdherence bool      `json:"view_adherence"`
	ViewProfile   bool      `json:"view_profile"`
	ReceiveAlerts bool      `json:"receive_alerts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PreferenceBackup represents a user preference record for backup
type PreferenceBackup struct {
	UserID int64  `json:"user_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// PushTokenBackup represents a push token record for backup
type PushTokenBackup struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportUsers(ctx, backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportProfiles(ctx, backup); err != nil {
		return fmt.Errorf("failed to export profiles: %w", err)
	}
	if err := s.exportMedications(ctx, backup); err != nil {
		return fmt.Errorf("failed to export medications: %w", err)
	}
	if err := s.exportDoses(ctx, backup); err != nil {
		return fmt.Errorf("failed to export doses: %w", err)
	}
	if err := s.exportInvitations(ctx, backup); err != nil {
		return fmt.Errorf("failed to export invitations: %w", err)
	}
	if err := s.exportRelationships(ctx, backup); err != nil {
		return fmt.Errorf("failed to export relationships: %w", err)
	}
	if err := s.exportPreferences(ctx, backup); err != nil {
		return fmt.Errorf("failed to export preferences: %w", err)
	}
	if err := s.exportPushTokens(ctx, backup); err != nil {
		return fmt.Errorf("failed to export push tokens: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d medications, %d doses, %d invitations, %d relationships",
		len(backup.Users), len(backup.Medications), len(backup.Doses),
		len(backup.Invitations), len(backup.Relationships))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of dependencies
	if err := s.importUsers(ctx, backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importProfiles(ctx, backup.Profiles); err != nil {
		return fmt.Errorf("failed to import profiles: %w", err)
	}
	if err := s.importMedications(ctx, backup.Medications); err != nil {
		return fmt.Errorf("failed to import medications: %w", err)
	}
	if err := s.importDoses(ctx, backup.Doses); err != nil {
		return fmt.Errorf("failed to import doses: %w", err)
	}
	if err := s.importInvitations(ctx, backup.Invitations); err != nil {
		return fmt.Errorf("failed to import invitations: %w", err)
	}
	if err := s.importRelationships(ctx, backup.Relationships); err != nil {
		return fmt.Errorf("failed to import relationships: %w", err)
	}
	if err := s.importPreferences(ctx, backup.Preferences); err != nil {
		return fmt.Errorf("failed to import preferences: %w", err)
	}
	if err := s.importPushTokens(ctx, backup.PushTokens); err != nil {
		return fmt.Errorf("failed to import push tokens: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, oauth_provider, oauth_subject, coins, created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.Coins, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportProfiles(ctx context.Context, backup *BackupData) error {
	query := "SELECT user_id, allergies, conditions, emergency_name, emergency_phone, emergency_relationship, pharmacy_name, pharmacy_phone, pharmacy_address, updated_at FROM profiles ORDER BY user_id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProfileBackup
		if err := rows.Scan(&p.UserID, &p.Allergies, &p.Conditions, &p.EmergencyName, &p.EmergencyPhone, &p.EmergencyRelationship, &p.PharmacyName, &p.PharmacyPhone, &p.PharmacyAddress, &p.UpdatedAt); err != nil {
			return err
		}
		backup.Profiles = append(backup.Profiles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportMedications(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, patient_id, name, strength, form, instructions, warnings, created_at, updated_at FROM medications ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MedicationBackup
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Strength, &m.Form, &m.Instructions, &m.Warnings, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return err
		}
		backup.Medications = append(backup.Medications, m)
	}
	return rows.Err()
}

func (s *BackupService) exportDoses(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, medication_id, scheduled_at, bucket, status, taken_at, snooze_until FROM doses ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d DoseBackup
		var takenAt, snoozeUntil sql.NullTime
		if err := rows.Scan(&d.ID, &d.MedicationID, &d.ScheduledAt, &d.Bucket, &d.Status, &takenAt, &snoozeUntil); err != nil {
			return err
		}
		if takenAt.Valid {
			d.TakenAt = &takenAt.Time
		}
		if snoozeUntil.Valid {
			d.SnoozeUntil = &snoozeUntil.Time
		}
		backup.Doses = append(backup.Doses, d)
	}
	return rows.Err()
}

func (s *BackupService) exportInvitations(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, code, patient_id, label, email, view_medications, view_adherence, view_profile, receive_alerts, status, created_at, expires_at, accepted_at, accepted_by FROM caregiver_invitations ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i InvitationBackup
		var acceptedAt sql.NullTime
		var acceptedBy sql.NullInt64
		if err := rows.Scan(&i.ID, &i.Code, &i.PatientID, &i.Label, &i.Email, &i.ViewMeds, &i.ViewAdherence, &i.ViewProfile, &i.ReceiveAlerts, &i.Status, &i.CreatedAt, &i.ExpiresAt, &acceptedAt, &acceptedBy); err != nil {
			return err
		}
		if acceptedAt.Valid {
			i.AcceptedAt = &acceptedAt.Time
		}
		if acceptedBy.Valid {
			i.AcceptedBy = &acceptedBy.Int64
		}
		backup.Invitations = append(backup.Invitations, i)
	}
	return rows.Err()
}

func (s *BackupService) exportRelationships(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, patient_id, caregiver_id, relationship, view_medications, view_adherence, view_profile, receive_alerts, created_at, updated_at FROM caregiver_relationships ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r RelationshipBackup
		if err := rows.Scan(&r.ID, &r.PatientID, &r.CaregiverID, &r.Relationship, &r.ViewMeds, &r.ViewAdherence, &r.ViewProfile, &r.ReceiveAlerts, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return err
		}
		backup.Relationships = append(backup.Relationships, r)
	}
	return rows.Err()
}

func (s *BackupService) exportPreferences(ctx context.Context, backup *BackupData) error {
	// "key" is a reserved word on MySQL and must be quoted.
	k := s.db.Dialect.QuoteIdent("key")
	query := fmt.Sprintf("SELECT user_id, %s, value FROM preferences ORDER BY user_id, %s", k, k)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PreferenceBackup
		if err := rows.Scan(&p.UserID, &p.Key, &p.Value); err != nil {
			return err
		}
		backup.Preferences = append(backup.Preferences, p)
	}
	return rows.Err()
}

func (s *BackupService) exportPushTokens(ctx context.Context, backup *BackupData) error {
	query := "SELECT id, user_id, token, platform, is_active, created_at FROM push_tokens ORDER BY id"
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t PushTokenBackup
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.IsActive, &t.CreatedAt); err != nil {
			return err
		}
		backup.PushTokens = append(backup.PushTokens, t)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(ctx context.Context, users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, coins, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.Coins, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importProfiles(ctx context.Context, profiles []ProfileBackup) error {
	log.Printf("Importing %d profiles...", len(profiles))
	for _, p := range profiles {
		query := "INSERT INTO profiles (user_id, allergies, conditions, emergency_name, emergency_phone, emergency_relationship, pharmacy_name, pharmacy_phone, pharmacy_address, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, p.UserID, p.Allergies, p.Conditions, p.EmergencyName, p.EmergencyPhone, p.EmergencyRelationship, p.PharmacyName, p.PharmacyPhone, p.PharmacyAddress, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import profile for user %d: %w", p.UserID, err)
		}
	}
	return nil
}

func (s *BackupService) importMedications(ctx context.Context, meds []MedicationBackup) error {
	log.Printf("Importing %d medications...", len(meds))
	for _, m := range meds {
		query := "INSERT INTO medications (id, patient_id, name, strength, form, instructions, warnings, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, m.ID, m.PatientID, m.Name, m.Strength, m.Form, m.Instructions, m.Warnings, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import medication %d: %w", m.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importDoses(ctx context.Context, doses []DoseBackup) error {
	log.Printf("Importing %d doses...", len(doses))
	for _, d := range doses {
		var takenAt interface{} = nil
		if d.TakenAt != nil {
			takenAt = *d.TakenAt
		}
		var snoozeUntil interface{} = nil
		if d.SnoozeUntil != nil {
			snoozeUntil = *d.SnoozeUntil
		}
		query := "INSERT INTO doses (id, medication_id, scheduled_at, bucket, status, taken_at, snooze_until) VALUES (?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, d.ID, d.MedicationID, d.ScheduledAt, d.Bucket, d.Status, takenAt, snoozeUntil)
		if err != nil {
			return fmt.Errorf("failed to import dose %d: %w", d.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importInvitations(ctx context.Context, invitations []InvitationBackup) error {
	log.Printf("Importing %d invitations...", len(invitations))
	for _, i := range invitations {
		var acceptedAt interface{} = nil
		if i.AcceptedAt != nil {
			acceptedAt = *i.AcceptedAt
		}
		var acceptedBy interface{} = nil
		if i.AcceptedBy != nil {
			acceptedBy = *i.AcceptedBy
		}
		query := "INSERT INTO caregiver_invitations (id, code, patient_id, label, email, view_medications, view_adherence, view_profile, receive_alerts, status, created_at, expires_at, accepted_at, accepted_by) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, i.ID, i.Code, i.PatientID, i.Label, i.Email, i.ViewMeds, i.ViewAdherence, i.ViewProfile, i.ReceiveAlerts, i.Status, i.CreatedAt, i.ExpiresAt, acceptedAt, acceptedBy)
		if err != nil {
			return fmt.Errorf("failed to import invitation %d: %w", i.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importRelationships(ctx context.Context, rels []RelationshipBackup) error {
	log.Printf("Importing %d relationships...", len(rels))
	for _, r := range rels {
		query := "INSERT INTO caregiver_relationships (id, patient_id, caregiver_id, relationship, view_medications, view_adherence, view_profile, receive_alerts, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, r.ID, r.PatientID, r.CaregiverID, r.Relationship, r.ViewMeds, r.ViewAdherence, r.ViewProfile, r.ReceiveAlerts, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import relationship %d: %w", r.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPreferences(ctx context.Context, prefs []PreferenceBackup) error {
	log.Printf("Importing %d preferences...", len(prefs))
	for _, p := range prefs {
		query := fmt.Sprintf("INSERT INTO preferences (user_id, %s, value) VALUES (?, ?, ?)",
			s.db.Dialect.QuoteIdent("key"))
		_, err := s.db.Exec(ctx, query, p.UserID, p.Key, p.Value)
		if err != nil {
			return fmt.Errorf("failed to import preference %s for user %d: %w", p.Key, p.UserID, err)
		}
	}
	return nil
}

func (s *BackupService) importPushTokens(ctx context.Context, tokens []PushTokenBackup) error {
	log.Printf("Importing %d push tokens...", len(tokens))
	for _, t := range tokens {
		query := "INSERT INTO push_tokens (id, user_id, token, platform, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		_, err := s.db.Exec(ctx, query, t.ID, t.UserID, t.Token, t.Platform, t.IsActive, t.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import push token %d: %w", t.ID, err)
		}
	}
	return nil
}
