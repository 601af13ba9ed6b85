package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// ProfileRepository handles database operations for patient profiles
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a user's profile, or nil if none has been saved
func (r *ProfileRepository) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query := `
		SELECT p.user_id, u.name, p.allergies, p.conditions,
		       p.emergency_name, p.emergency_phone, p.emergency_relationship,
		       p.pharmacy_name, p.pharmacy_phone, p.pharmacy_address, p.updated_at
		FROM profiles p
		INNER JOIN users u ON p.user_id = u.id
		WHERE p.user_id = ?
	`

	profile := &models.UserProfile{}
	var allergies, conditions string
	var emName, emPhone, emRel string
	var phName, phPhone, phAddr string

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Name,
		&allergies,
		&conditions,
		&emName, &emPhone, &emRel,
		&phName, &phPhone, &phAddr,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Allergies = splitList(allergies)
	profile.Conditions = splitList(conditions)
	if emName != "" {
		profile.EmergencyContact = &models.EmergencyContact{
			Name:         emName,
			Phone:        emPhone,
			Relationship: emRel,
		}
	}
	if phName != "" {
		profile.Pharmacy = &models.Pharmacy{
			Name:    phName,
			Phone:   phPhone,
			Address: phAddr,
		}
	}

	return profile, nil
}

// UpsertProfile saves a user's profile, creating the row if needed
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *models.UserProfile) error {
	var emName, emPhone, emRel string
	if profile.EmergencyContact != nil {
		emName = profile.EmergencyContact.Name
		emPhone = profile.EmergencyContact.Phone
		emRel = profile.EmergencyContact.Relationship
	}
	var phName, phPhone, phAddr string
	if profile.Pharmacy != nil {
		phName = profile.Pharmacy.Name
		phPhone = profile.Pharmacy.Phone
		phAddr = profile.Pharmacy.Address
	}

	// Delete-then-insert keeps the upsert portable across dialects
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE user_id = ?`, profile.UserID); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}

	query := `
		INSERT INTO profiles
		(user_id, allergies, conditions, emergency_name, emergency_phone, emergency_relationship,
		 pharmacy_name, pharmacy_phone, pharmacy_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(ctx, query,
		profile.UserID,
		joinList(profile.Allergies),
		joinList(profile.Conditions),
		emName, emPhone, emRel,
		phName, phPhone, phAddr,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return tx.Commit()
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
