package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// RelationshipRepository handles database operations for caregiver relationships
type RelationshipRepository struct {
	db *database.DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *database.DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// GetRelationship retrieves the grant between a patient and a
// caregiver, or nil when none exists.
func (r *RelationshipRepository) GetRelationship(ctx context.Context, patientID, caregiverID int64) (*models.CaregiverRelationship, error) {
	query := `
		SELECT id, patient_id, caregiver_id, relationship,
		       view_medications, view_adherence, view_profile, receive_alerts,
		       created_at, updated_at
		FROM caregiver_relationships
		WHERE patient_id = ? AND caregiver_id = ?
	`
	rel, err := scanRelationship(r.db.QueryRow(ctx, query, patientID, caregiverID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

// ListCaregiversForPatient retrieves all caregivers linked to a patient
func (r *RelationshipRepository) ListCaregiversForPatient(ctx context.Context, patientID int64) ([]models.CaregiverRelationship, error) {
	return r.list(ctx, "patient_id", patientID)
}

// ListPatientsForCaregiver retrieves all patients a caregiver is linked to
func (r *RelationshipRepository) ListPatientsForCaregiver(ctx context.Context, caregiverID int64) ([]models.CaregiverRelationship, error) {
	return r.list(ctx, "caregiver_id", caregiverID)
}

func (r *RelationshipRepository) list(ctx context.Context, column string, id int64) ([]models.CaregiverRelationship, error) {
	query := fmt.Sprintf(`
		SELECT id, patient_id, caregiver_id, relationship,
		       view_medications, view_adherence, view_profile, receive_alerts,
		       created_at, updated_at
		FROM caregiver_relationships
		WHERE %s = ?
		ORDER BY created_at DESC
	`, column)

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query relationships: %w", err)
	}
	defer rows.Close()

	var rels []models.CaregiverRelationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, *rel)
	}

	return rels, rows.Err()
}

// UpdateFlags replaces the capability flags on a relationship. Only
// the patient may change the grant; the patient id is part of the
// predicate so a caregiver cannot widen their own access.
func (r *RelationshipRepository) UpdateFlags(ctx context.Context, relationshipID, patientID int64, flags models.CapabilityFlags) (bool, error) {
	query := `
		UPDATE caregiver_relationships
		SET view_medications = ?, view_adherence = ?, view_profile = ?, receive_alerts = ?, updated_at = ?
		WHERE id = ? AND patient_id = ?
	`
	result, err := r.db.Exec(ctx, query,
		flags.ViewMedications, flags.ViewAdherence, flags.ViewProfile, flags.ReceiveAlerts,
		time.Now(), relationshipID, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to update relationship flags: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteRelationship revokes a caregiving grant. Either side may
// revoke: the patient removing a caregiver or the caregiver leaving.
func (r *RelationshipRepository) DeleteRelationship(ctx context.Context, relationshipID, requesterID int64) (bool, error) {
	query := `
		DELETE FROM caregiver_relationships
		WHERE id = ? AND (patient_id = ? OR caregiver_id = ?)
	`
	result, err := r.db.Exec(ctx, query, relationshipID, requesterID, requesterID)
	if err != nil {
		return false, fmt.Errorf("failed to delete relationship: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanRelationship(row rowScanner) (*models.CaregiverRelationship, error) {
	rel := &models.CaregiverRelationship{}
	err := row.Scan(
		&rel.ID, &rel.PatientID, &rel.CaregiverID, &rel.Relationship,
		&rel.Flags.ViewMedications, &rel.Flags.ViewAdherence,
		&rel.Flags.ViewProfile, &rel.Flags.ReceiveAlerts,
		&rel.CreatedAt, &rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rel, nil
}
