package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// inviteCodeAlphabet avoids 0/O and 1/I, which read ambiguously when a
// patient dictates a code over the phone.
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

// InvitationRepository handles database operations for caregiver invitations
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// GenerateInviteCode generates a random short uppercase invitation code
func (r *InvitationRepository) GenerateInviteCode() (string, error) {
	bytes := make([]byte, inviteCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	for i, b := range bytes {
		bytes[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(bytes), nil
}

// CreateInvitation creates a new pending invitation
func (r *InvitationRepository) CreateInvitation(ctx context.Context, patientID int64, label, email string, flags models.CapabilityFlags, expiresAt time.Time) (*models.CaregiverInvitation, error) {
	code, err := r.GenerateInviteCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	query := `
		INSERT INTO caregiver_invitations
		(code, patient_id, label, email, view_medications, view_adherence, view_profile, receive_alerts, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		code, patientID, label, email,
		flags.ViewMedications, flags.ViewAdherence, flags.ViewProfile, flags.ReceiveAlerts,
		expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	return &models.CaregiverInvitation{
		ID:        id,
		Code:      code,
		PatientID: patientID,
		Label:     label,
		Email:     email,
		Flags:     flags,
		Status:    models.InvitationStatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}, nil
}

// GetInvitationByCode retrieves an invitation by its code, or nil
func (r *InvitationRepository) GetInvitationByCode(ctx context.Context, code string) (*models.CaregiverInvitation, error) {
	query := `
		SELECT i.id, i.code, i.patient_id, i.label, i.email,
		       i.view_medications, i.view_adherence, i.view_profile, i.receive_alerts,
		       i.status, i.created_at, i.expires_at, i.accepted_at, i.accepted_by, u.name
		FROM caregiver_invitations i
		INNER JOIN users u ON i.patient_id = u.id
		WHERE i.code = ?
	`
	inv, err := scanInvitation(r.db.QueryRow(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListInvitationsForPatient retrieves all invitations a patient has created
func (r *InvitationRepository) ListInvitationsForPatient(ctx context.Context, patientID int64) ([]models.CaregiverInvitation, error) {
	query := `
		SELECT i.id, i.code, i.patient_id, i.label, i.email,
		       i.view_medications, i.view_adherence, i.view_profile, i.receive_alerts,
		       i.status, i.created_at, i.expires_at, i.accepted_at, i.accepted_by, u.name
		FROM caregiver_invitations i
		INNER JOIN users u ON i.patient_id = u.id
		WHERE i.patient_id = ?
		ORDER BY i.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.CaregiverInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}

	return invitations, rows.Err()
}

// AcceptInvitation atomically consumes a pending, unexpired invitation
// and creates the caregiver relationship. The compare-and-set on
// status = 'pending' is the serialization point for concurrent accepts:
// exactly one caller observes an affected row.
//
// When flags is nil the relationship copies the capability flags stored
// on the invitation; otherwise the given flags are used.
//
// Returns nil (and no error) whenever the invitation cannot be
// accepted: unknown code, terminal status, expiry in the past, the
// patient accepting their own invite, or an existing relationship. In
// every failure case the transaction is rolled back and no state is
// left behind.
func (r *InvitationRepository) AcceptInvitation(ctx context.Context, code string, userID int64, flags *models.CapabilityFlags) (*models.CaregiverRelationship, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	// Consume the invitation: only a pending, unexpired row matches.
	result, err := tx.Exec(ctx, `
		UPDATE caregiver_invitations
		SET status = 'accepted', accepted_at = ?, accepted_by = ?
		WHERE code = ? AND status = 'pending' AND expires_at > ?
	`, now, userID, code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	var patientID int64
	var label string
	invFlags := models.CapabilityFlags{}
	err = tx.QueryRow(ctx, `
		SELECT patient_id, label, view_medications, view_adherence, view_profile, receive_alerts
		FROM caregiver_invitations WHERE code = ?
	`, code).Scan(&patientID, &label,
		&invFlags.ViewMedications, &invFlags.ViewAdherence, &invFlags.ViewProfile, &invFlags.ReceiveAlerts)
	if err != nil {
		return nil, fmt.Errorf("failed to read accepted invitation: %w", err)
	}

	// A patient cannot become their own caregiver.
	if patientID == userID {
		return nil, nil
	}

	// Reject if this caregiver is already linked to the patient; the
	// unique constraint backs this up under concurrency.
	var existing int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM caregiver_relationships WHERE patient_id = ? AND caregiver_id = ?
	`, patientID, userID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing relationship: %w", err)
	}
	if existing > 0 {
		return nil, nil
	}

	granted := invFlags
	if flags != nil {
		granted = *flags
	}

	relID, err := tx.ExecReturningID(ctx, `
		INSERT INTO caregiver_relationships
		(patient_id, caregiver_id, relationship, view_medications, view_adherence, view_profile, receive_alerts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, patientID, userID, label,
		granted.ViewMedications, granted.ViewAdherence, granted.ViewProfile, granted.ReceiveAlerts)
	if err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit acceptance: %w", err)
	}

	return &models.CaregiverRelationship{
		ID:           relID,
		PatientID:    patientID,
		CaregiverID:  userID,
		Relationship: label,
		Flags:        granted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CancelInvitation moves a pending invitation to cancelled. Terminal
// invitations are left untouched.
func (r *InvitationRepository) CancelInvitation(ctx context.Context, id, patientID int64) (bool, error) {
	query := `
		UPDATE caregiver_invitations SET status = 'cancelled'
		WHERE id = ? AND patient_id = ? AND status = 'pending'
	`
	result, err := r.db.Exec(ctx, query, id, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel invitation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpireOverdueInvitations moves pending invitations past their expiry
// to expired. Returns the number of invitations updated.
func (r *InvitationRepository) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	query := `
		UPDATE caregiver_invitations SET status = 'expired'
		WHERE status = 'pending' AND expires_at <= ?
	`
	result, err := r.db.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire invitations: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvitation(row rowScanner) (*models.CaregiverInvitation, error) {
	inv := &models.CaregiverInvitation{}
	var acceptedAt sql.NullTime
	var acceptedBy sql.NullInt64

	err := row.Scan(
		&inv.ID, &inv.Code, &inv.PatientID, &inv.Label, &inv.Email,
		&inv.Flags.ViewMedications, &inv.Flags.ViewAdherence,
		&inv.Flags.ViewProfile, &inv.Flags.ReceiveAlerts,
		&inv.Status, &inv.CreatedAt, &inv.ExpiresAt,
		&acceptedAt, &acceptedBy, &inv.PatientName,
	)
	if err != nil {
		return nil, err
	}

	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	if acceptedBy.Valid {
		inv.AcceptedBy = &acceptedBy.Int64
	}

	return inv, nil
}
