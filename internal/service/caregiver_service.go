package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/validation"
)

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotAuthorized      = errors.New("not authorized for this patient")
)

// InvitationStore is the invitation persistence capability the
// caregiver service depends on.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, patientID int64, label, email string, flags models.CapabilityFlags, expiresAt time.Time) (*models.CaregiverInvitation, error)
	GetInvitationByCode(ctx context.Context, code string) (*models.CaregiverInvitation, error)
	ListInvitationsForPatient(ctx context.Context, patientID int64) ([]models.CaregiverInvitation, error)
	AcceptInvitation(ctx context.Context, code string, userID int64, flags *models.CapabilityFlags) (*models.CaregiverRelationship, error)
	CancelInvitation(ctx context.Context, id, patientID int64) (bool, error)
	ExpireOverdueInvitations(ctx context.Context) (int64, error)
}

// RelationshipStore is the relationship persistence capability.
type RelationshipStore interface {
	GetRelationship(ctx context.Context, patientID, caregiverID int64) (*models.CaregiverRelationship, error)
	ListCaregiversForPatient(ctx context.Context, patientID int64) ([]models.CaregiverRelationship, error)
	ListPatientsForCaregiver(ctx context.Context, caregiverID int64) ([]models.CaregiverRelationship, error)
	UpdateFlags(ctx context.Context, relationshipID, patientID int64, flags models.CapabilityFlags) (bool, error)
	DeleteRelationship(ctx context.Context, relationshipID, requesterID int64) (bool, error)
}

// InvitationEmailSender sends the invitation code to a caregiver.
type InvitationEmailSender interface {
	SendInvitationEmail(ctx context.Context, to, patientName, code string) error
}

// CaregiverService handles the caregiver invitation lifecycle and
// relationship management.
type CaregiverService struct {
	invitations InvitationStore
	rels        RelationshipStore
	email       InvitationEmailSender
	inviteTTL   time.Duration
	// When true, accepted relationships copy capability flags from the
	// invitation; when false all four views default to granted.
	flagsFromInvitation bool
}

// NewCaregiverService creates a new caregiver service. email may be
// nil when invitation emails are disabled.
func NewCaregiverService(invitations InvitationStore, rels RelationshipStore, email InvitationEmailSender, inviteTTL time.Duration, flagsFromInvitation bool) *CaregiverService {
	return &CaregiverService{
		invitations:         invitations,
		rels:                rels,
		email:               email,
		inviteTTL:           inviteTTL,
		flagsFromInvitation: flagsFromInvitation,
	}
}

// CreateInvitation creates a pending invitation for the patient and,
// when an email address is given, sends the code to the caregiver. A
// failed email send is logged but does not fail creation; the patient
// can always read the code from the app.
func (s *CaregiverService) CreateInvitation(ctx context.Context, patientID int64, label, email string, flags models.CapabilityFlags) (*models.CaregiverInvitation, error) {
	if email != "" {
		if err := validation.ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	inv, err := s.invitations.CreateInvitation(ctx, patientID, label, email, flags, time.Now().Add(s.inviteTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if email != "" && s.email != nil {
		if err := s.email.SendInvitationEmail(ctx, email, inv.PatientName, inv.Code); err != nil {
			log.Printf("Failed to send invitation email for code %s: %v", inv.Code, err)
		}
	}

	return inv, nil
}

// AcceptInvitation validates and consumes an invitation code for the
// accepting user. It returns true only when the code matched a
// pending, unexpired invitation and a relationship was created; every
// other outcome is false. A store failure is returned as an error and
// also reports false.
func (s *CaregiverService) AcceptInvitation(ctx context.Context, code string, userID int64) (bool, error) {
	normalized, err := validation.NormalizeInviteCode(code)
	if err != nil {
		return false, nil
	}

	var flags *models.CapabilityFlags
	if !s.flagsFromInvitation {
		all := models.AllCapabilities()
		flags = &all
	}

	rel, err := s.invitations.AcceptInvitation(ctx, normalized, userID, flags)
	if err != nil {
		return false, err
	}
	return rel != nil, nil
}

// ListInvitations retrieves all invitations the patient has created
func (s *CaregiverService) ListInvitations(ctx context.Context, patientID int64) ([]models.CaregiverInvitation, error) {
	return s.invitations.ListInvitationsForPatient(ctx, patientID)
}

// CancelInvitation cancels one of the patient's pending invitations
func (s *CaregiverService) CancelInvitation(ctx context.Context, invitationID, patientID int64) error {
	ok, err := s.invitations.CancelInvitation(ctx, invitationID, patientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvitationNotFound
	}
	return nil
}

// ExpireOverdueInvitations sweeps pending invitations past expiry.
// Run periodically from the server loop.
func (s *CaregiverService) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	return s.invitations.ExpireOverdueInvitations(ctx)
}

// ListCaregivers retrieves the caregivers linked to a patient
func (s *CaregiverService) ListCaregivers(ctx context.Context, patientID int64) ([]models.CaregiverRelationship, error) {
	return s.rels.ListCaregiversForPatient(ctx, patientID)
}

// ListPatients retrieves the patients a caregiver is linked to
func (s *CaregiverService) ListPatients(ctx context.Context, caregiverID int64) ([]models.CaregiverRelationship, error) {
	return s.rels.ListPatientsForCaregiver(ctx, caregiverID)
}

// UpdateCaregiverFlags lets a patient change a caregiver's granted views
func (s *CaregiverService) UpdateCaregiverFlags(ctx context.Context, relationshipID, patientID int64, flags models.CapabilityFlags) error {
	ok, err := s.rels.UpdateFlags(ctx, relationshipID, patientID, flags)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// RevokeRelationship removes a caregiving grant; either side may revoke
func (s *CaregiverService) RevokeRelationship(ctx context.Context, relationshipID, requesterID int64) error {
	ok, err := s.rels.DeleteRelationship(ctx, relationshipID, requesterID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// GetGrant returns the relationship a caregiver holds for a patient,
// or ErrNotAuthorized when none exists.
func (s *CaregiverService) GetGrant(ctx context.Context, patientID, caregiverID int64) (*models.CaregiverRelationship, error) {
	rel, err := s.rels.GetRelationship(ctx, patientID, caregiverID)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, ErrNotAuthorized
	}
	return rel, nil
}
