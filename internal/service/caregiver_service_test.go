package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"medtrack/internal/models"
)

// fakeInvitationStore implements InvitationStore in memory with the
// same acceptance semantics as the SQL repository: only a pending,
// unexpired code redeemed by someone other than the patient yields a
// relationship, exactly once.
type fakeInvitationStore struct {
	invitations map[string]*models.CaregiverInvitation
	rels        *fakeRelationshipStore
	nextID      int64
	failAccept  error
}

func newFakeInvitationStore(rels *fakeRelationshipStore) *fakeInvitationStore {
	return &fakeInvitationStore{
		invitations: make(map[string]*models.CaregiverInvitation),
		rels:        rels,
	}
}

func (f *fakeInvitationStore) CreateInvitation(ctx context.Context, patientID int64, label, email string, flags models.CapabilityFlags, expiresAt time.Time) (*models.CaregiverInvitation, error) {
	f.nextID++
	inv := &models.CaregiverInvitation{
		ID:        f.nextID,
		Code:      "INVITE" + string(rune('A'+f.nextID-1)) + "Z",
		PatientID: patientID,
		Label:     label,
		Email:     email,
		Flags:     flags,
		Status:    "pending",
		ExpiresAt: expiresAt,
	}
	f.invitations[inv.Code] = inv
	return inv, nil
}

func (f *fakeInvitationStore) GetInvitationByCode(ctx context.Context, code string) (*models.CaregiverInvitation, error) {
	return f.invitations[code], nil
}

func (f *fakeInvitationStore) ListInvitationsForPatient(ctx context.Context, patientID int64) ([]models.CaregiverInvitation, error) {
	var out []models.CaregiverInvitation
	for _, inv := range f.invitations {
		if inv.PatientID == patientID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationStore) AcceptInvitation(ctx context.Context, code string, userID int64, flags *models.CapabilityFlags) (*models.CaregiverRelationship, error) {
	if f.failAccept != nil {
		return nil, f.failAccept
	}

	inv, ok := f.invitations[code]
	if !ok || !inv.IsAcceptable() || inv.PatientID == userID {
		return nil, nil
	}
	for _, rel := range f.rels.rels {
		if rel.PatientID == inv.PatientID && rel.CaregiverID == userID {
			return nil, nil
		}
	}

	inv.Status = "accepted"
	now := time.Now()
	inv.AcceptedAt = &now
	inv.AcceptedBy = &userID

	granted := inv.Flags
	if flags != nil {
		granted = *flags
	}
	rel := &models.CaregiverRelationship{
		ID:          int64(len(f.rels.rels) + 1),
		PatientID:   inv.PatientID,
		CaregiverID: userID,
		Flags:       granted,
	}
	f.rels.rels = append(f.rels.rels, rel)
	return rel, nil
}

func (f *fakeInvitationStore) CancelInvitation(ctx context.Context, id, patientID int64) (bool, error) {
	for _, inv := range f.invitations {
		if inv.ID == id && inv.PatientID == patientID && inv.Status == "pending" {
			inv.Status = "cancelled"
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInvitationStore) ExpireOverdueInvitations(ctx context.Context) (int64, error) {
	var n int64
	for _, inv := range f.invitations {
		if inv.Status == "pending" && inv.IsExpired() {
			inv.Status = "expired"
			n++
		}
	}
	return n, nil
}

type fakeRelationshipStore struct {
	rels []*models.CaregiverRelationship
}

func (f *fakeRelationshipStore) GetRelationship(ctx context.Context, patientID, caregiverID int64) (*models.CaregiverRelationship, error) {
	for _, rel := range f.rels {
		if rel.PatientID == patientID && rel.CaregiverID == caregiverID {
			return rel, nil
		}
	}
	return nil, nil
}

func (f *fakeRelationshipStore) ListCaregiversForPatient(ctx context.Context, patientID int64) ([]models.CaregiverRelationship, error) {
	var out []models.CaregiverRelationship
	for _, rel := range f.rels {
		if rel.PatientID == patientID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (f *fakeRelationshipStore) ListPatientsForCaregiver(ctx context.Context, caregiverID int64) ([]models.CaregiverRelationship, error) {
	var out []models.CaregiverRelationship
	for _, rel := range f.rels {
		if rel.CaregiverID == caregiverID {
			out = append(out, *rel)
		}
	}
	return out, nil
}

func (f *fakeRelationshipStore) UpdateFlags(ctx context.Context, relationshipID, patientID int64, flags models.CapabilityFlags) (bool, error) {
	for _, rel := range f.rels {
		if rel.ID == relationshipID && rel.PatientID == patientID {
			rel.Flags = flags
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRelationshipStore) DeleteRelationship(ctx context.Context, relationshipID, requesterID int64) (bool, error) {
	for i, rel := range f.rels {
		if rel.ID == relationshipID && (rel.PatientID == requesterID || rel.CaregiverID == requesterID) {
			f.rels = append(f.rels[:i], f.rels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestCaregiverService(flagsFromInvitation bool) (*CaregiverService, *fakeInvitationStore, *fakeRelationshipStore) {
	rels := &fakeRelationshipStore{}
	invitations := newFakeInvitationStore(rels)
	svc := NewCaregiverService(invitations, rels, nil, 72*time.Hour, flagsFromInvitation)
	return svc, invitations, rels
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code creates a relationship", func(t *testing.T) {
		svc, _, rels := newTestCaregiverService(false)
		inv, err := svc.CreateInvitation(ctx, 1, "Mum", "", models.AllCapabilities())
		if err != nil {
			t.Fatalf("CreateInvitation() error: %v", err)
		}

		accepted, err := svc.AcceptInvitation(ctx, inv.Code, 2)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if !accepted {
			t.Fatal("expected acceptance")
		}
		if len(rels.rels) != 1 {
			t.Fatalf("got %d relationships, want 1", len(rels.rels))
		}
	})

	t.Run("code is matched case-insensitively", func(t *testing.T) {
		svc, _, _ := newTestCaregiverService(false)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())

		accepted, err := svc.AcceptInvitation(ctx, "  "+strings.ToLower(inv.Code)+" ", 2)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if !accepted {
			t.Error("a lowercased code with whitespace should still accept")
		}
	})

	t.Run("second accept returns false", func(t *testing.T) {
		svc, _, _ := newTestCaregiverService(false)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())

		if accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2); !accepted {
			t.Fatal("first accept should succeed")
		}
		accepted, err := svc.AcceptInvitation(ctx, inv.Code, 3)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if accepted {
			t.Error("a consumed code must not accept again")
		}
	})

	t.Run("unknown code returns false without error", func(t *testing.T) {
		svc, _, _ := newTestCaregiverService(false)
		accepted, err := svc.AcceptInvitation(ctx, "NOSUCHCODE", 2)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if accepted {
			t.Error("unknown code should not accept")
		}
	})

	t.Run("malformed code returns false without error", func(t *testing.T) {
		svc, _, _ := newTestCaregiverService(false)
		for _, code := range []string{"", "bad code!", strings.Repeat("A", 13)} {
			accepted, err := svc.AcceptInvitation(ctx, code, 2)
			if err != nil {
				t.Errorf("AcceptInvitation(%q) error: %v", code, err)
			}
			if accepted {
				t.Errorf("AcceptInvitation(%q) = true, want false", code)
			}
		}
	})

	t.Run("patient cannot accept own invitation", func(t *testing.T) {
		svc, _, _ := newTestCaregiverService(false)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())

		accepted, err := svc.AcceptInvitation(ctx, inv.Code, 1)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if accepted {
			t.Error("self-accept should be rejected")
		}
	})

	t.Run("expired invitation returns false", func(t *testing.T) {
		svc, invitations, _ := newTestCaregiverService(false)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())
		invitations.invitations[inv.Code].ExpiresAt = time.Now().Add(-time.Minute)

		accepted, err := svc.AcceptInvitation(ctx, inv.Code, 2)
		if err != nil {
			t.Fatalf("AcceptInvitation() error: %v", err)
		}
		if accepted {
			t.Error("expired code should not accept")
		}
	})

	t.Run("store failure surfaces as error", func(t *testing.T) {
		svc, invitations, _ := newTestCaregiverService(false)
		invitations.failAccept = errors.New("connection reset")

		accepted, err := svc.AcceptInvitation(ctx, "VALIDCODE", 2)
		if err == nil {
			t.Fatal("expected error from failing store")
		}
		if accepted {
			t.Error("a failed accept must report false")
		}
	})
}

func TestAcceptInvitationFlagSource(t *testing.T) {
	ctx := context.Background()
	limited := models.CapabilityFlags{ViewMedications: true}

	t.Run("defaults grant all capabilities", func(t *testing.T) {
		svc, _, rels := newTestCaregiverService(false)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", limited)

		if accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2); !accepted {
			t.Fatal("accept should succeed")
		}
		if rels.rels[0].Flags != models.AllCapabilities() {
			t.Errorf("flags = %+v, want all capabilities", rels.rels[0].Flags)
		}
	})

	t.Run("invitation flags are honored when configured", func(t *testing.T) {
		svc, _, rels := newTestCaregiverService(true)
		inv, _ := svc.CreateInvitation(ctx, 1, "", "", limited)

		if accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2); !accepted {
			t.Fatal("accept should succeed")
		}
		if rels.rels[0].Flags != limited {
			t.Errorf("flags = %+v, want %+v", rels.rels[0].Flags, limited)
		}
	})
}

func TestCancelInvitation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCaregiverService(false)
	inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())

	if err := svc.CancelInvitation(ctx, inv.ID, 2); !errors.Is(err, ErrInvitationNotFound) {
		t.Errorf("cancelling another patient's invitation: err = %v, want ErrInvitationNotFound", err)
	}
	if err := svc.CancelInvitation(ctx, inv.ID, 1); err != nil {
		t.Errorf("CancelInvitation() error: %v", err)
	}

	accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2)
	if accepted {
		t.Error("cancelled invitation should not accept")
	}
}

func TestRevokeRelationship(t *testing.T) {
	ctx := context.Background()
	svc, _, rels := newTestCaregiverService(false)
	inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())
	if accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2); !accepted {
		t.Fatal("accept should succeed")
	}

	relID := rels.rels[0].ID
	if err := svc.RevokeRelationship(ctx, relID, 99); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("stranger revoke: err = %v, want ErrNotAuthorized", err)
	}
	if err := svc.RevokeRelationship(ctx, relID, 2); err != nil {
		t.Errorf("caregiver revoke error: %v", err)
	}
	if len(rels.rels) != 0 {
		t.Error("relationship should be gone after revoke")
	}
}

func TestGetGrant(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestCaregiverService(false)
	inv, _ := svc.CreateInvitation(ctx, 1, "", "", models.AllCapabilities())
	if accepted, _ := svc.AcceptInvitation(ctx, inv.Code, 2); !accepted {
		t.Fatal("accept should succeed")
	}

	rel, err := svc.GetGrant(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetGrant() error: %v", err)
	}
	if rel.PatientID != 1 || rel.CaregiverID != 2 {
		t.Errorf("grant = %+v, want patient 1 caregiver 2", rel)
	}

	if _, err := svc.GetGrant(ctx, 1, 99); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("ungranted caregiver: err = %v, want ErrNotAuthorized", err)
	}
}
