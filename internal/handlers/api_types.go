package handlers

import (
	"time"

	"medtrack/internal/models"
)

// Request and response bodies for the JSON API. Internal models stay
// free of json tags; these views define the wire shapes.

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Coins int    `json:"coins"`
}

type profileView struct {
	UserID           int64                 `json:"userId"`
	Name             string                `json:"name"`
	Allergies        []string              `json:"allergies"`
	Conditions       []string              `json:"conditions"`
	EmergencyContact *emergencyContactView `json:"emergencyContact,omitempty"`
	Pharmacy         *pharmacyView         `json:"pharmacy,omitempty"`
}

type emergencyContactView struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

type pharmacyView struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type createMedicationRequest struct {
	Name         string   `json:"name"`
	Strength     string   `json:"strength"`
	Form         string   `json:"form"`
	Instructions string   `json:"instructions"`
	Warnings     string   `json:"warnings"`
	Times        []string `json:"times"` // "HH:MM" local times
	Days         int      `json:"days"`
}

type medicationView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Strength     string     `json:"strength"`
	Form         string     `json:"form"`
	Instructions string     `json:"instructions,omitempty"`
	Warnings     string     `json:"warnings,omitempty"`
	Doses        []doseView `json:"doses,omitempty"`
}

type doseView struct {
	ID          int64      `json:"id"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Bucket      string     `json:"bucket"`
	Status      string     `json:"status"`
	TakenAt     *time.Time `json:"takenAt,omitempty"`
	SnoozeUntil *time.Time `json:"snoozeUntil,omitempty"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

type streakView struct {
	CurrentStreak   int    `json:"currentStreak"`
	LongestStreak   int    `json:"longestStreak"`
	WeeklyAdherence int    `json:"weeklyAdherence"`
	LastTakenDate   string `json:"lastTakenDate,omitempty"`
	IsNewRecord     bool   `json:"isNewRecord"`
}

type capabilityFlagsView struct {
	ViewMedications bool `json:"viewMedications"`
	ViewAdherence   bool `json:"viewAdherence"`
	ViewProfile     bool `json:"viewProfile"`
	ReceiveAlerts   bool `json:"receiveAlerts"`
}

type createInvitationRequest struct {
	Label string               `json:"label"`
	Email string               `json:"email"`
	Flags *capabilityFlagsView `json:"flags"`
}

type invitationView struct {
	ID        int64               `json:"id"`
	Code      string              `json:"code"`
	Label     string              `json:"label"`
	Email     string              `json:"email,omitempty"`
	Flags     capabilityFlagsView `json:"flags"`
	Status    string              `json:"status"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

type acceptInvitationRequest struct {
	Code string `json:"code"`
}

type acceptInvitationResponse struct {
	Accepted bool `json:"accepted"`
}

type relationshipView struct {
	ID           int64               `json:"id"`
	PatientID    int64               `json:"patientId"`
	CaregiverID  int64               `json:"caregiverId"`
	Relationship string              `json:"relationship,omitempty"`
	Flags        capabilityFlagsView `json:"flags"`
}

type overviewView struct {
	PatientID   int64            `json:"patientId"`
	PatientName string           `json:"patientName"`
	Medications []medicationView `json:"medications,omitempty"`
	Adherence   *streakView      `json:"adherence,omitempty"`
	Profile     *profileView     `json:"profile,omitempty"`
}

type avatarView struct {
	Icon     string `json:"icon"`
	Name     string `json:"name"`
	ItemType string `json:"itemType"`
}

type catalogItemView struct {
	ItemType string `json:"itemType"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Name     string `json:"name"`
	CoinCost int    `json:"coinCost"`
}

type equipAvatarRequest struct {
	ItemType string `json:"itemType"`
}

type sendNotificationRequest struct {
	UserID int64             `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

type sendNotificationResponse struct {
	Success           bool     `json:"success"`
	NotificationsSent int      `json:"notificationsSent"`
	Errors            []string `json:"errors,omitempty"`
}

type registerTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func toUserView(u *models.User, coins int) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Coins: coins}
}

func toProfileView(p *models.UserProfile) *profileView {
	if p == nil {
		return nil
	}
	view := &profileView{
		UserID:     p.UserID,
		Name:       p.Name,
		Allergies:  p.Allergies,
		Conditions: p.Conditions,
	}
	if p.EmergencyContact != nil {
		view.EmergencyContact = &emergencyContactView{
			Name:         p.EmergencyContact.Name,
			Phone:        p.EmergencyContact.Phone,
			Relationship: p.EmergencyContact.Relationship,
		}
	}
	if p.Pharmacy != nil {
		view.Pharmacy = &pharmacyView{
			Name:    p.Pharmacy.Name,
			Phone:   p.Pharmacy.Phone,
			Address: p.Pharmacy.Address,
		}
	}
	return view
}

func toMedicationView(m models.Medication) medicationView {
	view := medicationView{
		ID:           m.ID,
		Name:         m.Name,
		Strength:     m.Strength,
		Form:         m.Form,
		Instructions: m.Instructions,
		Warnings:     m.Warnings,
	}
	for _, d := range m.Doses {
		view.Doses = append(view.Doses, toDoseView(d))
	}
	return view
}

func toDoseView(d models.Dose) doseView {
	return doseView{
		ID:          d.ID,
		ScheduledAt: d.ScheduledAt,
		Bucket:      d.Bucket,
		Status:      string(d.Status),
		TakenAt:     d.TakenAt,
		SnoozeUntil: d.SnoozeUntil,
	}
}

func toStreakView(s *models.AdherenceStreak) *streakView {
	if s == nil {
		return nil
	}
	view := &streakView{
		CurrentStreak:   s.CurrentStreak,
		LongestStreak:   s.LongestStreak,
		WeeklyAdherence: s.WeeklyAdherence,
		IsNewRecord:     s.IsNewRecord(),
	}
	if s.LastTakenDate != nil {
		view.LastTakenDate = s.LastTakenDate.Format("2006-01-02")
	}
	return view
}

func toFlagsView(f models.CapabilityFlags) capabilityFlagsView {
	return capabilityFlagsView{
		ViewMedications: f.ViewMedications,
		ViewAdherence:   f.ViewAdherence,
		ViewProfile:     f.ViewProfile,
		ReceiveAlerts:   f.ReceiveAlerts,
	}
}

func fromFlagsView(v capabilityFlagsView) models.CapabilityFlags {
	return models.CapabilityFlags{
		ViewMedications: v.ViewMedications,
		ViewAdherence:   v.ViewAdherence,
		ViewProfile:     v.ViewProfile,
		ReceiveAlerts:   v.ReceiveAlerts,
	}
}

func toInvitationView(i models.CaregiverInvitation) invitationView {
	return invitationView{
		ID:        i.ID,
		Code:      i.Code,
		Label:     i.Label,
		Email:     i.Email,
		Flags:     toFlagsView(i.Flags),
		Status:    i.Status,
		ExpiresAt: i.ExpiresAt,
	}
}

func toRelationshipView(r models.CaregiverRelationship) relationshipView {
	return relationshipView{
		ID:           r.ID,
		PatientID:    r.PatientID,
		CaregiverID:  r.CaregiverID,
		Relationship: r.Relationship,
		Flags:        toFlagsView(r.Flags),
	}
}

func toAvatarView(a models.AvatarData) avatarView {
	return avatarView{Icon: a.Icon, Name: a.Name, ItemType: a.ItemType}
}
