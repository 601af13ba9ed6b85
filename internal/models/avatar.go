package models

import "time"

// AvatarSentinel is the preference value meaning "no cosmetic
// override"; the default avatar is shown.
const AvatarSentinel = "default"

// AvatarData is the cosmetic display state for a user. It is derived,
// process-local state; the authoritative value lives in the
// preferences store.
type AvatarData struct {
	Icon     string
	Name     string
	ItemType string
}

// DefaultAvatar returns the fixed fallback avatar.
func DefaultAvatar() AvatarData {
	return AvatarData{
		Icon:     "\U0001F464", // generic person glyph
		Name:     "Default",
		ItemType: AvatarSentinel,
	}
}

// CatalogItem is an entry in the cosmetic item catalog.
type CatalogItem struct {
	ID       int64
	ItemType string
	Category string
	Icon     string
	Name     string
	CoinCost int
}

// Preference is a per-user key/value setting.
type Preference struct {
	UserID    int64
	Key       string
	Value     string
	UpdatedAt time.Time
}
