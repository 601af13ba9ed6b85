package repository

import (
	"context"
	"database/sql"
	"fmt"

	"medtrack/internal/database"
)

// PreferenceRepository handles per-user key/value settings
type PreferenceRepository struct {
	db *database.DB
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db *database.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetPreference retrieves a preference value for a user. A missing key
// is not an error; it returns the empty string.
func (r *PreferenceRepository) GetPreference(ctx context.Context, userID int64, key string) (string, error) {
	var value string
	// "key" is a reserved word on MySQL and must be quoted.
	query := fmt.Sprintf(`SELECT value FROM preferences WHERE user_id = ? AND %s = ?`,
		r.db.Dialect.QuoteIdent("key"))
	err := r.db.QueryRow(ctx, query, userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetPreference updates or inserts a preference value for a user
func (r *PreferenceRepository) SetPreference(ctx context.Context, userID int64, key, value string) error {
	query := r.db.Dialect.UpsertPreferenceQuery()
	_, err := r.db.Exec(ctx, query, userID, key, value)
	return err
}
