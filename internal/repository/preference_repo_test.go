package repository

import (
	"context"
	"os"
	"testing"

	"medtrack/internal/database"
)

func newTestRepoDB(t *testing.T, dbPath string) *database.DB {
	t.Helper()

	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestPreferenceRoundTrip exercises the quoted-identifier queries
// against a real engine.
func TestPreferenceRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestRepoDB(t, "test_preferences.db")
	ctx := context.Background()

	users := NewUserRepository(db)
	user, err := users.CreateUser(ctx, "pat@example.com", "hashedpass", "Pat")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	prefs := NewPreferenceRepository(db)

	value, err := prefs.GetPreference(ctx, user.ID, "equipped_avatar")
	if err != nil {
		t.Fatalf("GetPreference() error = %v", err)
	}
	if value != "" {
		t.Errorf("GetPreference() = %q, want empty for unset key", value)
	}

	if err := prefs.SetPreference(ctx, user.ID, "equipped_avatar", "fox"); err != nil {
		t.Fatalf("SetPreference() error = %v", err)
	}
	value, err = prefs.GetPreference(ctx, user.ID, "equipped_avatar")
	if err != nil {
		t.Fatalf("GetPreference() after set error = %v", err)
	}
	if value != "fox" {
		t.Errorf("GetPreference() = %q, want fox", value)
	}

	// Upsert replaces the existing row
	if err := prefs.SetPreference(ctx, user.ID, "equipped_avatar", "owl"); err != nil {
		t.Fatalf("SetPreference() update error = %v", err)
	}
	value, err = prefs.GetPreference(ctx, user.ID, "equipped_avatar")
	if err != nil {
		t.Fatalf("GetPreference() after update error = %v", err)
	}
	if value != "owl" {
		t.Errorf("GetPreference() = %q, want owl", value)
	}
}
