package database

import (
	"context"
	"os"
	"testing"
)

func newTestDB(t *testing.T, dbPath string) *DB {
	t.Helper()

	db, err := Initialize(dbPath)
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

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	// Skip if not in integration test mode
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t, "test_integration.db")

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	// Test that tables were created by migrations
	tables := []string{
		"users", "profiles", "medications", "doses",
		"caregiver_invitations", "caregiver_relationships",
		"preferences", "catalog_items", "push_tokens",
	}

	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		err := db.QueryRowContext(ctx, query, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}
}

// TestDatabaseTransactions tests transaction support
func TestDatabaseTransactions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t, "test_transactions.db")
	ctx := context.Background()

	// Test successful transaction
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"test@example.com", "hashedpass", "Test User")
	if err != nil {
		tx.Rollback()
		t.Fatalf("Failed to insert in transaction: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	// Verify data was inserted
	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after commit: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}

	// Test rollback
	tx2, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin second transaction: %v", err)
	}

	_, err = tx2.ExecContext(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"test2@example.com", "hashedpass", "Second User")
	if err != nil {
		tx2.Rollback()
		t.Fatalf("Failed to insert in second transaction: %v", err)
	}

	if err := tx2.Rollback(); err != nil {
		t.Fatalf("Failed to rollback transaction: %v", err)
	}

	// Verify data was not inserted
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", "test2@example.com").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query after rollback: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 users after rollback, got %d", count)
	}
}

// TestExecReturningID verifies inserted rows report their generated IDs
func TestExecReturningID(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t, "test_returning.db")
	ctx := context.Background()

	first, err := db.ExecReturningID(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"one@example.com", "hashedpass", "One")
	if err != nil {
		t.Fatalf("Failed to insert first user: %v", err)
	}
	if first == 0 {
		t.Error("Expected non-zero ID for first insert")
	}

	second, err := db.ExecReturningID(ctx, "INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?)",
		"two@example.com", "hashedpass", "Two")
	if err != nil {
		t.Fatalf("Failed to insert second user: %v", err)
	}
	if second <= first {
		t.Errorf("Expected second ID %d to follow first ID %d", second, first)
	}
}

// TestSeedAvatarCatalog verifies seeding populates the catalog once
func TestSeedAvatarCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t, "test_catalog.db")
	ctx := context.Background()

	if err := db.SeedAvatarCatalog(ctx); err != nil {
		t.Fatalf("Failed to seed catalog: %v", err)
	}

	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_items").Scan(&count); err != nil {
		t.Fatalf("Failed to count catalog items: %v", err)
	}
	if count == 0 {
		t.Error("Expected catalog items after seeding")
	}

	// Seeding again must not duplicate entries
	if err := db.SeedAvatarCatalog(ctx); err != nil {
		t.Fatalf("Failed to re-seed catalog: %v", err)
	}
	var after int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_items").Scan(&after); err != nil {
		t.Fatalf("Failed to count catalog items after re-seed: %v", err)
	}
	if after != count {
		t.Errorf("Expected %d catalog items after re-seed, got %d", count, after)
	}
}
