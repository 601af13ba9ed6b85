package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// RunMigrations executes all SQL migration files for the active
// dialect, in filename order, recording each completed file.
func (db *DB) RunMigrations(migrationsPath string) error {
	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := filepath.Join(migrationsPath, db.Dialect.MigrationsSubdir())
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	// Sort files to ensure they run in order
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)

		hasRun, err := db.hasMigrationRun(filename)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		if _, err := db.DB.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		if err := db.recordMigration(filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}
	}

	return nil
}

// createMigrationsTable creates the table to track completed migrations
func (db *DB) createMigrationsTable() error {
	_, err := db.DB.Exec(db.Dialect.CreateMigrationsTableQuery())
	return err
}

func (db *DB) hasMigrationRun(filename string) (bool, error) {
	var count int
	query := db.Dialect.RewriteQuery("SELECT COUNT(*) FROM migrations WHERE filename = ?")
	if err := db.DB.QueryRow(query, filename).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) recordMigration(filename string) error {
	query := db.Dialect.RewriteQuery("INSERT INTO migrations (filename) VALUES (?)")
	_, err := db.DB.Exec(query, filename)
	return err
}

// SeedAvatarCatalog inserts the built-in avatar catalog entries if the
// catalog is empty. Safe to call on every startup.
func (db *DB) SeedAvatarCatalog(ctx context.Context) error {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_items").Scan(&count); err != nil {
		return fmt.Errorf("failed to count catalog items: %w", err)
	}
	if count > 0 {
		return nil
	}

	items := []struct {
		itemType string
		icon     string
		name     string
		coinCost int
	}{
		{"cat", "\U0001F431", "Cat", 50},
		{"dog", "\U0001F436", "Dog", 50},
		{"fox", "\U0001F98A", "Fox", 100},
		{"owl", "\U0001F989", "Owl", 100},
		{"panda", "\U0001F43C", "Panda", 150},
		{"penguin", "\U0001F427", "Penguin", 150},
		{"unicorn", "\U0001F984", "Unicorn", 300},
		{"dragon", "\U0001F409", "Dragon", 300},
		{"robot", "\U0001F916", "Robot", 200},
		{"astronaut", "\U0001F9D1‍\U0001F680", "Astronaut", 250},
	}

	for _, item := range items {
		_, err := db.Exec(ctx,
			"INSERT INTO catalog_items (item_type, category, icon, name, coin_cost) VALUES (?, 'avatar', ?, ?, ?)",
			item.itemType, item.icon, item.name, item.coinCost)
		if err != nil {
			return fmt.Errorf("failed to seed catalog item %s: %w", item.itemType, err)
		}
	}

	return nil
}
