package repository

import (
	"context"
	"database/sql"
	"fmt"

	"medtrack/internal/database"
	"medtrack/internal/models"
)

// CatalogRepository handles reads of the cosmetic item catalog
type CatalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetItem retrieves a catalog entry by item type and category, or nil
// when no such entry exists.
func (r *CatalogRepository) GetItem(ctx context.Context, itemType, category string) (*models.CatalogItem, error) {
	query := `
		SELECT id, item_type, category, icon, name, coin_cost
		FROM catalog_items
		WHERE item_type = ? AND category = ?
	`
	item := &models.CatalogItem{}
	err := r.db.QueryRow(ctx, query, itemType, category).Scan(
		&item.ID, &item.ItemType, &item.Category, &item.Icon, &item.Name, &item.CoinCost,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	return item, nil
}

// ListItems retrieves all catalog entries in a category
func (r *CatalogRepository) ListItems(ctx context.Context, category string) ([]models.CatalogItem, error) {
	query := `
		SELECT id, item_type, category, icon, name, coin_cost
		FROM catalog_items
		WHERE category = ?
		ORDER BY coin_cost ASC, name ASC
	`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var items []models.CatalogItem
	for rows.Next() {
		var item models.CatalogItem
		err := rows.Scan(&item.ID, &item.ItemType, &item.Category, &item.Icon, &item.Name, &item.CoinCost)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
