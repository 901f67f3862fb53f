package store

import (
	"context"
	"fmt"

	"stylist-service/internal/models"
)

// UpsertProduct inserts or replaces a product keyed by its content-derived ID.
// Re-ingesting an unchanged product is a no-op in effect; a changed product
// overwrites every field. The write is a single atomic statement.
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, title, brand, price_display, price_numeric, link, image_url, tags, retailer, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			brand = EXCLUDED.brand,
			price_display = EXCLUDED.price_display,
			price_numeric = EXCLUDED.price_numeric,
			link = EXCLUDED.link,
			image_url = EXCLUDED.image_url,
			tags = EXCLUDED.tags,
			retailer = EXCLUDED.retailer,
			raw = EXCLUDED.raw,
			updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Brand, p.PriceDisplay, p.PriceNumeric,
		p.Link, p.ImageURL, p.Tags, p.Retailer, p.Raw)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

// QueryProducts returns all stored products passing the filter. The table is
// scanned in full and filtered in memory.
func (s *Store) QueryProducts(ctx context.Context, filter models.Filter) ([]models.Product, error) {
	var all []models.Product
	if err := s.db.SelectContext(ctx, &all, "SELECT * FROM products ORDER BY updated_at DESC"); err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	matched := make([]models.Product, 0, len(all))
	for _, p := range all {
		if filter.Matches(p) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// ListProducts returns up to limit raw rows, newest first. Debugging only.
func (s *Store) ListProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products ORDER BY updated_at DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// CountProducts returns the number of stored products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products")
	return count, err
}
