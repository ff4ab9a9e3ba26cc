package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// CreateBundle inserts a bundle and its product links
func (s *Store) CreateBundle(ctx context.Context, b *models.Bundle) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bundles (name, original_price, sale_price, is_active, valid_until)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := tx.GetContext(ctx, &b.ID, query,
		b.Name, b.OriginalPrice, b.SalePrice, b.IsActive, b.ValidUntil); err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}

	for _, pid := range b.ProductIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bundle_products (bundle_id, product_id) VALUES ($1, $2)",
			b.ID, pid)
		if err != nil {
			return fmt.Errorf("failed to link bundle product: %w", err)
		}
	}

	return tx.Commit()
}

// GetBundleByID retrieves a bundle with its product IDs
func (s *Store) GetBundleByID(ctx context.Context, id int64) (*models.Bundle, error) {
	var bundle models.Bundle
	err := s.db.GetContext(ctx, &bundle, "SELECT * FROM bundles WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bundle %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &bundle.ProductIDs,
		"SELECT product_id FROM bundle_products WHERE bundle_id = $1 ORDER BY product_id", id)
	if err != nil {
		return nil, err
	}
	return &bundle, nil
}

// GetBundles retrieves all active bundles
func (s *Store) GetBundles(ctx context.Context) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := s.db.SelectContext(ctx, &bundles,
		"SELECT * FROM bundles WHERE is_active ORDER BY id")
	return bundles, err
}

// UpdateBundle updates bundle fields and replaces its product links
func (s *Store) UpdateBundle(ctx context.Context, b *models.Bundle) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE bundles
		SET name = $1, original_price = $2, sale_price = $3, is_active = $4, valid_until = $5
		WHERE id = $6`,
		b.Name, b.OriginalPrice, b.SalePrice, b.IsActive, b.ValidUntil, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bundle %d: %w", b.ID, models.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bundle_products WHERE bundle_id = $1", b.ID); err != nil {
		return err
	}
	for _, pid := range b.ProductIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO bundle_products (bundle_id, product_id) VALUES ($1, $2)",
			b.ID, pid)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteBundle removes a bundle and its product links
func (s *Store) DeleteBundle(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bundle_products WHERE bundle_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM bundles WHERE id = $1", id); err != nil {
		return err
	}

	return tx.Commit()
}
