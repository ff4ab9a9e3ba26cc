package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"
)

// GetFlashSaleConfig loads the single flash sale record and its per-product
// discounts. A missing row means no sale has ever been configured.
func (s *Store) GetFlashSaleConfig(ctx context.Context) (*models.FlashSaleConfig, []models.FlashSaleDiscount, error) {
	var cfg models.FlashSaleConfig
	err := s.db.GetContext(ctx, &cfg,
		"SELECT enabled, end_time, version, updated_at FROM flash_sale_config WHERE id = 1")
	if err == sql.ErrNoRows {
		return &models.FlashSaleConfig{}, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var discounts []models.FlashSaleDiscount
	err = s.db.SelectContext(ctx, &discounts,
		"SELECT config_version, product_id, discount_amount FROM flash_sale_discounts WHERE config_version = $1",
		cfg.Version)
	if err != nil {
		return nil, nil, err
	}
	return &cfg, discounts, nil
}

// SaveFlashSaleConfig overwrites the flash sale record wholesale and bumps the
// version, replacing the discount set atomically.
func (s *Store) SaveFlashSaleConfig(ctx context.Context, enabled bool, endTime time.Time, discounts []models.FlashSaleDiscount) (*models.FlashSaleConfig, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var cfg models.FlashSaleConfig
	err = tx.GetContext(ctx, &cfg, `
		INSERT INTO flash_sale_config (id, enabled, end_time, version)
		VALUES (1, $1, $2, 1)
		ON CONFLICT (id) DO UPDATE
		SET enabled = $1, end_time = $2,
			version = flash_sale_config.version + 1,
			updated_at = NOW()
		RETURNING enabled, end_time, version, updated_at`,
		enabled, endTime)
	if err != nil {
		return nil, fmt.Errorf("failed to save flash sale config: %w", err)
	}

	for _, d := range discounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO flash_sale_discounts (config_version, product_id, discount_amount)
			VALUES ($1, $2, $3)`,
			cfg.Version, d.ProductID, d.DiscountAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to save flash sale discount: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
