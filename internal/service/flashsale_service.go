package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// FlashSaleView is the config projection served to clients for polling
type FlashSaleView struct {
	Enabled   bool                       `json:"enabled"`
	EndTime   time.Time                  `json:"end_time"`
	Version   int64                      `json:"version"`
	Discounts []models.FlashSaleDiscount `json:"discounts"`
}

// FlashSaleService owns the single versioned flash sale config. The server
// decides discount validity; clients only poll the versioned record.
type FlashSaleService struct {
	store    *store.Store
	redis    *redisclient.Client
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewFlashSaleService creates a new flash sale service
func NewFlashSaleService(store *store.Store, redis *redisclient.Client, cacheTTL time.Duration) *FlashSaleService {
	return &FlashSaleService{
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
		cacheTTL: cacheTTL,
	}
}

// EffectivePrice computes the display/charge price for a base price under a
// discount. The price never goes below zero and reverts to base the instant
// the sale window closes.
func EffectivePrice(basePrice, discount int64, enabled bool, endTime, now time.Time) int64 {
	if !enabled || !now.Before(endTime) || discount <= 0 {
		return basePrice
	}
	price := basePrice - discount
	if price < 0 {
		return 0
	}
	return price
}

// GetConfig returns the current flash sale config, Redis-cached briefly to
// absorb client polling.
func (fs *FlashSaleService) GetConfig(ctx context.Context) (*FlashSaleView, error) {
	ctx, span := util.StartSpan(ctx, "FlashSaleService.GetConfig")
	defer span.End()

	if cached, err := fs.redis.GetCachedFlashSaleConfig(ctx); err == nil && cached != nil {
		var view FlashSaleView
		if err := json.Unmarshal(cached, &view); err == nil {
			return &view, nil
		}
	}

	cfg, discounts, err := fs.store.GetFlashSaleConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flash sale config: %w", err)
	}

	view := &FlashSaleView{
		Enabled:   cfg.Enabled,
		EndTime:   cfg.EndTime,
		Version:   cfg.Version,
		Discounts: discounts,
	}

	if payload, err := json.Marshal(view); err == nil {
		if err := fs.redis.CacheFlashSaleConfig(ctx, payload, fs.cacheTTL); err != nil {
			fs.logger.Warn("Failed to cache flash sale config", zap.Error(err))
		}
	}

	return view, nil
}

// SaveConfig overwrites the config wholesale, bumps the version and drops the
// cache so clients observe the new record on their next poll.
func (fs *FlashSaleService) SaveConfig(ctx context.Context, enabled bool, endTime time.Time, discounts []models.FlashSaleDiscount) (*models.FlashSaleConfig, error) {
	ctx, span := util.StartSpan(ctx, "FlashSaleService.SaveConfig")
	defer span.End()

	for _, d := range discounts {
		if d.DiscountAmount < 0 {
			return nil, fmt.Errorf("negative discount for product %d: %w", d.ProductID, models.ErrValidation)
		}
	}

	cfg, err := fs.store.SaveFlashSaleConfig(ctx, enabled, endTime, discounts)
	if err != nil {
		return nil, err
	}

	if err := fs.redis.InvalidateFlashSaleConfig(ctx); err != nil {
		fs.logger.Warn("Failed to invalidate flash sale cache", zap.Error(err))
	}

	fs.logger.Info("Flash sale config saved",
		zap.Bool("enabled", enabled),
		zap.Int64("version", cfg.Version),
		zap.Time("end_time", endTime))

	return cfg, nil
}

// DiscountFor returns the active discount amount for a product, zero when the
// sale is off, expired or does not cover the product.
func (fs *FlashSaleService) DiscountFor(ctx context.Context, productID int64, now time.Time) (int64, error) {
	view, err := fs.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	if !view.Enabled || !now.Before(view.EndTime) {
		return 0, nil
	}
	for _, d := range view.Discounts {
		if d.ProductID == productID {
			return d.DiscountAmount, nil
		}
	}
	return 0, nil
}

// PriceFor applies the product's active discount to a base price. The base may
// be the product sale price or a variant price; the discount is per product
// either way.
func (fs *FlashSaleService) PriceFor(ctx context.Context, productID, basePrice int64, now time.Time) (int64, error) {
	view, err := fs.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	var discount int64
	for _, d := range view.Discounts {
		if d.ProductID == productID {
			discount = d.DiscountAmount
			break
		}
	}
	return EffectivePrice(basePrice, discount, view.Enabled, view.EndTime, now), nil
}

// PriceForProduct resolves the effective price of a product right now
func (fs *FlashSaleService) PriceForProduct(ctx context.Context, product *models.Product, now time.Time) (int64, error) {
	return fs.PriceFor(ctx, product.ID, product.SalePrice, now)
}
