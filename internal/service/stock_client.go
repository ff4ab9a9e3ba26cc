package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// StockClient handles stock claims for order fulfillment. Manual counters use
// a Redis fast path backed by an authoritative conditional decrement in the
// database; stock keys are claimed row-locked in the database only.
type StockClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockClient creates a new stock client
func NewStockClient(store *store.Store, redis *redisclient.Client) *StockClient {
	return &StockClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// ClaimManualStock decrements a manual stock counter by one. The Redis
// counter rejects exhausted products before the database is touched; the
// database decrement is the authority and Redis is compensated when it fails.
func (sc *StockClient) ClaimManualStock(ctx context.Context, productID int64) error {
	ctx, span := util.StartSpan(ctx, "StockClient.ClaimManualStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockClaimLatency.Observe(time.Since(start).Seconds())
	}()

	claimed, cached, err := sc.redis.ClaimStock(ctx, productID)
	if err != nil {
		sc.logger.Warn("Redis stock claim failed, falling back to DB",
			zap.Int64("product_id", productID),
			zap.Error(err))
	} else if cached && !claimed {
		util.StockClaimsTotal.WithLabelValues("manual", "exhausted").Inc()
		return fmt.Errorf("product %d: %w", productID, models.ErrOutOfStock)
	}

	if err := sc.store.DecrementManualStock(ctx, productID); err != nil {
		if claimed {
			if rerr := sc.redis.ReleaseStock(ctx, productID); rerr != nil {
				sc.logger.Error("Failed to release Redis stock after DB decrement failure",
					zap.Int64("product_id", productID),
					zap.Error(rerr))
			}
		}
		if errors.Is(err, models.ErrOutOfStock) {
			util.StockClaimsTotal.WithLabelValues("manual", "exhausted").Inc()
		} else {
			util.StockClaimsTotal.WithLabelValues("manual", "error").Inc()
		}
		return err
	}

	util.StockClaimsTotal.WithLabelValues("manual", "claimed").Inc()
	return nil
}

// ReleaseManualStock returns one unit after a failed approval (compensation)
func (sc *StockClient) ReleaseManualStock(ctx context.Context, productID int64) error {
	ctx, span := util.StartSpan(ctx, "StockClient.ReleaseManualStock")
	defer span.End()

	if err := sc.redis.ReleaseStock(ctx, productID); err != nil {
		sc.logger.Error("Failed to release stock in Redis",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return sc.store.RestoreManualStock(ctx, productID)
}

// ClaimKey assigns one available stock key to an order
func (sc *StockClient) ClaimKey(ctx context.Context, productID, orderID, userID int64) (*models.StockKey, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.ClaimKey")
	defer span.End()

	key, err := sc.store.ClaimStockKey(ctx, productID, orderID, userID)
	if err != nil {
		if errors.Is(err, models.ErrOutOfStock) {
			util.StockClaimsTotal.WithLabelValues("key", "exhausted").Inc()
		} else {
			util.StockClaimsTotal.WithLabelValues("key", "error").Inc()
		}
		return nil, err
	}

	util.StockClaimsTotal.WithLabelValues("key", "claimed").Inc()
	return key, nil
}

// ReleaseKey returns an assigned key to the pool (compensation)
func (sc *StockClient) ReleaseKey(ctx context.Context, keyID int64) error {
	return sc.store.ReleaseStockKey(ctx, keyID)
}

// UploadKeys bulk-inserts stock keys for a product
func (sc *StockClient) UploadKeys(ctx context.Context, productID int64, payloads []string) (int, error) {
	if len(payloads) == 0 {
		return 0, fmt.Errorf("no keys provided: %w", models.ErrValidation)
	}

	product, err := sc.store.GetProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !models.KeyDelivery(product.DeliveryType) {
		return 0, fmt.Errorf("product %d does not use key delivery: %w", productID, models.ErrValidation)
	}

	inserted, err := sc.store.InsertStockKeys(ctx, productID, payloads)
	if err != nil {
		return 0, err
	}

	sc.logger.Info("Stock keys uploaded",
		zap.Int64("product_id", productID),
		zap.Int("count", inserted))
	return inserted, nil
}

// SyncStockToRedis seeds Redis manual stock counters from the database
func (sc *StockClient) SyncStockToRedis(ctx context.Context) error {
	sc.logger.Info("Starting stock sync to Redis")

	products, err := sc.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get products: %w", err)
	}

	synced := 0
	for _, product := range products {
		if !product.UseManualStock {
			continue
		}
		if err := sc.redis.InitStock(ctx, product.ID, product.ManualStockCount); err != nil {
			sc.logger.Error("Failed to init Redis stock",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}
		synced++
	}

	sc.logger.Info("Stock sync completed", zap.Int("count", synced))
	return nil
}
