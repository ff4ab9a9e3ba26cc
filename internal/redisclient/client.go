package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/claim_stock.lua
var claimStockScript string

//go:embed scripts/release_stock.lua
var releaseStockScript string

type Client struct {
	rdb           *redis.Client
	claimScript   *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		claimScript:   redis.NewScript(claimStockScript),
		releaseScript: redis.NewScript(releaseStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

// ClaimStock atomically claims one unit of manual stock using a Lua script.
// claimed is true on success; cached is false when the product has no counter
// in Redis, in which case the caller decides against the database.
func (c *Client) ClaimStock(ctx context.Context, productID int64) (claimed, cached bool, err error) {
	result, err := c.claimScript.Run(ctx, c.rdb, []string{stockKey(productID)}).Result()
	if err != nil {
		return false, false, fmt.Errorf("claim stock script failed: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return false, false, fmt.Errorf("unexpected script result type")
	}

	switch code {
	case 1:
		return true, true, nil
	case -1:
		return false, false, nil
	default:
		return false, true, nil
	}
}

// ReleaseStock atomically returns one claimed unit (compensation)
func (c *Client) ReleaseStock(ctx context.Context, productID int64) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{stockKey(productID)}).Result()
	if err != nil {
		return fmt.Errorf("release stock script failed: %w", err)
	}

	return nil
}

// InitStock seeds the manual stock counter for a product
func (c *Client) InitStock(ctx context.Context, productID int64, count int) error {
	return c.rdb.Set(ctx, stockKey(productID), count, 0).Err()
}

// GetStock retrieves the cached manual stock count
func (c *Client) GetStock(ctx context.Context, productID int64) (int, error) {
	count, err := c.rdb.Get(ctx, stockKey(productID)).Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("stock not cached for product %d", productID)
	}
	return count, err
}

// CacheFlashSaleConfig stores the serialized flash sale config with a short TTL
func (c *Client) CacheFlashSaleConfig(ctx context.Context, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, "flashsale:config", payload, ttl).Err()
}

// GetCachedFlashSaleConfig retrieves the cached flash sale config.
// Returns nil without error on a cache miss.
func (c *Client) GetCachedFlashSaleConfig(ctx context.Context) ([]byte, error) {
	payload, err := c.rdb.Get(ctx, "flashsale:config").Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return payload, err
}

// InvalidateFlashSaleConfig drops the cached config after an admin save
func (c *Client) InvalidateFlashSaleConfig(ctx context.Context) error {
	return c.rdb.Del(ctx, "flashsale:config").Err()
}

// MarkNotified records that a user was notified about an order, with TTL.
// Returns false when the notification was already sent (dedup).
func (c *Client) MarkNotified(ctx context.Context, userID, orderID int64, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("notified:%d:%d", userID, orderID)
	return c.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
