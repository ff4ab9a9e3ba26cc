package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves all active products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active ORDER BY id")
	return products, err
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (sku, name, description, sale_price, cost_price,
			delivery_type, use_manual_stock, manual_stock_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.SKU, p.Name, p.Description, p.SalePrice, p.CostPrice,
		p.DeliveryType, p.UseManualStock, p.ManualStockCount, p.IsActive)
}

// UpdateProduct updates mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, sale_price = $3, cost_price = $4,
			delivery_type = $5, use_manual_stock = $6, manual_stock_count = $7,
			is_active = $8, updated_at = NOW()
		WHERE id = $9`,
		p.Name, p.Description, p.SalePrice, p.CostPrice,
		p.DeliveryType, p.UseManualStock, p.ManualStockCount, p.IsActive, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", p.ID, models.ErrNotFound)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

// GetVariantByID retrieves a product variant by ID
func (s *Store) GetVariantByID(ctx context.Context, id int64) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := s.db.GetContext(ctx, &variant, "SELECT * FROM product_variants WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("variant %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetVariantsByProductID retrieves all variants of a product
func (s *Store) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM product_variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// CreateVariant inserts a new product variant
func (s *Store) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	query := `
		INSERT INTO product_variants (product_id, name, price, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db.GetContext(ctx, &v.ID, query, v.ProductID, v.Name, v.Price, v.IsActive)
}

// DecrementManualStock atomically decrements a manual stock counter.
// The WHERE clause guarantees the count never goes below zero; zero rows
// affected means the product is exhausted.
func (s *Store) DecrementManualStock(ctx context.Context, productID int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET manual_stock_count = manual_stock_count - 1, updated_at = NOW()
		WHERE id = $1 AND manual_stock_count > 0`,
		productID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, models.ErrOutOfStock)
	}
	return nil
}

// RestoreManualStock adds stock back after a failed approval (compensation)
func (s *Store) RestoreManualStock(ctx context.Context, productID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET manual_stock_count = manual_stock_count + 1, updated_at = NOW()
		WHERE id = $1`,
		productID)
	return err
}

// ClaimStockKey claims one AVAILABLE key for an order. SKIP LOCKED makes
// concurrent approvals pick distinct rows, so a key is never assigned twice.
func (s *Store) ClaimStockKey(ctx context.Context, productID, orderID, userID int64) (*models.StockKey, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var key models.StockKey
	err = tx.GetContext(ctx, &key, `
		SELECT * FROM product_stock_keys
		WHERE product_id = $1 AND status = $2
		ORDER BY id
		LIMIT 1
		FOR UPDATE SKIP LOCKED`,
		productID, models.StockKeyAvailable)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no available key for product %d: %w", productID, models.ErrOutOfStock)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock key: %w", err)
	}

	err = tx.GetContext(ctx, &key, `
		UPDATE product_stock_keys
		SET status = $1, assigned_order_id = $2, used_by = $3, used_at = NOW()
		WHERE id = $4
		RETURNING *`,
		models.StockKeyAssigned, orderID, userID, key.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign stock key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &key, nil
}

// ReleaseStockKey returns an assigned key to the pool (compensation)
func (s *Store) ReleaseStockKey(ctx context.Context, keyID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE product_stock_keys
		SET status = $1, assigned_order_id = NULL, used_by = NULL, used_at = NULL
		WHERE id = $2`,
		models.StockKeyAvailable, keyID)
	return err
}

// GetStockKeyByOrderID retrieves the key assigned to an order, if any
func (s *Store) GetStockKeyByOrderID(ctx context.Context, orderID int64) (*models.StockKey, error) {
	var key models.StockKey
	err := s.db.GetContext(ctx, &key,
		"SELECT * FROM product_stock_keys WHERE assigned_order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no key assigned to order %d: %w", orderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// InsertStockKeys bulk-inserts AVAILABLE keys for a product
func (s *Store) InsertStockKeys(ctx context.Context, productID int64, payloads []string) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	inserted := 0
	for _, payload := range payloads {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_stock_keys (product_id, payload, status)
			VALUES ($1, $2, $3)`,
			productID, payload, models.StockKeyAvailable)
		if err != nil {
			return 0, fmt.Errorf("failed to insert stock key: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// CountAvailableStockKeys counts AVAILABLE keys for a product
func (s *Store) CountAvailableStockKeys(ctx context.Context, productID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM product_stock_keys WHERE product_id = $1 AND status = $2",
		productID, models.StockKeyAvailable)
	return count, err
}
