package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService handles admin product, variant and bundle management
type CatalogService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: util.GetLogger(),
	}
}

func validateProduct(p *models.Product) error {
	if p.Name == "" || p.SKU == "" {
		return fmt.Errorf("name and sku required: %w", models.ErrValidation)
	}
	if p.SalePrice < 0 || p.CostPrice < 0 {
		return fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if p.ManualStockCount < 0 {
		return fmt.Errorf("negative stock count: %w", models.ErrValidation)
	}
	switch p.DeliveryType {
	case models.DeliveryCredentials, models.DeliveryCouponCode,
		models.DeliveryInstantKey, models.DeliveryManualActivation:
	default:
		return fmt.Errorf("unknown delivery type %q: %w", p.DeliveryType, models.ErrValidation)
	}
	return nil
}

// CreateProduct validates and inserts a product
func (cs *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := cs.store.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	cs.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("sku", p.SKU))
	return nil
}

// UpdateProduct validates and updates a product
func (cs *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return cs.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product
func (cs *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return cs.store.DeleteProduct(ctx, id)
}

// GetProduct retrieves a product by ID
func (cs *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return cs.store.GetProductByID(ctx, id)
}

// ListProducts retrieves all active products
func (cs *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cs.store.GetProducts(ctx)
}

// CreateVariant validates and inserts a product variant
func (cs *CatalogService) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	if v.Name == "" {
		return fmt.Errorf("variant name required: %w", models.ErrValidation)
	}
	if v.Price < 0 {
		return fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if _, err := cs.store.GetProductByID(ctx, v.ProductID); err != nil {
		return err
	}
	return cs.store.CreateVariant(ctx, v)
}

// ListVariants retrieves all variants of a product
func (cs *CatalogService) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	return cs.store.GetVariantsByProductID(ctx, productID)
}

// ValidateBundle checks the bundle pricing invariant
func ValidateBundle(b *models.Bundle) error {
	if b.Name == "" {
		return fmt.Errorf("bundle name required: %w", models.ErrValidation)
	}
	if b.SalePrice < 0 || b.OriginalPrice < 0 {
		return fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if b.SalePrice > b.OriginalPrice {
		return fmt.Errorf("sale price %d exceeds original %d: %w",
			b.SalePrice, b.OriginalPrice, models.ErrValidation)
	}
	if len(b.ProductIDs) == 0 {
		return fmt.Errorf("bundle needs at least one product: %w", models.ErrValidation)
	}
	return nil
}

// CreateBundle validates and inserts a bundle
func (cs *CatalogService) CreateBundle(ctx context.Context, b *models.Bundle) error {
	if err := ValidateBundle(b); err != nil {
		return err
	}
	for _, pid := range b.ProductIDs {
		if _, err := cs.store.GetProductByID(ctx, pid); err != nil {
			return err
		}
	}
	if err := cs.store.CreateBundle(ctx, b); err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	cs.logger.Info("Bundle created", zap.Int64("bundle_id", b.ID))
	return nil
}

// UpdateBundle validates and updates a bundle
func (cs *CatalogService) UpdateBundle(ctx context.Context, b *models.Bundle) error {
	if err := ValidateBundle(b); err != nil {
		return err
	}
	return cs.store.UpdateBundle(ctx, b)
}

// DeleteBundle removes a bundle
func (cs *CatalogService) DeleteBundle(ctx context.Context, id int64) error {
	return cs.store.DeleteBundle(ctx, id)
}

// GetBundle retrieves a bundle by ID
func (cs *CatalogService) GetBundle(ctx context.Context, id int64) (*models.Bundle, error) {
	return cs.store.GetBundleByID(ctx, id)
}

// ListBundles retrieves all active bundles
func (cs *CatalogService) ListBundles(ctx context.Context) ([]models.Bundle, error) {
	return cs.store.GetBundles(ctx)
}
