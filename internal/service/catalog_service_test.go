package service

import (
	"errors"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateBundle(t *testing.T) {
	valid := func() *models.Bundle {
		return &models.Bundle{
			Name:          "Streaming Combo",
			OriginalPrice: 200000,
			SalePrice:     150000,
			ProductIDs:    []int64{1, 2},
		}
	}

	assert.NoError(t, ValidateBundle(valid()))

	b := valid()
	b.Name = ""
	assert.True(t, errors.Is(ValidateBundle(b), models.ErrValidation))

	b = valid()
	b.SalePrice = b.OriginalPrice + 1
	assert.True(t, errors.Is(ValidateBundle(b), models.ErrValidation))

	b = valid()
	b.ProductIDs = nil
	assert.True(t, errors.Is(ValidateBundle(b), models.ErrValidation))

	// Sale price equal to original is allowed
	b = valid()
	b.SalePrice = b.OriginalPrice
	assert.NoError(t, ValidateBundle(b))
}

func TestValidateProduct(t *testing.T) {
	valid := func() *models.Product {
		return &models.Product{
			Name:         "Netflix Premium",
			SKU:          "NFLX-PREM",
			SalePrice:    150000,
			CostPrice:    120000,
			DeliveryType: models.DeliveryCredentials,
		}
	}

	assert.NoError(t, validateProduct(valid()))

	p := valid()
	p.SKU = ""
	assert.True(t, errors.Is(validateProduct(p), models.ErrValidation))

	p = valid()
	p.SalePrice = -1
	assert.True(t, errors.Is(validateProduct(p), models.ErrValidation))

	p = valid()
	p.DeliveryType = "EMAIL"
	assert.True(t, errors.Is(validateProduct(p), models.ErrValidation))
}
