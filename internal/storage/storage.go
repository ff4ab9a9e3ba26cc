package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"storefront-service/internal/models"
)

// Uploader stores write-once blobs and returns a public URL for each.
type Uploader interface {
	Save(ctx context.Context, kind, filename string, contentType string, size int64, r io.Reader) (string, error)
}

// Upload kinds, used as storage prefixes
const (
	KindPaymentProof = "payment-proofs"
	KindPremiumProof = "premium-proofs"
	KindProductImage = "product-images"
)

// ValidateUpload checks size and MIME type before any bytes are stored.
// Payment proofs may be images or PDFs.
func ValidateUpload(contentType string, size, maxSize int64) error {
	if size <= 0 {
		return fmt.Errorf("empty file: %w", models.ErrValidation)
	}
	if size > maxSize {
		return fmt.Errorf("file size %d exceeds limit %d: %w", size, maxSize, models.ErrValidation)
	}
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return fmt.Errorf("unsupported content type %q: %w", contentType, models.ErrValidation)
	}
	return nil
}
