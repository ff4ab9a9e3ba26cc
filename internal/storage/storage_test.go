package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxTestSize = 10 << 20

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"png ok", "image/png", 1024, false},
		{"jpeg ok", "image/jpeg", 5 << 20, false},
		{"pdf ok", "application/pdf", 2048, false},
		{"at limit ok", "image/png", maxTestSize, false},
		{"over limit", "image/png", maxTestSize + 1, true},
		{"empty file", "image/png", 0, true},
		{"bad mime", "application/zip", 1024, true},
		{"text rejected", "text/plain", 512, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.contentType, tt.size, maxTestSize)
			if tt.wantErr {
				assert.True(t, errors.Is(err, models.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalUploaderSave(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)

	body := "fake image bytes"
	url, err := up.Save(context.Background(), KindPaymentProof, "proof.png", "image/png", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/payment-proofs/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestLocalUploaderSaveShortRead(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "http://localhost:8080/uploads")
	require.NoError(t, err)

	// The reader delivers fewer bytes than the declared size; the save must
	// fail and leave no truncated file behind.
	_, err = up.Save(context.Background(), KindPaymentProof, "proof.png", "image/png", 100, strings.NewReader("short"))
	assert.True(t, errors.Is(err, models.ErrUpload))

	entries, err := os.ReadDir(filepath.Join(dir, KindPaymentProof))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
