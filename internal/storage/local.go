package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"storefront-service/internal/models"

	"github.com/google/uuid"
)

// LocalUploader writes blobs to a directory served as static files.
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates the upload directory if needed
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: baseURL}, nil
}

// Save stores the blob under a generated name and returns its public URL.
// Files are write-once; names never collide because they embed a UUID.
func (u *LocalUploader) Save(ctx context.Context, kind, filename, contentType string, size int64, r io.Reader) (string, error) {
	name := fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(filename))
	kindDir := filepath.Join(u.dir, kind)
	if err := os.MkdirAll(kindDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUpload, err)
	}

	dst, err := os.OpenFile(filepath.Join(kindDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUpload, err)
	}
	defer dst.Close()

	// CopyN returns nil only when exactly size bytes were written; a reader
	// shorter than its declared size must not leave a truncated file behind.
	if written, err := io.CopyN(dst, r, size); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: wrote %d of %d bytes: %v", models.ErrUpload, written, size, err)
	}

	return fmt.Sprintf("%s/%s/%s", u.baseURL, kind, name), nil
}
