package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"quickbite/pkg/apperr"
)

const MaxUploadSize = 10 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiskBlobs writes uploads under Dir and serves them from URLPrefix.
type DiskBlobs struct {
	Dir       string
	URLPrefix string
}

func NewDiskBlobs(dir, urlPrefix string) *DiskBlobs {
	return &DiskBlobs{Dir: dir, URLPrefix: urlPrefix}
}

// Put stores r under a fresh name derived from prefix and returns its URL.
func (b *DiskBlobs) Put(ctx context.Context, prefix, contentType string, r io.Reader) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperr.Validation("unsupported file type %q", contentType)
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := prefix + "-" + uuid.NewString() + ext
	path := filepath.Join(b.Dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if n > MaxUploadSize {
		os.Remove(path)
		return "", apperr.Validation("file exceeds %d bytes", MaxUploadSize)
	}
	return strings.TrimSuffix(b.URLPrefix, "/") + "/" + name, nil
}
