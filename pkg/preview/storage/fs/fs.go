package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/previewd/previewd/pkg/preview"
)

// Backend is a filesystem implementation of the preview.BlobStore interface.
// Each object is a file under the base directory; its content type lives in
// a sidecar file so it survives process restarts.
//
// Keys are path-escaped into flat filenames. The store's keyspace has keys
// that are prefixes of other keys (a metadata key is a path prefix of its
// content sibling), which cannot map onto a file tree directly.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing objects
}

const contentTypeSuffix = ".ctype"

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{baseDir: config.BaseDir}, nil
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.baseDir, url.PathEscape(key))
}

// Put stores an object on the filesystem. Conditional puts rely on
// O_CREATE|O_EXCL, so the existence check is atomic at the filesystem level.
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, opts preview.PutOptions) error {
	filePath := b.path(key)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if opts.IfNotExists {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	file, err := os.OpenFile(filePath, flags, 0644)
	if err != nil {
		if opts.IfNotExists && errors.Is(err, os.ErrExist) {
			return preview.ErrObjectExists
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	if opts.ContentType != "" {
		if err := os.WriteFile(filePath+contentTypeSuffix, []byte(opts.ContentType), 0644); err != nil {
			return fmt.Errorf("failed to write content type: %w", err)
		}
	}
	return nil
}

// Get retrieves an object from the filesystem
func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, preview.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists reports whether an object is stored at the key
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(b.path(key))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// ContentType returns the stored content type for a key, or the empty string
// when no sidecar was written.
func (b *Backend) ContentType(key string) string {
	data, err := os.ReadFile(b.path(key) + contentTypeSuffix)
	if err != nil {
		return ""
	}
	return string(data)
}
