package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/previewd/previewd/pkg/preview"
)

// Backend is an in-memory implementation of the preview.BlobStore interface
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

// Put stores an object in memory. With IfNotExists set, the existence check
// and the write happen under one lock so concurrent conditional puts resolve
// to a single winner.
func (b *Backend) Put(ctx context.Context, key string, r io.Reader, opts preview.PutOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if opts.IfNotExists {
		if _, exists := b.objects[key]; exists {
			return preview.ErrObjectExists
		}
	}

	b.objects[key] = data
	if opts.ContentType != "" {
		b.contentTypes[key] = opts.ContentType
	} else {
		b.contentTypes[key] = "application/octet-stream"
	}
	return nil
}

// Get retrieves an object's bytes from memory
func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[key]
	if !exists {
		return nil, preview.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Exists reports whether an object is stored at the key
func (b *Backend) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, exists := b.objects[key]
	return exists, nil
}

// ContentType returns the stored content type for a key. Test helper.
func (b *Backend) ContentType(key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contentTypes[key]
}
