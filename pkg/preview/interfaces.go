package preview

import (
	"context"
	"io"
)

// Service is the single authority for reading and writing preview resources.
type Service interface {
	// Deposit stores a new preview at (SourceID, Checksum) and returns the
	// derived metadata. A key that already holds a preview fails with
	// ErrPreviewExists without mutating stored state.
	Deposit(ctx context.Context, req DepositRequest) (*Metadata, error)

	// GetMetadata returns the stored metadata record for a preview.
	GetMetadata(ctx context.Context, sourceID, checksum string) (*Metadata, error)

	// GetContent returns the preview with its content stream. The caller
	// must close Preview.Content.
	GetContent(ctx context.Context, sourceID, checksum string) (*Preview, error)

	// Status verifies that the backing blob store is reachable.
	Status(ctx context.Context) error
}

// PutOptions carries optional parameters for a blob store Put.
type PutOptions struct {
	// ContentType is stored with the object where the backend supports it.
	ContentType string

	// IfNotExists makes the put conditional: it fails with ErrObjectExists
	// when an object is already stored at the key. The condition must be
	// enforced by the backend itself so that concurrent writers across
	// processes resolve to a single winner.
	IfNotExists bool
}

// BlobStore defines the interface for storage backends.
//
// Implementations must return ErrObjectNotFound from Get on a missing key and
// ErrObjectExists from a losing conditional Put, distinguishable from
// transport or permission failures.
type BlobStore interface {
	// Put stores an object at the given key.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error

	// Get retrieves an object's bytes.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is stored at the key. A missing key
	// is (false, nil); an error means the store could not answer.
	Exists(ctx context.Context, key string) (bool, error)
}
