package preview

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrPreviewNotFound indicates no preview is stored at the requested key
	ErrPreviewNotFound = errors.New("preview not found")

	// ErrPreviewExists indicates a deposit targeted a key that already holds
	// a preview; previews are immutable once written
	ErrPreviewExists = errors.New("preview already exists")

	// ErrUnauthorized indicates the deposit carries no resolvable creator
	// identity
	ErrUnauthorized = errors.New("no creator identity")

	// ErrMalformedRequest indicates the deposit violates the write contract
	// (bad key part, missing content type)
	ErrMalformedRequest = errors.New("malformed deposit request")

	// ErrMalformedMetadata indicates a stored metadata object exists but does
	// not decode to a valid record
	ErrMalformedMetadata = errors.New("malformed stored metadata")

	// ErrIntegrity indicates one sibling object (content or metadata) exists
	// without the other; distinct from ErrPreviewNotFound and never repaired
	// automatically
	ErrIntegrity = errors.New("preview integrity violation")

	// ErrBackendUnavailable indicates the blob store cannot be reached or
	// authenticated to
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrObjectNotFound is returned by blob stores for reads of a missing key
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectExists is returned by blob stores when a conditional put loses
	// to an existing object
	ErrObjectExists = errors.New("object already exists")
)

// StoreError represents an error from a preview store operation.
type StoreError struct {
	SourceID string
	Checksum string
	Op       string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("preview operation %s failed for %s/%s: %v", e.Op, e.SourceID, e.Checksum, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
