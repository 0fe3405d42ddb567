package preview

import (
	"fmt"
	"time"
)

// service implements the Service interface
type service struct {
	blobStore BlobStore
	now       func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the blob storage backend for the service
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithClock overrides the time source used for Metadata.Added. Intended for
// tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		now: time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.blobStore == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}
