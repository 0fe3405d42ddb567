package preview

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// statusProbeKey is the key the status check asks the backend about. The
// object never exists; a clean "not found" answer proves reachability.
const statusProbeKey = ".previewd/status-probe"

const metadataContentType = "application/json"

// ContentDigest returns the url-safe base64 MD5 digest of content bytes,
// matching the encoding used for source-package checksums in preview keys.
func ContentDigest(content []byte) string {
	sum := md5.Sum(content)
	return base64.URLEncoding.EncodeToString(sum[:])
}

func (s *service) Deposit(ctx context.Context, req DepositRequest) (*Metadata, error) {
	if err := ValidateKeyPart(req.SourceID); err != nil {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: err}
	}
	if err := ValidateKeyPart(req.Checksum); err != nil {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: err}
	}
	if req.Creator == "" {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: ErrUnauthorized}
	}
	if req.ContentType == "" {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit",
			Err: fmt.Errorf("%w: missing content type", ErrMalformedRequest)}
	}

	content, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit",
			Err: fmt.Errorf("reading content: %w", err)}
	}

	metadata := &Metadata{
		Added:       s.now().UTC(),
		Creator:     req.Creator,
		Checksum:    ContentDigest(content),
		ContentType: req.ContentType,
		SizeBytes:   int64(len(content)),
	}

	metadataKey, contentKey := DeriveKeys(req.SourceID, req.Checksum)

	// The conditional put on the content object decides the race between
	// concurrent depositors; only the winner proceeds to write metadata.
	err = s.blobStore.Put(ctx, contentKey, bytes.NewReader(content), PutOptions{
		ContentType: req.ContentType,
		IfNotExists: true,
	})
	if err != nil {
		if errors.Is(err, ErrObjectExists) {
			return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: ErrPreviewExists}
		}
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: err}
	}

	encoded, err := EncodeMetadata(metadata)
	if err != nil {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit", Err: err}
	}

	// Not atomic with the content write above. A failure here leaves content
	// without metadata, which readers report as ErrIntegrity.
	err = s.blobStore.Put(ctx, metadataKey, bytes.NewReader(encoded), PutOptions{
		ContentType: metadataContentType,
	})
	if err != nil {
		return nil, &StoreError{SourceID: req.SourceID, Checksum: req.Checksum, Op: "deposit",
			Err: fmt.Errorf("writing metadata: %w", err)}
	}

	return metadata, nil
}

func (s *service) GetMetadata(ctx context.Context, sourceID, checksum string) (*Metadata, error) {
	metadata, err := s.loadMetadata(ctx, sourceID, checksum)
	if err != nil {
		return nil, &StoreError{SourceID: sourceID, Checksum: checksum, Op: "get_metadata", Err: err}
	}
	return metadata, nil
}

func (s *service) GetContent(ctx context.Context, sourceID, checksum string) (*Preview, error) {
	metadata, err := s.loadMetadata(ctx, sourceID, checksum)
	if err != nil {
		return nil, &StoreError{SourceID: sourceID, Checksum: checksum, Op: "get_content", Err: err}
	}

	_, contentKey := DeriveKeys(sourceID, checksum)
	rc, err := s.blobStore.Get(ctx, contentKey)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			// Metadata decoded but its content sibling is gone.
			err = fmt.Errorf("%w: metadata present, content missing", ErrIntegrity)
		}
		return nil, &StoreError{SourceID: sourceID, Checksum: checksum, Op: "get_content", Err: err}
	}

	return &Preview{
		SourceID: sourceID,
		Checksum: checksum,
		Metadata: metadata,
		Content:  rc,
	}, nil
}

func (s *service) Status(ctx context.Context) error {
	if _, err := s.blobStore.Exists(ctx, statusProbeKey); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// loadMetadata reads and decodes the metadata sibling, classifying a missing
// object as either plain not-found or an integrity violation depending on
// whether the content sibling exists.
func (s *service) loadMetadata(ctx context.Context, sourceID, checksum string) (*Metadata, error) {
	if err := ValidateKeyPart(sourceID); err != nil {
		return nil, err
	}
	if err := ValidateKeyPart(checksum); err != nil {
		return nil, err
	}

	metadataKey, contentKey := DeriveKeys(sourceID, checksum)

	rc, err := s.blobStore.Get(ctx, metadataKey)
	if err != nil {
		if !errors.Is(err, ErrObjectNotFound) {
			return nil, err
		}
		exists, existsErr := s.blobStore.Exists(ctx, contentKey)
		if existsErr != nil {
			return nil, existsErr
		}
		if exists {
			return nil, fmt.Errorf("%w: content present, metadata missing", ErrIntegrity)
		}
		return nil, ErrPreviewNotFound
	}
	defer rc.Close()

	encoded, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	metadata, err := DecodeMetadata(encoded)
	if err != nil {
		return nil, err
	}
	return metadata, nil
}
