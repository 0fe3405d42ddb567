package preview

import (
	"encoding/json"
	"fmt"
	"time"
)

// storedMetadata is the JSON shape of the metadata sibling object. Field
// names are part of the storage contract and must not change without a
// migration plan.
type storedMetadata struct {
	Added       *time.Time `json:"added"`
	Creator     *string    `json:"creator"`
	Checksum    *string    `json:"checksum"`
	ContentType *string    `json:"content_type"`
	SizeBytes   *int64     `json:"size_bytes"`
}

// EncodeMetadata serializes a metadata record to its stored JSON form.
// Timestamps are written in UTC.
func EncodeMetadata(m *Metadata) ([]byte, error) {
	added := m.Added.UTC()
	creator := m.Creator
	checksum := m.Checksum
	contentType := m.ContentType
	size := m.SizeBytes
	return json.Marshal(storedMetadata{
		Added:       &added,
		Creator:     &creator,
		Checksum:    &checksum,
		ContentType: &contentType,
		SizeBytes:   &size,
	})
}

// DecodeMetadata parses a stored metadata object. A missing or empty
// required field, a zero timestamp, or a negative size fails with
// ErrMalformedMetadata; no field is ever defaulted.
func DecodeMetadata(data []byte) (*Metadata, error) {
	var raw storedMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	switch {
	case raw.Added == nil || raw.Added.IsZero():
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedMetadata, "added")
	case raw.Creator == nil || *raw.Creator == "":
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedMetadata, "creator")
	case raw.Checksum == nil || *raw.Checksum == "":
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedMetadata, "checksum")
	case raw.ContentType == nil || *raw.ContentType == "":
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedMetadata, "content_type")
	case raw.SizeBytes == nil:
		return nil, fmt.Errorf("%w: missing field %q", ErrMalformedMetadata, "size_bytes")
	case *raw.SizeBytes < 0:
		return nil, fmt.Errorf("%w: negative size_bytes", ErrMalformedMetadata)
	}

	return &Metadata{
		Added:       raw.Added.UTC(),
		Creator:     *raw.Creator,
		Checksum:    *raw.Checksum,
		ContentType: *raw.ContentType,
		SizeBytes:   *raw.SizeBytes,
	}, nil
}
