package preview

import (
	"io"
	"time"
)

// Metadata is the descriptive record stored alongside preview content.
//
// Every field is derived server-side at deposit time; callers never supply it
// directly. Checksum is the url-safe base64 MD5 digest of the stored content
// bytes, which is independent of the checksum in the preview's key (that one
// digests the source package the preview was rendered from).
type Metadata struct {
	Added       time.Time `json:"added"`
	Creator     string    `json:"creator"`
	Checksum    string    `json:"checksum"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
}

// Preview is a stored preview: its key, metadata, and optionally its content.
//
// Content is set only by content reads. The caller owns the stream and must
// close it.
type Preview struct {
	SourceID string
	Checksum string
	Metadata *Metadata
	Content  io.ReadCloser
}

// DepositRequest contains parameters for depositing a preview.
type DepositRequest struct {
	SourceID    string
	Checksum    string
	Content     io.Reader
	ContentType string
	Creator     string
}
