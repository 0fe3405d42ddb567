// Package preview provides a content-addressable store for rendered
// submission previews with pluggable blob storage backends.
//
// A preview is addressed by the pair (sourceID, checksum): the identifier of
// the source package in the upstream file manager and the url-safe base64 MD5
// digest of the exact source bytes that produced the preview. The pair is
// treated as content-addressed, so a preview is immutable once written; a
// second deposit at the same key fails with ErrPreviewExists rather than
// overwriting.
//
// Each preview is persisted as two sibling objects in the backing store: the
// raw content bytes and a JSON metadata record. The two writes are not
// atomic. A crash between them can leave one sibling without the other;
// readers surface that state as ErrIntegrity rather than NotFound, and it is
// reconciled out of band. Blob storage implementations (memory, filesystem,
// S3) live under subpackages of storage.
package preview
