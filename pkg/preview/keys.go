package preview

import "fmt"

// DeriveKeys maps a preview key to the storage keys of its two sibling
// objects. The mapping is a pure function of its inputs so that every store
// instance over the same bucket addresses the same objects.
func DeriveKeys(sourceID, checksum string) (metadataKey, contentKey string) {
	metadataKey = fmt.Sprintf("%s/%s", sourceID, checksum)
	contentKey = fmt.Sprintf("%s/%s/content", sourceID, checksum)
	return metadataKey, contentKey
}

// ValidateKeyPart checks that a key component is non-empty and url-safe.
// Checksums are url-safe base64 (including '=' padding), so the accepted
// alphabet is the unreserved URI characters plus '+', '=' and '~'.
func ValidateKeyPart(part string) error {
	if part == "" {
		return fmt.Errorf("%w: empty key part", ErrMalformedRequest)
	}
	for i := 0; i < len(part); i++ {
		if !isKeyByte(part[i]) {
			return fmt.Errorf("%w: invalid character %q in key part %q", ErrMalformedRequest, part[i], part)
		}
	}
	return nil
}

func isKeyByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '~', '+', '=':
		return true
	}
	return false
}
