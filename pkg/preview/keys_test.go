package preview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/previewd/previewd/pkg/preview"
)

func TestDeriveKeys(t *testing.T) {
	metadataKey, contentKey := preview.DeriveKeys("12345", "asdf1234==")
	assert.Equal(t, "12345/asdf1234==", metadataKey)
	assert.Equal(t, "12345/asdf1234==/content", contentKey)

	// Same inputs always address the same objects.
	again, _ := preview.DeriveKeys("12345", "asdf1234==")
	assert.Equal(t, metadataKey, again)
}

func TestValidateKeyPart(t *testing.T) {
	tests := []struct {
		name    string
		part    string
		wantErr bool
	}{
		{name: "plain id", part: "12345"},
		{name: "base64 checksum with padding", part: "ewrggAHdCT55M1uUfwKLEA=="},
		{name: "url-safe alphabet", part: "a-b_c.d~e+f"},
		{name: "empty", part: "", wantErr: true},
		{name: "slash", part: "a/b", wantErr: true},
		{name: "space", part: "a b", wantErr: true},
		{name: "standard base64 slash", part: "ab/cd==", wantErr: true},
		{name: "control byte", part: "ab\ncd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := preview.ValidateKeyPart(tt.part)
			if tt.wantErr {
				assert.ErrorIs(t, err, preview.ErrMalformedRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
