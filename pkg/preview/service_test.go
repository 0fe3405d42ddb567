package preview_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewd/previewd/pkg/preview"
	memorystorage "github.com/previewd/previewd/pkg/preview/storage/memory"
)

var testClock = func() time.Time {
	return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
}

func setupTestService(t *testing.T) (preview.Service, *memorystorage.Backend) {
	t.Helper()
	backend := memorystorage.New()
	svc, err := preview.New(
		preview.WithBlobStore(backend),
		preview.WithClock(testClock),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)
	return svc, backend
}

func depositRequest(content string) preview.DepositRequest {
	return preview.DepositRequest{
		SourceID:    "1234",
		Checksum:    "foochex==",
		Content:     strings.NewReader(content),
		ContentType: "application/pdf",
		Creator:     "user:5678",
	}
}

func TestServiceCreation(t *testing.T) {
	t.Run("no blob store should fail", func(t *testing.T) {
		svc, err := preview.New()
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("with blob store should succeed", func(t *testing.T) {
		svc, err := preview.New(preview.WithBlobStore(memorystorage.New()))
		assert.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("derives metadata from content", func(t *testing.T) {
		svc, _ := setupTestService(t)

		metadata, err := svc.Deposit(ctx, depositRequest("foocontent"))
		require.NoError(t, err)

		assert.Equal(t, testClock(), metadata.Added)
		assert.Equal(t, "user:5678", metadata.Creator)
		assert.Equal(t, "ewrggAHdCT55M1uUfwKLEA==", metadata.Checksum)
		assert.Equal(t, "application/pdf", metadata.ContentType)
		assert.Equal(t, int64(10), metadata.SizeBytes)
	})

	t.Run("second deposit at same key conflicts", func(t *testing.T) {
		svc, _ := setupTestService(t)

		first, err := svc.Deposit(ctx, depositRequest("foocontent"))
		require.NoError(t, err)

		_, err = svc.Deposit(ctx, depositRequest("differentcontent"))
		assert.ErrorIs(t, err, preview.ErrPreviewExists)

		// Originally stored state is untouched.
		stored, err := svc.GetContent(ctx, "1234", "foochex==")
		require.NoError(t, err)
		defer stored.Content.Close()
		data, err := io.ReadAll(stored.Content)
		require.NoError(t, err)
		assert.Equal(t, "foocontent", string(data))
		assert.Equal(t, first.Checksum, stored.Metadata.Checksum)
	})

	t.Run("identical payload still conflicts", func(t *testing.T) {
		svc, _ := setupTestService(t)

		_, err := svc.Deposit(ctx, depositRequest("foocontent"))
		require.NoError(t, err)

		_, err = svc.Deposit(ctx, depositRequest("foocontent"))
		assert.ErrorIs(t, err, preview.ErrPreviewExists)
	})

	t.Run("empty content is a valid preview", func(t *testing.T) {
		svc, _ := setupTestService(t)

		metadata, err := svc.Deposit(ctx, depositRequest(""))
		require.NoError(t, err)
		assert.Equal(t, int64(0), metadata.SizeBytes)
		assert.Equal(t, "1B2M2Y8AsgTpgAmY7PhCfg==", metadata.Checksum)

		p, err := svc.GetContent(ctx, "1234", "foochex==")
		require.NoError(t, err)
		defer p.Content.Close()
		data, err := io.ReadAll(p.Content)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("missing creator is unauthorized and persists nothing", func(t *testing.T) {
		svc, backend := setupTestService(t)

		req := depositRequest("foocontent")
		req.Creator = ""
		_, err := svc.Deposit(ctx, req)
		assert.ErrorIs(t, err, preview.ErrUnauthorized)

		_, contentKey := preview.DeriveKeys("1234", "foochex==")
		exists, err := backend.Exists(ctx, contentKey)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = svc.GetMetadata(ctx, "1234", "foochex==")
		assert.ErrorIs(t, err, preview.ErrPreviewNotFound)
	})

	t.Run("missing content type is malformed", func(t *testing.T) {
		svc, _ := setupTestService(t)

		req := depositRequest("foocontent")
		req.ContentType = ""
		_, err := svc.Deposit(ctx, req)
		assert.ErrorIs(t, err, preview.ErrMalformedRequest)
	})

	t.Run("invalid key parts rejected", func(t *testing.T) {
		svc, _ := setupTestService(t)

		req := depositRequest("foocontent")
		req.SourceID = "bad/id"
		_, err := svc.Deposit(ctx, req)
		assert.ErrorIs(t, err, preview.ErrMalformedRequest)

		req = depositRequest("foocontent")
		req.Checksum = ""
		_, err = svc.Deposit(ctx, req)
		assert.ErrorIs(t, err, preview.ErrMalformedRequest)
	})
}

func TestGetMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		svc, _ := setupTestService(t)

		deposited, err := svc.Deposit(ctx, depositRequest("foocontent"))
		require.NoError(t, err)

		loaded, err := svc.GetMetadata(ctx, "1234", "foochex==")
		require.NoError(t, err)
		assert.Equal(t, deposited, loaded)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		svc, _ := setupTestService(t)

		_, err := svc.GetMetadata(ctx, "1234", "neverwritten==")
		assert.ErrorIs(t, err, preview.ErrPreviewNotFound)
	})

	t.Run("content without metadata is an integrity error", func(t *testing.T) {
		svc, backend := setupTestService(t)

		_, contentKey := preview.DeriveKeys("1234", "foochex==")
		err := backend.Put(ctx, contentKey, bytes.NewReader([]byte("orphan")), preview.PutOptions{
			ContentType: "application/pdf",
		})
		require.NoError(t, err)

		_, err = svc.GetMetadata(ctx, "1234", "foochex==")
		assert.ErrorIs(t, err, preview.ErrIntegrity)
		assert.NotErrorIs(t, err, preview.ErrPreviewNotFound)
	})

	t.Run("undecodable metadata is malformed", func(t *testing.T) {
		svc, backend := setupTestService(t)

		metadataKey, _ := preview.DeriveKeys("1234", "foochex==")
		err := backend.Put(ctx, metadataKey, bytes.NewReader([]byte("{not json")), preview.PutOptions{
			ContentType: "application/json",
		})
		require.NoError(t, err)

		_, err = svc.GetMetadata(ctx, "1234", "foochex==")
		assert.ErrorIs(t, err, preview.ErrMalformedMetadata)
	})
}

func TestGetContent(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		svc, _ := setupTestService(t)

		_, err := svc.Deposit(ctx, depositRequest("foocontent"))
		require.NoError(t, err)

		p, err := svc.GetContent(ctx, "1234", "foochex==")
		require.NoError(t, err)
		defer p.Content.Close()

		assert.Equal(t, "1234", p.SourceID)
		assert.Equal(t, "foochex==", p.Checksum)
		assert.Equal(t, "application/pdf", p.Metadata.ContentType)

		data, err := io.ReadAll(p.Content)
		require.NoError(t, err)
		assert.Equal(t, "foocontent", string(data))
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		svc, _ := setupTestService(t)

		_, err := svc.GetContent(ctx, "1234", "neverwritten==")
		assert.ErrorIs(t, err, preview.ErrPreviewNotFound)
	})

	t.Run("metadata without content is an integrity error", func(t *testing.T) {
		svc, backend := setupTestService(t)

		metadata := &preview.Metadata{
			Added:       testClock(),
			Creator:     "user:5678",
			Checksum:    "c==",
			ContentType: "application/pdf",
			SizeBytes:   10,
		}
		encoded, err := preview.EncodeMetadata(metadata)
		require.NoError(t, err)

		metadataKey, _ := preview.DeriveKeys("1234", "foochex==")
		err = backend.Put(ctx, metadataKey, bytes.NewReader(encoded), preview.PutOptions{
			ContentType: "application/json",
		})
		require.NoError(t, err)

		_, err = svc.GetContent(ctx, "1234", "foochex==")
		assert.ErrorIs(t, err, preview.ErrIntegrity)
		assert.NotErrorIs(t, err, preview.ErrPreviewNotFound)
	})
}

func TestConcurrentDeposits(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deposit(ctx, depositRequest("foocontent"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var created, conflicted int
	for err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, preview.ErrPreviewExists):
			conflicted++
		default:
			t.Fatalf("unexpected deposit error: %v", err)
		}
	}

	assert.Equal(t, 1, created, "exactly one writer wins the key")
	assert.Equal(t, writers-1, conflicted)
}

// failingBlobStore errors on every call, standing in for an unreachable
// backend.
type failingBlobStore struct{}

func (failingBlobStore) Put(ctx context.Context, key string, r io.Reader, opts preview.PutOptions) error {
	return errors.New("connection refused")
}

func (failingBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("connection refused")
}

func (failingBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reachable backend is healthy", func(t *testing.T) {
		svc, _ := setupTestService(t)
		assert.NoError(t, svc.Status(ctx))
	})

	t.Run("unreachable backend is unhealthy", func(t *testing.T) {
		svc, err := preview.New(preview.WithBlobStore(failingBlobStore{}))
		require.NoError(t, err)
		assert.ErrorIs(t, svc.Status(ctx), preview.ErrBackendUnavailable)
	})
}

func TestContentDigest(t *testing.T) {
	// Known vectors: url-safe base64 MD5.
	assert.Equal(t, "ewrggAHdCT55M1uUfwKLEA==", preview.ContentDigest([]byte("foocontent")))
	assert.Equal(t, "1B2M2Y8AsgTpgAmY7PhCfg==", preview.ContentDigest(nil))
}
