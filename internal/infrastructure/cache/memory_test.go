package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/imageserve/internal/domain"
)

func testArtifact(key string) *domain.CachedArtifact {
	return &domain.CachedArtifact{
		Bytes:       []byte("payload"),
		ContentType: "image/webp",
		CacheKey:    key,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryPutGet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", testArtifact("k1"), time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got.Bytes)
	assert.Equal(t, "image/webp", got.ContentType)
}

func TestMemoryMiss(t *testing.T) {
	c := NewMemory()

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", testArtifact("k1"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", testArtifact("k1"), 0))

	_, err := c.Get(ctx, "k1")
	assert.NoError(t, err)
}

func TestMemoryOverwrite(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	first := testArtifact("k1")
	require.NoError(t, c.Put(ctx, "k1", first, time.Minute))

	second := testArtifact("k1")
	second.Bytes = []byte("fresher")
	require.NoError(t, c.Put(ctx, "k1", second, time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresher"), got.Bytes)
}
