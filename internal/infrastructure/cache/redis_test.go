package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

func newTestRedis(t *testing.T) (domain.ArtifactCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedis(&config.CacheConfig{Addr: mr.Addr(), KeyPrefix: "transform:"})
	require.NoError(t, err)
	return c, mr
}

func TestRedisPutGet(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", testArtifact("k1"), time.Minute))

	got, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got.Bytes)
	assert.Equal(t, "image/webp", got.ContentType)
	assert.Equal(t, "k1", got.CacheKey)
}

func TestRedisMiss(t *testing.T) {
	c, _ := newTestRedis(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisKeyPrefix(t *testing.T) {
	c, mr := newTestRedis(t)

	require.NoError(t, c.Put(context.Background(), "k1", testArtifact("k1"), time.Minute))
	assert.True(t, mr.Exists("transform:k1"))
}

func TestRedisTTLApplied(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k1", testArtifact("k1"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisCorruptEnvelopeIsMiss(t *testing.T) {
	c, mr := newTestRedis(t)

	require.NoError(t, mr.Set("transform:k1", "not-json"))

	_, err := c.Get(context.Background(), "k1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisDownIsUpstreamError(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), "k1")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	err = c.Put(context.Background(), "k1", testArtifact("k1"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestRedisRequiresAddr(t *testing.T) {
	_, err := NewRedis(&config.CacheConfig{})
	assert.Error(t, err)
}
