package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs the redis-backed artifact cache. The store owns
// TTL expiry and eviction; this client only reads and writes envelopes.
func NewRedis(cfg *config.CacheConfig) (domain.ArtifactCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "transform:"
	}

	zlog.Logger.Info().Str("addr", cfg.Addr).Str("prefix", prefix).Msg("redis artifact cache initialized")
	return &redisCache{client: client, prefix: prefix}, nil
}

// envelope is the stored form of an artifact. Bytes travel base64-coded
// inside JSON; the payload is dominated by the image data either way.
type envelope struct {
	Bytes       []byte    `json:"bytes"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *redisCache) key(k string) string {
	return c.prefix + k
}

func (c *redisCache) Get(ctx context.Context, key string) (*domain.CachedArtifact, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: redis get: %v", domain.ErrUpstreamUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A corrupt entry behaves like a miss; the next render overwrites it.
		zlog.Logger.Warn().Err(err).Str("key", key).Msg("corrupt cache envelope, treating as miss")
		return nil, domain.ErrCacheMiss
	}

	return &domain.CachedArtifact{
		Bytes:       env.Bytes,
		ContentType: env.ContentType,
		CacheKey:    key,
		CreatedAt:   env.CreatedAt,
	}, nil
}

func (c *redisCache) Put(ctx context.Context, key string, artifact *domain.CachedArtifact, ttl time.Duration) error {
	data, err := json.Marshal(envelope{
		Bytes:       artifact.Bytes,
		ContentType: artifact.ContentType,
		CreatedAt:   artifact.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal cache envelope: %w", err)
	}

	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
