package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

type localStore struct {
	basePath     string
	originalsDir string
}

// NewLocalStore serves originals from the local filesystem. Used for
// development and tests; production reads from S3.
func NewLocalStore(cfg *config.StorageConfig) (domain.OriginalStore, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	if cfg.OriginalsDir == "" {
		cfg.OriginalsDir = "originals"
	}

	store := &localStore{
		basePath:     cfg.LocalPath,
		originalsDir: cfg.OriginalsDir,
	}

	originalsPath := filepath.Join(store.basePath, store.originalsDir)
	if err := os.MkdirAll(originalsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create originals directory: %w", err)
	}

	return store, nil
}

func (s *localStore) Get(ctx context.Context, key string) ([]byte, error) {
	if strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid storage key %q", key)
	}

	fullPath := filepath.Join(s.basePath, s.originalsDir, key)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("original not found")
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to read original")
		return nil, fmt.Errorf("read original %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("key", key).Int("bytes", len(data)).Msg("original read from local store")
	return data, nil
}
