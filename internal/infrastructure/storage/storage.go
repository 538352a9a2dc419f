package storage

import (
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

// ErrObjectNotFound marks a missing object in the backing store. The
// usecase layer maps it to domain.ErrOriginalNotFound.
var ErrObjectNotFound = errors.New("object not found")

// New selects the original-bytes backend from configuration. The
// transform core only ever reads originals; writes belong to the upload
// service that owns the bucket.
func New(cfg *config.StorageConfig) (domain.OriginalStore, error) {
	switch cfg.Type {
	case "local":
		zlog.Logger.Info().Msg("Initializing local original store")
		return NewLocalStore(cfg)
	case "s3":
		zlog.Logger.Info().Msg("Initializing S3 original store")
		return NewS3Store(cfg)
	default:
		zlog.Logger.Error().Str("type", cfg.Type).Msg("Unsupported storage type, use 'local' or 's3'")
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
