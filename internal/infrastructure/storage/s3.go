package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/domain"
)

type s3Store struct {
	client       *minio.Client
	bucket       string
	originalsDir string
}

// NewS3Store reads originals from the bucket owned by the upload
// pipeline. The bucket must already exist; this service never writes to
// it and does not try to create it.
func NewS3Store(cfg *config.StorageConfig) (domain.OriginalStore, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	if cfg.OriginalsDir == "" {
		cfg.OriginalsDir = "originals"
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	exists, err := client.BucketExists(context.Background(), cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("s3 bucket %q does not exist", cfg.S3Bucket)
	}

	return &s3Store{
		client:       client,
		bucket:       cfg.S3Bucket,
		originalsDir: cfg.OriginalsDir,
	}, nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	objectName := path.Join(s.originalsDir, key)

	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to get object")
		return nil, fmt.Errorf("get object %s: %w", objectName, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			zlog.Logger.Warn().Str("object", objectName).Msg("object not found in s3")
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("object inaccessible")
		return nil, fmt.Errorf("stat object %s: %w", objectName, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("object", objectName).Msg("failed to read object")
		return nil, fmt.Errorf("read object %s: %w", objectName, err)
	}

	zlog.Logger.Info().Str("key", key).Int("bytes", len(data)).Msg("original read from s3")
	return data, nil
}
