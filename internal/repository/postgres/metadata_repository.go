package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/domain"
)

type metadataRepository struct {
	db       *dbpg.DB
	strategy retry.Strategy
}

// NewMetadataRepository builds the postgres-backed ML metadata store.
// Region lists live in JSONB columns; the record is replaced wholesale
// on upsert, matching the upstream reprocessing lifecycle.
func NewMetadataRepository(db *dbpg.DB, strategy retry.Strategy) domain.MetadataRepository {
	return &metadataRepository{
		db:       db,
		strategy: strategy,
	}
}

func (r *metadataRepository) Get(ctx context.Context, imageID string) (*domain.ImageMLMetadata, error) {
	query := `
		SELECT image_id, contract_version,
			   face_regions, body_regions, interest_regions, explicit_regions,
			   saliency, created_at, updated_at
		FROM image_ml_metadata
		WHERE image_id = $1
	`

	var md domain.ImageMLMetadata
	var faceJSON, bodyJSON, interestJSON, explicitJSON, saliencyJSON []byte

	row := r.db.Master.QueryRowContext(ctx, query, imageID)
	err := row.Scan(
		&md.ImageID,
		&md.ContractVersion,
		&faceJSON,
		&bodyJSON,
		&interestJSON,
		&explicitJSON,
		&saliencyJSON,
		&md.CreatedAt,
		&md.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrMetadataNotFound
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("failed to read ml metadata")
		return nil, fmt.Errorf("%w: read metadata: %v", domain.ErrUpstreamUnavailable, err)
	}

	for _, col := range []struct {
		raw  []byte
		dest *[]domain.Region
	}{
		{faceJSON, &md.FaceRegions},
		{bodyJSON, &md.BodyRegions},
		{interestJSON, &md.InterestRegions},
		{explicitJSON, &md.ExplicitRegions},
	} {
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("corrupt region column")
			return nil, fmt.Errorf("decode regions for %s: %w", imageID, err)
		}
	}
	if err := json.Unmarshal(saliencyJSON, &md.Saliency); err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("corrupt saliency column")
		return nil, fmt.Errorf("decode saliency for %s: %w", imageID, err)
	}

	return &md, nil
}

func (r *metadataRepository) Upsert(ctx context.Context, metadata *domain.ImageMLMetadata) error {
	query := `
		INSERT INTO image_ml_metadata (
			image_id, contract_version,
			face_regions, body_regions, interest_regions, explicit_regions,
			saliency, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (image_id) DO UPDATE SET
			contract_version = EXCLUDED.contract_version,
			face_regions = EXCLUDED.face_regions,
			body_regions = EXCLUDED.body_regions,
			interest_regions = EXCLUDED.interest_regions,
			explicit_regions = EXCLUDED.explicit_regions,
			saliency = EXCLUDED.saliency,
			updated_at = NOW()
	`

	faceJSON, err := marshalRegions(metadata.FaceRegions)
	if err != nil {
		return err
	}
	bodyJSON, err := marshalRegions(metadata.BodyRegions)
	if err != nil {
		return err
	}
	interestJSON, err := marshalRegions(metadata.InterestRegions)
	if err != nil {
		return err
	}
	explicitJSON, err := marshalRegions(metadata.ExplicitRegions)
	if err != nil {
		return err
	}
	saliency := metadata.Saliency
	if saliency == nil {
		saliency = []domain.SaliencyPoint{}
	}
	saliencyJSON, err := json.Marshal(saliency)
	if err != nil {
		return fmt.Errorf("marshal saliency: %w", err)
	}

	_, err = r.db.ExecWithRetry(ctx, r.strategy, query,
		metadata.ImageID,
		metadata.ContractVersion,
		faceJSON,
		bodyJSON,
		interestJSON,
		explicitJSON,
		saliencyJSON,
	)

	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", metadata.ImageID).Msg("failed to upsert ml metadata")
		return fmt.Errorf("upsert metadata: %w", err)
	}

	zlog.Logger.Info().
		Str("image_id", metadata.ImageID).
		Int("contract_version", metadata.ContractVersion).
		Int("face_regions", len(metadata.FaceRegions)).
		Int("explicit_regions", len(metadata.ExplicitRegions)).
		Msg("ml metadata upserted")
	return nil
}

func (r *metadataRepository) Delete(ctx context.Context, imageID string) error {
	query := `DELETE FROM image_ml_metadata WHERE image_id = $1`

	result, err := r.db.ExecWithRetry(ctx, r.strategy, query, imageID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("failed to delete ml metadata")
		return fmt.Errorf("delete metadata: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrMetadataNotFound
	}

	zlog.Logger.Info().Str("image_id", imageID).Msg("ml metadata deleted")
	return nil
}

func marshalRegions(regions []domain.Region) ([]byte, error) {
	if regions == nil {
		regions = []domain.Region{}
	}
	data, err := json.Marshal(regions)
	if err != nil {
		return nil, fmt.Errorf("marshal regions: %w", err)
	}
	return data, nil
}
