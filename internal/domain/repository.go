package domain

import "context"

// MetadataRepository is the persistence port for ML metadata. Get serves
// the hot transform path; Upsert is the ingest path for the upstream ML
// collaborator, which replaces the record wholesale on reprocessing.
type MetadataRepository interface {
	Get(ctx context.Context, imageID string) (*ImageMLMetadata, error)
	Upsert(ctx context.Context, metadata *ImageMLMetadata) error
	Delete(ctx context.Context, imageID string) error
}
