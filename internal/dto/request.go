package dto

import (
	"github.com/pixshare/imageserve/internal/domain"
)

// WarmImageTask is the kafka message asking the worker to pre-render
// preset variants for an image.
type WarmImageTask struct {
	TaskID  string   `json:"task_id"`
	ImageID string   `json:"image_id"`
	Presets []string `json:"presets"`
}

// RegionPayload mirrors domain.Region on the metadata ingest API.
type RegionPayload struct {
	X          float64 `json:"x" binding:"min=0,max=1"`
	Y          float64 `json:"y" binding:"min=0,max=1"`
	W          float64 `json:"w" binding:"min=0,max=1"`
	H          float64 `json:"h" binding:"min=0,max=1"`
	Confidence float64 `json:"confidence" binding:"min=0,max=1"`
}

// SaliencyPayload mirrors domain.SaliencyPoint on the ingest API.
type SaliencyPayload struct {
	X      float64 `json:"x" binding:"min=0,max=1"`
	Y      float64 `json:"y" binding:"min=0,max=1"`
	Weight float64 `json:"weight"`
}

// MetadataIngestRequest is the wholesale metadata replacement pushed by
// the upstream ML pipeline.
type MetadataIngestRequest struct {
	ContractVersion int               `json:"contract_version" binding:"required"`
	FaceRegions     []RegionPayload   `json:"face_regions"`
	BodyRegions     []RegionPayload   `json:"body_regions"`
	InterestRegions []RegionPayload   `json:"interest_regions"`
	ExplicitRegions []RegionPayload   `json:"explicit_regions"`
	Saliency        []SaliencyPayload `json:"saliency"`
}

// WarmRequest triggers pre-rendering; empty presets means the configured
// default set.
type WarmRequest struct {
	Presets []string `json:"presets"`
}

func (r *MetadataIngestRequest) ToDomain(imageID string) *domain.ImageMLMetadata {
	return &domain.ImageMLMetadata{
		ImageID:         imageID,
		ContractVersion: r.ContractVersion,
		FaceRegions:     mapRegions(r.FaceRegions),
		BodyRegions:     mapRegions(r.BodyRegions),
		InterestRegions: mapRegions(r.InterestRegions),
		ExplicitRegions: mapRegions(r.ExplicitRegions),
		Saliency:        mapSaliency(r.Saliency),
	}
}

func mapRegions(in []RegionPayload) []domain.Region {
	out := make([]domain.Region, 0, len(in))
	for _, p := range in {
		out = append(out, domain.Region{
			X: p.X, Y: p.Y, W: p.W, H: p.H, Confidence: p.Confidence,
		}.Clamp())
	}
	return out
}

func mapSaliency(in []SaliencyPayload) []domain.SaliencyPoint {
	out := make([]domain.SaliencyPoint, 0, len(in))
	for _, p := range in {
		out = append(out, domain.SaliencyPoint{X: p.X, Y: p.Y, Weight: p.Weight})
	}
	return out
}
