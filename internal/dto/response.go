package dto

import (
	"github.com/pixshare/imageserve/internal/contract"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type PresetResponse struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Fit       string `json:"fit"`
	Format    string `json:"format"`
	Quality   int    `json:"quality"`
	Crop      string `json:"crop"`
	Context   string `json:"context"`
	Watermark string `json:"watermark"`
}

type PresetListResponse struct {
	ContractVersion int              `json:"contract_version"`
	Presets         []PresetResponse `json:"presets"`
}

type WarmResponse struct {
	TaskID  string   `json:"task_id,omitempty"`
	ImageID string   `json:"image_id"`
	Presets []string `json:"presets"`
}

func MapPresetsToResponse(version int, presets []contract.Preset) *PresetListResponse {
	out := make([]PresetResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, PresetResponse{
			Name:      p.Name,
			Width:     p.Width,
			Height:    p.Height,
			Fit:       string(p.Fit),
			Format:    string(p.Format),
			Quality:   p.Quality,
			Crop:      string(p.Crop),
			Context:   string(p.Context),
			Watermark: string(p.Watermark),
		})
	}
	return &PresetListResponse{ContractVersion: version, Presets: out}
}
