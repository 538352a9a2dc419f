package contract

import (
	"fmt"
	"sort"

	"github.com/pixshare/imageserve/internal/domain"
)

// Preset is a named, fixed parameter bundle sanctioned for one product
// surface. A request naming a preset may not override its context, and
// the preset's blur floor travels with the parsed params so the blur
// policy can never resolve below it.
type Preset struct {
	Name             string
	Width            int
	Height           int
	Fit              domain.FitMode
	Format           domain.OutputFormat
	Quality          int
	Crop             domain.CropMode
	Context          domain.RequestContext
	Watermark        domain.WatermarkKind
	BlurFloor        domain.BlurMode
	AllowNoWatermark bool
}

// Registry is the closed preset catalogue. It is built once at startup;
// construction fails if two presets disagree on the blur floor for the
// same request context.
type Registry struct {
	presets map[string]Preset
}

// NewRegistry validates the preset set and builds the catalogue.
func NewRegistry(presets []Preset) (*Registry, error) {
	byName := make(map[string]Preset, len(presets))
	floorByContext := make(map[domain.RequestContext]domain.BlurMode)
	floorSetter := make(map[domain.RequestContext]string)

	for _, p := range presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset with empty name")
		}
		if _, dup := byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate preset %q", p.Name)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("preset %q: non-positive dimensions", p.Name)
		}
		if p.Quality < 1 || p.Quality > 100 {
			return nil, fmt.Errorf("preset %q: quality %d out of range", p.Name, p.Quality)
		}
		if floor, seen := floorByContext[p.Context]; seen {
			if floor != p.BlurFloor {
				return nil, fmt.Errorf(
					"presets %q and %q disagree on the blur floor for context %q (%s vs %s)",
					floorSetter[p.Context], p.Name, p.Context, floor, p.BlurFloor,
				)
			}
		} else {
			floorByContext[p.Context] = p.BlurFloor
			floorSetter[p.Context] = p.Name
		}
		byName[p.Name] = p
	}

	return &Registry{presets: byName}, nil
}

// Resolve returns the preset for name. Unknown names are an error, not a
// silent fallback.
func (r *Registry) Resolve(name string) (Preset, error) {
	p, ok := r.presets[name]
	if !ok {
		return Preset{}, &domain.UnknownPresetError{Name: name}
	}
	return p, nil
}

// List returns all presets sorted by name.
func (r *Registry) List() []Preset {
	out := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultPresets is the sanctioned catalogue for the current product
// surfaces. Dimensions and quality follow the product spec per surface;
// every public preset carries the same blur floor of none (the safety
// floor for explicit content is the blur policy's, not the preset's).
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name:      "feed",
			Width:     1080,
			Height:    1350,
			Fit:       domain.FitCover,
			Format:    domain.FormatWebP,
			Quality:   80,
			Crop:      domain.CropInterest,
			Context:   domain.ContextPublic,
			Watermark: domain.WatermarkBrand,
			BlurFloor: domain.BlurNone,
		},
		{
			// Swipe cards frame the detected content region; when the
			// region is sensitive the blur policy protects it anyway.
			Name:      "swipe",
			Width:     1080,
			Height:    1920,
			Fit:       domain.FitCover,
			Format:    domain.FormatWebP,
			Quality:   75,
			Crop:      domain.CropExplicit,
			Context:   domain.ContextPublic,
			Watermark: domain.WatermarkBrand,
			BlurFloor: domain.BlurNone,
		},
		{
			Name:      "ranking",
			Width:     640,
			Height:    800,
			Fit:       domain.FitCover,
			Format:    domain.FormatWebP,
			Quality:   70,
			Crop:      domain.CropFace,
			Context:   domain.ContextPublic,
			Watermark: domain.WatermarkBrand,
			BlurFloor: domain.BlurNone,
		},
		{
			Name:      "profile",
			Width:     400,
			Height:    400,
			Fit:       domain.FitCover,
			Format:    domain.FormatJPEG,
			Quality:   82,
			Crop:      domain.CropFace,
			Context:   domain.ContextPublic,
			Watermark: domain.WatermarkUser,
			BlurFloor: domain.BlurNone,
		},
		{
			Name:             "og",
			Width:            1200,
			Height:           630,
			Fit:              domain.FitCover,
			Format:           domain.FormatJPEG,
			Quality:          85,
			Crop:             domain.CropInterest,
			Context:          domain.ContextPublic,
			Watermark:        domain.WatermarkNone,
			BlurFloor:        domain.BlurNone,
			AllowNoWatermark: true,
		},
	}
}
