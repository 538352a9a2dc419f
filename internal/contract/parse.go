package contract

import (
	"fmt"
	"strconv"

	"github.com/pixshare/imageserve/internal/domain"
)

// Parameter keys of the URL contract.
const (
	ParamVersion   = "v"
	ParamWidth     = "w"
	ParamHeight    = "h"
	ParamFit       = "fit"
	ParamFormat    = "fmt"
	ParamQuality   = "q"
	ParamCrop      = "crop"
	ParamBlur      = "blur"
	ParamContext   = "ctx"
	ParamWatermark = "wm"
	ParamPreset    = "preset"
)

// Per-field defaults applied after preset expansion and raw overlay.
const (
	DefaultWidth   = 1080
	DefaultHeight  = 1080
	DefaultQuality = 82

	MinDimension = 16
	MaxDimension = 4096
)

// Parser turns raw string parameters into a validated ImageURLParams.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	registry *Registry
}

func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse applies preset expansion, per-field validation, the contract
// version check and field defaulting, in that order. Any failure rejects
// the whole request; no side effects.
func (p *Parser) Parse(raw map[string]string) (domain.ImageURLParams, error) {
	var params domain.ImageURLParams
	var preset *Preset

	if name, ok := nonEmpty(raw, ParamPreset); ok {
		resolved, err := p.registry.Resolve(name)
		if err != nil {
			return domain.ImageURLParams{}, err
		}
		preset = &resolved
		params = domain.ImageURLParams{
			Width:            resolved.Width,
			Height:           resolved.Height,
			Fit:              resolved.Fit,
			Format:           resolved.Format,
			Quality:          resolved.Quality,
			Crop:             resolved.Crop,
			Blur:             domain.BlurNone,
			Context:          resolved.Context,
			Watermark:        resolved.Watermark,
			Preset:           resolved.Name,
			BlurFloor:        resolved.BlurFloor,
			AllowNoWatermark: resolved.AllowNoWatermark,
		}
	}

	for key, value := range raw {
		if value == "" {
			continue
		}
		if err := p.applyParam(&params, preset, key, value); err != nil {
			return domain.ImageURLParams{}, err
		}
	}

	if params.Version == 0 {
		params.Version = domain.ContractVersion
	}
	if params.Version != domain.ContractVersion {
		return domain.ImageURLParams{}, &domain.ContractVersionError{
			Requested: params.Version,
			Supported: domain.ContractVersion,
		}
	}

	applyDefaults(&params)
	return params, nil
}

func (p *Parser) applyParam(params *domain.ImageURLParams, preset *Preset, key, value string) error {
	switch key {
	case ParamPreset:
		return nil
	case ParamVersion:
		v, err := strconv.Atoi(value)
		if err != nil || v <= 0 {
			return &domain.ValidationError{Field: ParamVersion, Reason: "must be a positive integer"}
		}
		params.Version = v
	case ParamWidth:
		w, err := parseDimension(value)
		if err != nil {
			return &domain.ValidationError{Field: ParamWidth, Reason: err.Error()}
		}
		params.Width = w
	case ParamHeight:
		h, err := parseDimension(value)
		if err != nil {
			return &domain.ValidationError{Field: ParamHeight, Reason: err.Error()}
		}
		params.Height = h
	case ParamFit:
		switch domain.FitMode(value) {
		case domain.FitCover, domain.FitContain, domain.FitFill, domain.FitInside:
			params.Fit = domain.FitMode(value)
		default:
			return &domain.ValidationError{Field: ParamFit, Reason: "must be one of cover, contain, fill, inside"}
		}
	case ParamFormat:
		switch domain.OutputFormat(value) {
		case domain.FormatJPEG, domain.FormatWebP:
			params.Format = domain.OutputFormat(value)
		default:
			return &domain.ValidationError{Field: ParamFormat, Reason: "must be one of jpeg, webp"}
		}
	case ParamQuality:
		q, err := strconv.Atoi(value)
		if err != nil || q < 1 || q > 100 {
			return &domain.ValidationError{Field: ParamQuality, Reason: "must be an integer in [1,100]"}
		}
		params.Quality = q
	case ParamCrop:
		switch domain.CropMode(value) {
		case domain.CropFace, domain.CropBody, domain.CropInterest, domain.CropExplicit, domain.CropCenter:
			params.Crop = domain.CropMode(value)
		default:
			return &domain.ValidationError{Field: ParamCrop, Reason: "must be one of face, body, interest, explicit, center"}
		}
	case ParamBlur:
		switch domain.BlurMode(value) {
		case domain.BlurNone, domain.BlurEyes, domain.BlurFace, domain.BlurFull:
			params.Blur = domain.BlurMode(value)
		default:
			return &domain.ValidationError{Field: ParamBlur, Reason: "must be one of none, eyes, face, full"}
		}
	case ParamContext:
		ctx := domain.RequestContext(value)
		if ctx != domain.ContextPublic && ctx != domain.ContextPrivate {
			return &domain.ValidationError{Field: ParamContext, Reason: "must be one of public, private"}
		}
		if preset != nil && ctx != preset.Context {
			return &domain.ValidationError{
				Field:  ParamContext,
				Reason: fmt.Sprintf("preset %q pins the request context to %s", preset.Name, preset.Context),
			}
		}
		params.Context = ctx
	case ParamWatermark:
		switch domain.WatermarkKind(value) {
		case domain.WatermarkBrand, domain.WatermarkUser, domain.WatermarkNone:
			params.Watermark = domain.WatermarkKind(value)
		default:
			return &domain.ValidationError{Field: ParamWatermark, Reason: "must be one of brand, user, none"}
		}
	default:
		return &domain.ValidationError{Field: key, Reason: "unrecognized parameter"}
	}
	return nil
}

func parseDimension(value string) (int, error) {
	d, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if d < MinDimension || d > MaxDimension {
		return 0, fmt.Errorf("must be in [%d,%d]", MinDimension, MaxDimension)
	}
	return d, nil
}

func applyDefaults(params *domain.ImageURLParams) {
	if params.Width == 0 {
		params.Width = DefaultWidth
	}
	if params.Height == 0 {
		params.Height = DefaultHeight
	}
	if params.Fit == "" {
		params.Fit = domain.FitCover
	}
	if params.Format == "" {
		params.Format = domain.FormatJPEG
	}
	if params.Quality == 0 {
		params.Quality = DefaultQuality
	}
	if params.Crop == "" {
		params.Crop = domain.CropCenter
	}
	if params.Blur == "" {
		params.Blur = domain.BlurNone
	}
	if params.Context == "" {
		params.Context = domain.ContextPublic
	}
	if params.Watermark == "" {
		params.Watermark = domain.WatermarkBrand
	}
	if params.BlurFloor == "" {
		params.BlurFloor = domain.BlurNone
	}
}

func nonEmpty(raw map[string]string, key string) (string, bool) {
	v, ok := raw[key]
	return v, ok && v != ""
}
