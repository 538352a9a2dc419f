package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOriginalNotFound    = errors.New("original image not found")
	ErrMetadataNotFound    = errors.New("ml metadata not found")
	ErrUpstreamUnavailable = errors.New("upstream store unavailable")
	ErrCacheMiss           = errors.New("artifact not in cache")
	ErrRenderFailed        = errors.New("image render failed")
)

// ValidationError rejects a request whose parameter is malformed or out
// of range. The whole request fails; nothing is partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Reason)
}

// ContractVersionError rejects a declared contract version this service
// does not speak. Version skew fails loudly, never coerces.
type ContractVersionError struct {
	Requested int
	Supported int
}

func (e *ContractVersionError) Error() string {
	return fmt.Sprintf("contract version %d not supported (service speaks %d)", e.Requested, e.Supported)
}

// UnknownPresetError rejects a preset name outside the sanctioned
// registry. Presets are a governance boundary, not a convenience default.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q", e.Name)
}

// IsClientError reports whether err should surface as a 4xx-equivalent.
func IsClientError(err error) bool {
	var ve *ValidationError
	var cv *ContractVersionError
	var up *UnknownPresetError
	return errors.As(err, &ve) ||
		errors.As(err, &cv) ||
		errors.As(err, &up) ||
		errors.Is(err, ErrOriginalNotFound)
}
