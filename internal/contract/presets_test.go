package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/imageserve/internal/domain"
)

func TestDefaultPresetsBuildCleanly(t *testing.T) {
	registry, err := NewRegistry(DefaultPresets())
	require.NoError(t, err)

	names := []string{}
	for _, p := range registry.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"feed", "og", "profile", "ranking", "swipe"}, names)
}

func TestResolveKnownPreset(t *testing.T) {
	registry, err := NewRegistry(DefaultPresets())
	require.NoError(t, err)

	p, err := registry.Resolve("og")
	require.NoError(t, err)
	assert.Equal(t, 1200, p.Width)
	assert.Equal(t, 630, p.Height)
	assert.True(t, p.AllowNoWatermark)
}

func TestResolveUnknownPreset(t *testing.T) {
	registry, err := NewRegistry(DefaultPresets())
	require.NoError(t, err)

	_, err = registry.Resolve("banner")
	var perr *domain.UnknownPresetError
	require.ErrorAs(t, err, &perr)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	presets := []Preset{
		{Name: "feed", Width: 100, Height: 100, Quality: 80, Context: domain.ContextPublic},
		{Name: "feed", Width: 200, Height: 200, Quality: 80, Context: domain.ContextPublic},
	}

	_, err := NewRegistry(presets)
	assert.ErrorContains(t, err, "duplicate preset")
}

func TestRegistryRejectsBadDimensions(t *testing.T) {
	_, err := NewRegistry([]Preset{{Name: "tiny", Width: 0, Height: 100, Quality: 80}})
	assert.ErrorContains(t, err, "non-positive dimensions")
}

func TestRegistryRejectsBadQuality(t *testing.T) {
	_, err := NewRegistry([]Preset{{Name: "crisp", Width: 100, Height: 100, Quality: 101}})
	assert.ErrorContains(t, err, "out of range")
}

func TestRegistryRejectsFloorConflictWithinContext(t *testing.T) {
	presets := []Preset{
		{Name: "a", Width: 100, Height: 100, Quality: 80, Context: domain.ContextPublic, BlurFloor: domain.BlurNone},
		{Name: "b", Width: 100, Height: 100, Quality: 80, Context: domain.ContextPublic, BlurFloor: domain.BlurFace},
	}

	_, err := NewRegistry(presets)
	assert.ErrorContains(t, err, "disagree on the blur floor")
}

func TestRegistryAllowsDifferentFloorsAcrossContexts(t *testing.T) {
	presets := []Preset{
		{Name: "a", Width: 100, Height: 100, Quality: 80, Context: domain.ContextPublic, BlurFloor: domain.BlurFace},
		{Name: "b", Width: 100, Height: 100, Quality: 80, Context: domain.ContextPrivate, BlurFloor: domain.BlurNone},
	}

	_, err := NewRegistry(presets)
	assert.NoError(t, err)
}
