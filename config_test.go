package glyphfield

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

func TestResponsiveCount(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{320, 2000},
		{639, 2000},
		{640, 3500},
		{1024, 3500},
		{1025, 5000},
		{2560, 5000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ResponsiveCount(tt.width), "width %d", tt.width)
	}
}

func TestConfig_ResolveDefaults(t *testing.T) {
	cfg, err := Config{Renderer: RendererHeadless}.resolve()
	require.NoError(t, err)

	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
	assert.Equal(t, DefaultTitle, cfg.Title)
	assert.Equal(t, PresetMorph, cfg.Preset)
	assert.Equal(t, ResponsiveCount(DefaultWidth), cfg.Count)
	assert.Equal(t, core.DefaultDriverConfig(), cfg.Driver)
	assert.Equal(t, core.DefaultShaderParams(), cfg.Shader)
	assert.Equal(t, DefaultResizeDebounce, cfg.ResizeDebounce)
	assert.Equal(t, float32(DefaultMaxPixelRatio), cfg.MaxPixelRatio)
	assert.Equal(t, DefaultMaxFPS, cfg.MaxFPS)
	assert.Equal(t, core.DefaultFieldOptions().Bounds, cfg.Field.Bounds)
	assert.Len(t, cfg.Field.Palette, len(core.DefaultPaletteHex))
}

func TestConfig_ResolveKeepsExplicitValues(t *testing.T) {
	in := DefaultConfig()
	in.Width = 500
	in.Count = 77
	in.Field.Bounds = [3]float32{10, 10, 10}
	in.Driver.RotationSpeed = 0.01

	cfg, err := in.resolve()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 77, cfg.Count)
	assert.Equal(t, float32(10), cfg.Field.Bounds.X())
	assert.Equal(t, float32(0.01), cfg.Driver.RotationSpeed)
}

func TestConfig_Presets(t *testing.T) {
	morph, err := DefaultConfig().resolve()
	require.NoError(t, err)
	assert.False(t, morph.Driver.HoldChaos)
	assert.Equal(t, core.Wave{}, morph.Driver.TiltX)
	assert.Equal(t, float32(1), morph.Shader.AlphaScale)
	assert.Empty(t, morph.Field.Gradient)

	ambient := DefaultConfig()
	ambient.Preset = PresetAmbient
	ambient.Text = "ignored"
	cfg, err := ambient.resolve()
	require.NoError(t, err)
	assert.Empty(t, cfg.Text)
	assert.Equal(t, 3000, cfg.Count)
	assert.True(t, cfg.Driver.HoldChaos)
	assert.Equal(t, float32(0.0005), cfg.Driver.RotationSpeed)
	assert.Equal(t, core.Wave{Amplitude: 0.05, Frequency: 0.1}, cfg.Driver.TiltX)
	assert.Equal(t, core.Wave{}, cfg.Driver.Pulse)
	assert.Zero(t, cfg.Shader.AttractStrength)
	assert.Zero(t, cfg.Shader.RepelStrength)
	assert.Zero(t, cfg.Shader.GlowBoost)
	assert.Equal(t, cfg.Shader.BaseSize, cfg.Shader.FormedSize)
	assert.Equal(t, float32(100), cfg.Shader.FadeDistance)
	assert.Equal(t, float32(0.4), cfg.Shader.AlphaScale)
	assert.Equal(t, [2]float32{0.3, 0.8}, cfg.Field.ScaleRange)
	assert.Equal(t, float32(1), cfg.MaxPixelRatio)

	organic := DefaultConfig()
	organic.Preset = PresetOrganic
	organic.Text = "ignored"
	cfg, err = organic.resolve()
	require.NoError(t, err)
	assert.Empty(t, cfg.Text)
	assert.Equal(t, core.LayoutSphere, cfg.Field.Layout)
	assert.True(t, cfg.Driver.HoldChaos)
	assert.Equal(t, float32(0.005), cfg.Driver.RotationSpeed)
	assert.Equal(t, float32(0.2), cfg.Driver.TiltX.Amplitude)
	assert.Equal(t, float32(0.3), cfg.Driver.TiltX.Frequency)
	assert.Equal(t, float32(0.1), cfg.Driver.TiltZ.Amplitude)
	assert.Equal(t, float32(0.2), cfg.Driver.TiltZ.Frequency)
	assert.Equal(t, core.Wave{Amplitude: 0.1, Frequency: 1}, cfg.Driver.Pulse)
	assert.Zero(t, cfg.Shader.GlowBoost)
	assert.Equal(t, cfg.Shader.BaseSize, cfg.Shader.FormedSize)
	assert.Equal(t, float32(0.8), cfg.Shader.AlphaScale)
	assert.Len(t, cfg.Field.Gradient, 2)
	assert.Equal(t, ResponsiveCount(DefaultWidth), cfg.Count)

	bad := DefaultConfig()
	bad.Preset = "strobe"
	_, err = bad.resolve()
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestConfig_PartialShaderParamsKeepSpriteLimits(t *testing.T) {
	in := DefaultConfig()
	in.Shader = core.ShaderParams{BaseSize: 90, FormedSize: 120, FadeDistance: 80}
	cfg, err := in.resolve()
	require.NoError(t, err)
	assert.Equal(t, float32(90), cfg.Shader.BaseSize)
	assert.Equal(t, float32(1), cfg.Shader.AlphaScale)
	assert.Equal(t, core.DefaultShaderParams().MaxPointSize, cfg.Shader.MaxPointSize)
}

func TestConfig_FontPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "font.ttf")
	require.NoError(t, os.WriteFile(path, []byte("font bytes"), 0o644))

	in := DefaultConfig()
	in.FontPath = path
	cfg, err := in.resolve()
	require.NoError(t, err)
	assert.Equal(t, []byte("font bytes"), cfg.Sampler.Font)

	in.FontPath = filepath.Join(dir, "missing.ttf")
	_, err = in.resolve()
	assert.Error(t, err)
}
