package glyphfield

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// Preset is a named set of config values. Presets never change behavior,
// only parameters.
type Preset string

const (
	PresetMorph   Preset = "morph"   // text morph
	PresetAmbient Preset = "ambient" // no text, fewer faint particles, slow rotation with a gentle tilt
	PresetOrganic Preset = "organic" // no text, pulsing spherical cloud with a blue to yellow gradient
)

const (
	DefaultWidth          = 1280
	DefaultHeight         = 720
	DefaultTitle          = "glyphfield"
	DefaultResizeDebounce = 150 * time.Millisecond
	DefaultMaxPixelRatio  = 1.5
	DefaultMaxFPS         = 60
	ambientParticleCount  = 3000
)

// organicGradient runs from blue to yellow.
var organicGradient = []mgl32.Vec3{{0, 0.5, 1}, {1, 1, 0.5}}

type Config struct {
	Renderer RendererName
	// Fallback is tried when Renderer is unavailable. Empty disables it.
	Fallback RendererName

	Width  int
	Height int
	Title  string

	// Count of particles. Zero picks a responsive default from Width.
	Count    int
	Text     string
	FontPath string
	Preset   Preset

	Sampler core.SamplerOptions
	Field   core.FieldOptions
	Driver  core.DriverConfig
	Shader  core.ShaderParams

	ResizeDebounce time.Duration
	MaxPixelRatio  float32
	// MaxFPS paces renderers without vsync (terminal, headless).
	MaxFPS int

	Debug  bool
	Logger Logger

	// OnFallback is called once when the engine enters degraded mode.
	OnFallback func(reason error)

	// Screen is used by the terminal renderer. Nil opens the real terminal.
	Screen tcell.Screen
}

func DefaultConfig() Config {
	return Config{
		Renderer:       RendererWGPU,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
		Title:          DefaultTitle,
		Preset:         PresetMorph,
		Sampler:        core.DefaultSamplerOptions(),
		Field:          core.DefaultFieldOptions(),
		Driver:         core.DefaultDriverConfig(),
		Shader:         core.DefaultShaderParams(),
		ResizeDebounce: DefaultResizeDebounce,
		MaxPixelRatio:  DefaultMaxPixelRatio,
		MaxFPS:         DefaultMaxFPS,
	}
}

// ResponsiveCount picks a particle count for a viewport width.
func ResponsiveCount(width int) int {
	switch {
	case width < 640:
		return 2000
	case width <= 1024:
		return 3500
	default:
		return 5000
	}
}

// resolve fills zero values with defaults, applies the preset and loads the
// font file. Values set explicitly by the caller win over preset values.
func (c Config) resolve() (Config, error) {
	d := DefaultConfig()

	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Title == "" {
		c.Title = d.Title
	}
	if c.Preset == "" {
		c.Preset = d.Preset
	}
	if c.Driver == (core.DriverConfig{}) {
		c.Driver = d.Driver
	}
	if c.Shader == (core.ShaderParams{}) {
		c.Shader = d.Shader
	}
	if c.Shader.AlphaScale <= 0 {
		c.Shader.AlphaScale = d.Shader.AlphaScale
	}
	if c.Shader.MaxPointSize <= 0 {
		c.Shader.MaxPointSize = d.Shader.MaxPointSize
	}
	if c.ResizeDebounce <= 0 {
		c.ResizeDebounce = d.ResizeDebounce
	}
	if c.MaxPixelRatio <= 0 {
		c.MaxPixelRatio = d.MaxPixelRatio
	}
	if c.MaxFPS <= 0 {
		c.MaxFPS = d.MaxFPS
	}
	c.Field = fieldDefaults(c.Field)

	switch c.Preset {
	case PresetMorph:
	case PresetAmbient:
		c.Text = ""
		if c.Count == 0 {
			c.Count = ambientParticleCount
		}
		c.Driver.HoldChaos = true
		c.Driver.RotationSpeed = 0.0005
		c.Driver.TiltX = core.Wave{Amplitude: 0.05, Frequency: 0.1}
		c.Shader.AttractStrength = 0
		c.Shader.RepelStrength = 0
		c.Shader.FormedSize = c.Shader.BaseSize
		c.Shader.GlowBoost = 0
		c.Shader.FadeDistance = 100
		c.Shader.AlphaScale = 0.4
		c.Field.ScaleRange = [2]float32{0.3, 0.8}
		c.MaxPixelRatio = min(c.MaxPixelRatio, 1)
	case PresetOrganic:
		c.Text = ""
		c.Field.Layout = core.LayoutSphere
		c.Field.Gradient = organicGradient
		c.Driver.HoldChaos = true
		c.Driver.RotationSpeed = 0.005
		c.Driver.TiltX = core.Wave{Amplitude: 0.2, Frequency: 0.3}
		c.Driver.TiltZ = core.Wave{Amplitude: 0.1, Frequency: 0.2, Phase: math.Pi / 2}
		c.Driver.Pulse = core.Wave{Amplitude: 0.1, Frequency: 1}
		c.Shader.FormedSize = c.Shader.BaseSize
		c.Shader.GlowBoost = 0
		c.Shader.AlphaScale = 0.8
	default:
		return c, fmt.Errorf("%w: %q", ErrUnknownPreset, c.Preset)
	}

	if c.Count <= 0 {
		c.Count = ResponsiveCount(c.Width)
	}

	if c.FontPath != "" && len(c.Sampler.Font) == 0 {
		font, err := os.ReadFile(c.FontPath)
		if err != nil {
			return c, fmt.Errorf("read font: %w", err)
		}
		c.Sampler.Font = font
	}

	if err := c.Driver.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func fieldDefaults(f core.FieldOptions) core.FieldOptions {
	d := core.DefaultFieldOptions()
	if f.Bounds == (mgl32.Vec3{}) {
		f.Bounds = d.Bounds
	}
	if f.SphereRadius == ([2]float32{}) {
		f.SphereRadius = d.SphereRadius
	}
	if f.TargetJitter == (mgl32.Vec3{}) {
		f.TargetJitter = d.TargetJitter
	}
	if f.ScaleRange == ([2]float32{}) {
		f.ScaleRange = d.ScaleRange
	}
	if len(f.Palette) == 0 {
		f.Palette = d.Palette
	}
	return f
}
