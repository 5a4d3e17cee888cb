package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrInvalidDriverConfig = errors.New("invalid driver config")

// Phase is the discrete view of the continuous morph factor.
type Phase int

const (
	PhaseChaos Phase = iota
	PhaseTransitioning
	PhaseFormed
)

func (p Phase) String() string {
	switch p {
	case PhaseChaos:
		return "chaos"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseFormed:
		return "formed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// phaseEpsilon is how close Morph must be to its target to count as settled.
const phaseEpsilon = 0.01

type DriverConfig struct {
	TimeStep    float64 // time units per frame
	CycleLength float32
	FormStart   float32 // formed window is the open interval (FormStart, FormEnd)
	FormEnd     float32

	MorphSmoothing float32
	MouseSmoothing float32

	RotationSpeed     float32 // radians per frame while chaos-dominant
	RotationThreshold float32
	RotationDecay     float32 // fraction of the angle removed per frame while forming

	// HoldChaos disables the morph cycle: TargetMorph stays 0 and the field
	// keeps its steady rotation.
	HoldChaos bool

	TiltX Wave // model rotation about X, radians
	TiltZ Wave // model rotation about Z, radians
	Pulse Wave // model scale is 1 + Pulse
}

// Wave is Amplitude * sin(Frequency*t + Phase) over the animation clock.
type Wave struct {
	Amplitude float32
	Frequency float32
	Phase     float32
}

func (w Wave) At(t float64) float32 {
	if w.Amplitude == 0 {
		return 0
	}
	return w.Amplitude * float32(math.Sin(float64(w.Frequency)*t+float64(w.Phase)))
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		TimeStep:          0.01,
		CycleLength:       10,
		FormStart:         4,
		FormEnd:           9,
		MorphSmoothing:    0.02,
		MouseSmoothing:    0.05,
		RotationSpeed:     0.001,
		RotationThreshold: 0.2,
		RotationDecay:     0.05,
	}
}

func (c DriverConfig) Validate() error {
	if c.TimeStep <= 0 {
		return fmt.Errorf("%w: time step %v must be positive", ErrInvalidDriverConfig, c.TimeStep)
	}
	if c.CycleLength <= 0 {
		return fmt.Errorf("%w: cycle length %v must be positive", ErrInvalidDriverConfig, c.CycleLength)
	}
	if c.FormStart < 0 || c.FormEnd > c.CycleLength || c.FormStart >= c.FormEnd {
		return fmt.Errorf("%w: formed window (%v, %v) outside cycle %v", ErrInvalidDriverConfig, c.FormStart, c.FormEnd, c.CycleLength)
	}
	factors := []struct {
		name string
		v    float32
	}{
		{"morph smoothing", c.MorphSmoothing},
		{"mouse smoothing", c.MouseSmoothing},
		{"rotation decay", c.RotationDecay},
	}
	for _, f := range factors {
		if f.v <= 0 || f.v > 1 {
			return fmt.Errorf("%w: %s %v must be in (0, 1]", ErrInvalidDriverConfig, f.name, f.v)
		}
	}
	return nil
}

// RenderState is the whole mutable animation state of one engine.
// It is only mutated by Step and SetPointer.
// Time is float64 so the per-frame step stays exact over days of uptime.
type RenderState struct {
	Time        float64
	Morph       float32
	TargetMorph float32
	Mouse       mgl32.Vec2
	MouseRaw    mgl32.Vec2
	RotationX   float32
	RotationY   float32
	RotationZ   float32
	Pulse       float32
	Frame       uint64
}

// SetPointer records the latest raw pointer position, clamped to [-1, 1].
func (s *RenderState) SetPointer(x, y float32) {
	s.MouseRaw = mgl32.Vec2{
		mgl32.Clamp(x, -1, 1),
		mgl32.Clamp(y, -1, 1),
	}
}

func (s *RenderState) Phase() Phase {
	switch {
	case s.TargetMorph >= 1 && s.Morph >= 1-phaseEpsilon:
		return PhaseFormed
	case s.TargetMorph <= 0 && s.Morph <= phaseEpsilon:
		return PhaseChaos
	}
	return PhaseTransitioning
}

// TargetMorphAt returns the discrete morph target for an absolute time.
func TargetMorphAt(t float64, cfg DriverConfig) float32 {
	if cfg.HoldChaos {
		return 0
	}
	c := math.Mod(t, float64(cfg.CycleLength))
	if c > float64(cfg.FormStart) && c < float64(cfg.FormEnd) {
		return 1
	}
	return 0
}

// Step advances the state by one frame.
func Step(s *RenderState, cfg DriverConfig) {
	s.Time += cfg.TimeStep
	s.TargetMorph = TargetMorphAt(s.Time, cfg)

	s.Morph += (s.TargetMorph - s.Morph) * cfg.MorphSmoothing
	s.Morph = mgl32.Clamp(s.Morph, 0, 1)

	s.Mouse = s.Mouse.Add(s.MouseRaw.Sub(s.Mouse).Mul(cfg.MouseSmoothing))

	if s.Morph < cfg.RotationThreshold {
		s.RotationY = wrapAngle(s.RotationY + cfg.RotationSpeed)
	} else {
		r := shortestAngle(s.RotationY)
		s.RotationY = r - r*cfg.RotationDecay
	}
	s.RotationX = cfg.TiltX.At(s.Time)
	s.RotationZ = cfg.TiltZ.At(s.Time)
	s.Pulse = cfg.Pulse.At(s.Time)

	s.Frame++
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float32) float32 {
	const twoPi = 2 * math.Pi
	w := math.Mod(float64(a), twoPi)
	if w < 0 {
		w += twoPi
	}
	r := float32(w)
	if r >= float32(twoPi) {
		return 0
	}
	return r
}

// shortestAngle maps a into (-π, π].
func shortestAngle(a float32) float32 {
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	w := float64(wrapAngle(a))
	if w > math.Pi {
		w -= 2 * math.Pi
	}
	return float32(w)
}
