package core

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPaletteHex is the soft blue/cyan/white/indigo palette.
var DefaultPaletteHex = []string{"#4a90e2", "#22d3ee", "#ffffff", "#818cf8"}

// Layout selects how chaos positions are distributed.
type Layout int

const (
	LayoutBox    Layout = iota // uniform inside Bounds
	LayoutSphere               // shell between SphereRadius[0] and SphereRadius[1]
)

type FieldOptions struct {
	Layout       Layout
	Bounds       mgl32.Vec3 // full extents of the chaos box, centered at origin
	SphereRadius [2]float32
	TargetJitter mgl32.Vec3 // full extents of the jitter added to each target
	ScaleRange   [2]float32 // per-particle scale in [lo, hi); zero means [0, 1)
	Palette      []mgl32.Vec3
	// Gradient, when it has two or more stops, replaces Palette: each
	// particle takes a uniformly random point along the piecewise-linear ramp.
	Gradient []mgl32.Vec3

	// Rand overrides the shared source. Nil uses math/rand.
	Rand *rand.Rand
}

func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		Layout:       LayoutBox,
		Bounds:       mgl32.Vec3{200, 120, 100},
		SphereRadius: [2]float32{10, 40},
		TargetJitter: mgl32.Vec3{0.4, 0.4, 2.0},
		ScaleRange:   [2]float32{0, 1},
		Palette:      MustParsePalette(DefaultPaletteHex),
	}
}

// ParsePalette converts "#rrggbb" strings into linear 0..1 RGB triples.
func ParsePalette(hexes []string) ([]mgl32.Vec3, error) {
	out := make([]mgl32.Vec3, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette color %q: %w", h, err)
		}
		out = append(out, mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)})
	}
	return out, nil
}

func MustParsePalette(hexes []string) []mgl32.Vec3 {
	p, err := ParsePalette(hexes)
	if err != nil {
		panic(err)
	}
	return p
}

// PointField stores particle attributes as parallel arrays indexed by particle id.
type PointField struct {
	Chaos      []mgl32.Vec3
	Target     []mgl32.Vec3
	Scale      []float32
	Randomness []mgl32.Vec3
	Color      []mgl32.Vec3
}

func (f *PointField) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Chaos)
}

// GenerateField builds count particles. Targets are reused cyclically; with no
// targets every particle targets its own chaos position.
func GenerateField(count int, targets []mgl32.Vec3, opts FieldOptions) *PointField {
	if count < 0 {
		count = 0
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = []mgl32.Vec3{{1, 1, 1}}
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	scale := opts.ScaleRange
	if scale == ([2]float32{}) {
		scale = [2]float32{0, 1}
	}

	f := &PointField{
		Chaos:      make([]mgl32.Vec3, count),
		Target:     make([]mgl32.Vec3, count),
		Scale:      make([]float32, count),
		Randomness: make([]mgl32.Vec3, count),
		Color:      make([]mgl32.Vec3, count),
	}

	centered := func(extent float32) float32 {
		return (rnd.Float32() - 0.5) * extent
	}

	for i := 0; i < count; i++ {
		var chaos mgl32.Vec3
		if opts.Layout == LayoutSphere {
			chaos = sampleShell(rnd, opts.SphereRadius)
		} else {
			chaos = mgl32.Vec3{
				centered(opts.Bounds.X()),
				centered(opts.Bounds.Y()),
				centered(opts.Bounds.Z()),
			}
		}
		f.Chaos[i] = chaos

		if len(targets) == 0 {
			f.Target[i] = chaos
		} else {
			t := targets[i%len(targets)]
			f.Target[i] = t.Add(mgl32.Vec3{
				centered(opts.TargetJitter.X()),
				centered(opts.TargetJitter.Y()),
				centered(opts.TargetJitter.Z()),
			})
		}

		f.Scale[i] = scale[0] + rnd.Float32()*(scale[1]-scale[0])
		f.Randomness[i] = mgl32.Vec3{rnd.Float32(), rnd.Float32(), rnd.Float32()}
		if len(opts.Gradient) >= 2 {
			f.Color[i] = GradientAt(opts.Gradient, rnd.Float32())
		} else {
			f.Color[i] = palette[rnd.Intn(len(palette))]
		}
	}
	return f
}

// GradientAt interpolates linearly between evenly spaced stops, t in [0, 1].
func GradientAt(stops []mgl32.Vec3, t float32) mgl32.Vec3 {
	switch len(stops) {
	case 0:
		return mgl32.Vec3{1, 1, 1}
	case 1:
		return stops[0]
	}
	x := mgl32.Clamp(t, 0, 1) * float32(len(stops)-1)
	i := min(int(x), len(stops)-2)
	return mix3(stops[i], stops[i+1], x-float32(i))
}

// sampleShell picks a uniform direction and a radius in [r[0], r[1]).
func sampleShell(rnd *rand.Rand, r [2]float32) mgl32.Vec3 {
	radius := float64(r[0] + rnd.Float32()*(r[1]-r[0]))
	theta := rnd.Float64() * 2 * math.Pi
	phi := math.Acos(2*rnd.Float64() - 1)
	return mgl32.Vec3{
		float32(radius * math.Sin(phi) * math.Cos(theta)),
		float32(radius * math.Sin(phi) * math.Sin(theta)),
		float32(radius * math.Cos(phi)),
	}
}

// Instances packs the field into the GPU instance layout.
func (f *PointField) Instances() []ParticleInstance {
	out := make([]ParticleInstance, f.Len())
	for i := range out {
		out[i] = f.Instance(i)
	}
	return out
}

func (f *PointField) Instance(i int) ParticleInstance {
	return ParticleInstance{
		Chaos:      f.Chaos[i],
		Scale:      f.Scale[i],
		Target:     f.Target[i],
		Randomness: f.Randomness[i],
		Color:      f.Color[i],
	}
}
