package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexOut is what the vertex stage hands to rasterization and the fragment stage.
type VertexOut struct {
	Local     mgl32.Vec3 // blended object-space position
	View      mgl32.Vec4 // model-view position
	Clip      mgl32.Vec4
	PointSize float32 // pixels
	Color     mgl32.Vec3
	Fade      float32
}

// Depth is the positive view-space distance.
func (v VertexOut) Depth() float32 { return -v.View.Z() }

// DriftPosition applies the low-frequency floating motion to a chaos position.
func DriftPosition(p mgl32.Vec3, t float32) mgl32.Vec3 {
	t *= 0.3
	x, y, z := p.X(), p.Y(), p.Z()
	x += sin32(y*0.02+t) * 1.5
	y += cos32(x*0.02+t) * 1.5
	z += sin32(x*0.01+t*0.5) * 2.0
	return mgl32.Vec3{x, y, z}
}

// NoisyTarget perturbs a target with coherent noise, more in z than in x/y.
func NoisyTarget(target, randomness mgl32.Vec3, t float32) mgl32.Vec3 {
	q := target.Mul(0.08)
	n := float32(Noise3(float64(q.X()+t*0.25), float64(q.Y()+t*0.25), float64(q.Z()+t*0.25)))
	return mgl32.Vec3{
		target.X() + n*0.3*(0.5+randomness.X()),
		target.Y() + n*0.3*(0.5+randomness.Y()),
		target.Z() + n*0.8*(0.5+randomness.Z()),
	}
}

// MouseInfluence is 1 at the pointer and falls smoothly to 0 at radius.
func MouseInfluence(pos mgl32.Vec2, mouseWorld mgl32.Vec2, radius float32) float32 {
	d := pos.Sub(mouseWorld).Len()
	return 1 - Smoothstep(0, radius, d)
}

// minPointDepth keeps the size divisor positive for points at or behind the eye.
const minPointDepth = 0.0001

// ShadeVertex evaluates the particle vertex program for one instance.
func ShadeVertex(in ParticleInstance, u *Uniforms) VertexOut {
	drift := DriftPosition(in.Chaos, u.Time)
	noisy := NoisyTarget(in.Target, in.Randomness, u.Time)

	m := Smoothstep(0, 1, u.Morph)
	pos := mix3(drift, noisy, m)

	mouseWorld := mgl32.Vec2{u.Mouse.X() * u.MouseScale.X(), u.Mouse.Y() * u.MouseScale.Y()}
	influence := MouseInfluence(mgl32.Vec2{pos.X(), pos.Y()}, mouseWorld, u.MouseRadius)
	strength := mix(u.AttractStrength, u.RepelStrength, u.Morph)
	pos[2] += influence * strength

	view := u.ModelView.Mul4x1(pos.Vec4(1))
	clip := u.Projection.Mul4x1(view)

	depth := -view.Z()
	size := mix(u.BaseSize, u.FormedSize, u.Morph) * in.Scale * u.PixelRatio / max(depth, minPointDepth)
	size = min(size, u.MaxPointSize)

	return VertexOut{
		Local:     pos,
		View:      view,
		Clip:      clip,
		PointSize: size,
		Color:     in.Color,
		Fade:      1 - Smoothstep(0, u.FadeDistance, depth),
	}
}

// ShadeFragment shades a point-sprite texel. coord is in [0,1]² across the sprite.
// ok is false when the fragment is discarded.
func ShadeFragment(coord mgl32.Vec2, v VertexOut, u *Uniforms) (rgb mgl32.Vec3, alpha float32, ok bool) {
	r := coord.Sub(mgl32.Vec2{0.5, 0.5}).Len()
	if r > 0.5 {
		return mgl32.Vec3{}, 0, false
	}
	glow := float32(math.Pow(float64(1-r*2), 1.5))
	boost := 1 + u.Morph*u.GlowBoost
	return v.Color.Mul(boost), v.Fade * glow * u.AlphaScale, true
}

// Smoothstep matches the WGSL builtin for edge0 < edge1.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func mix3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }
