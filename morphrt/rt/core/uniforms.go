package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderParams are the tunable "feel" constants of the particle program.
type ShaderParams struct {
	MouseRadius     float32 // world units; no influence beyond this distance
	AttractStrength float32 // z displacement at full influence while chaotic
	RepelStrength   float32 // z displacement at full influence while formed
	BaseSize        float32 // point size numerator while chaotic
	FormedSize      float32 // point size numerator while formed
	FadeDistance    float32 // view depth at which particles are fully transparent
	GlowBoost       float32 // extra brightness at morph 1
	AlphaScale      float32 // multiplies the final alpha
	MaxPointSize    float32 // pixels; sprites never grow past this
}

func DefaultShaderParams() ShaderParams {
	return ShaderParams{
		MouseRadius:     15,
		AttractStrength: 8,
		RepelStrength:   -10,
		BaseSize:        150,
		FormedSize:      180,
		FadeDistance:    120,
		GlowBoost:       0.6,
		AlphaScale:      1,
		MaxPointSize:    64,
	}
}

// Uniforms is the per-frame uniform block consumed by particles.wgsl.
type Uniforms struct {
	Projection mgl32.Mat4
	ModelView  mgl32.Mat4
	Mouse      mgl32.Vec2 // normalized [-1, 1]
	MouseScale mgl32.Vec2 // world half extents at z=0
	Resolution mgl32.Vec2 // surface size in physical pixels
	Time       float32
	PixelRatio float32
	Morph      float32
	ShaderParams
}

// UniformsSize is the byte size of the WGSL Uniforms struct.
const UniformsSize = 208

// BuildUniforms derives the uniform block from the render state and camera.
func BuildUniforms(s *RenderState, cam *CameraState, width, height int, pixelRatio float32, params ShaderParams) Uniforms {
	// Euler XYZ, then the uniform pulse scale.
	k := 1 + s.Pulse
	model := mgl32.HomogRotate3DX(s.RotationX).
		Mul4(mgl32.HomogRotate3DY(s.RotationY)).
		Mul4(mgl32.HomogRotate3DZ(s.RotationZ)).
		Mul4(mgl32.Scale3D(k, k, k))
	return Uniforms{
		Projection:   cam.GetProjectionMatrix(),
		ModelView:    cam.GetViewMatrix().Mul4(model),
		Mouse:        s.Mouse,
		MouseScale:   cam.MouseWorldScale(),
		Resolution:   mgl32.Vec2{float32(width), float32(height)},
		Time:         float32(s.Time),
		PixelRatio:   pixelRatio,
		Morph:        s.Morph,
		ShaderParams: params,
	}
}

// Bytes packs the block little-endian in WGSL uniform layout.
//
//	projection: mat4x4<f32>  0
//	model_view: mat4x4<f32>  64
//	mouse: vec2<f32>         128
//	mouse_scale: vec2<f32>   136
//	resolution: vec2<f32>    144
//	time: f32                152
//	pixel_ratio: f32         156
//	morph: f32               160
//	mouse_radius: f32        164
//	attract_strength: f32    168
//	repel_strength: f32      172
//	base_size: f32           176
//	formed_size: f32         180
//	fade_distance: f32       184
//	glow_boost: f32          188
//	alpha_scale: f32         192
//	max_point_size: f32      196
//	(padding to 208)
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, UniformsSize)

	putF := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}
	writeMat := func(offset int, mat mgl32.Mat4) {
		for i, v := range mat {
			putF(offset+i*4, v)
		}
	}
	writeVec2 := func(offset int, v mgl32.Vec2) {
		putF(offset, v[0])
		putF(offset+4, v[1])
	}

	writeMat(0, u.Projection)
	writeMat(64, u.ModelView)
	writeVec2(128, u.Mouse)
	writeVec2(136, u.MouseScale)
	writeVec2(144, u.Resolution)
	putF(152, u.Time)
	putF(156, u.PixelRatio)
	putF(160, u.Morph)
	putF(164, u.MouseRadius)
	putF(168, u.AttractStrength)
	putF(172, u.RepelStrength)
	putF(176, u.BaseSize)
	putF(180, u.FormedSize)
	putF(184, u.FadeDistance)
	putF(188, u.GlowBoost)
	putF(192, u.AlphaScale)
	putF(196, u.MaxPointSize)

	return buf
}
