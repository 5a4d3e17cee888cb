package core

// ParticleInstance matches the per-instance vertex layout in particles.wgsl.
// Attributes are tightly packed; stride is 52 bytes.
//
//	@location(0) chaos: vec3<f32>      offset 0
//	@location(1) scale: f32            offset 12
//	@location(2) target_pos: vec3<f32> offset 16
//	@location(3) randomness: vec3<f32> offset 28
//	@location(4) color: vec3<f32>      offset 40
type ParticleInstance struct {
	Chaos      [3]float32
	Scale      float32
	Target     [3]float32
	Randomness [3]float32
	Color      [3]float32
}

const ParticleInstanceSize = 52
