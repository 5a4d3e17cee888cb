package shaders

import (
	_ "embed"
)

//go:embed particles.wgsl
var ParticlesWGSL string

// Entry points of ParticlesWGSL.
const (
	ParticlesVertexEntry   = "vs_main"
	ParticlesFragmentEntry = "fs_main"
)
