package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

type GpuBufferManager struct {
	Device *wgpu.Device

	UniformBuf  *wgpu.Buffer
	InstanceBuf *wgpu.Buffer

	BindGroup0 *wgpu.BindGroup

	InstanceCount uint32
}

func NewGpuBufferManager(device *wgpu.Device) *GpuBufferManager {
	return &GpuBufferManager{Device: device}
}

// alignedSize rounds a buffer size up to the 4-byte copy alignment.
func alignedSize(n int) uint64 {
	size := uint64(n)
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	return size
}

func (m *GpuBufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage) (bool, error) {
	neededSize := alignedSize(len(data))
	if neededSize == 0 {
		neededSize = 4
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}

		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			*buf = nil
			return false, err
		}
		*buf = newBuf

		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true, nil
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return false, nil
}

// PackInstances serializes instances in the vertex buffer layout:
//
//	chaos: vec3<f32>       0
//	scale: f32             12
//	target: vec3<f32>      16
//	randomness: vec3<f32>  28
//	color: vec3<f32>       40
func PackInstances(instances []core.ParticleInstance) []byte {
	buf := make([]byte, len(instances)*core.ParticleInstanceSize)

	putF := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}
	putVec3 := func(offset int, v [3]float32) {
		putF(offset, v[0])
		putF(offset+4, v[1])
		putF(offset+8, v[2])
	}

	for i, in := range instances {
		base := i * core.ParticleInstanceSize
		putVec3(base, in.Chaos)
		putF(base+12, in.Scale)
		putVec3(base+16, in.Target)
		putVec3(base+28, in.Randomness)
		putVec3(base+40, in.Color)
	}
	return buf
}

// UploadInstances writes the particle attributes once. The field is immutable
// so callers only do this at init.
func (m *GpuBufferManager) UploadInstances(instances []core.ParticleInstance) (bool, error) {
	recreated, err := m.ensureBuffer("Particle Instances", &m.InstanceBuf, PackInstances(instances), wgpu.BufferUsageVertex)
	if err != nil {
		return false, err
	}
	m.InstanceCount = uint32(len(instances))
	return recreated, nil
}

// UpdateUniforms writes the per-frame uniform block.
func (m *GpuBufferManager) UpdateUniforms(u *core.Uniforms) (bool, error) {
	return m.ensureBuffer("Particle Uniforms", &m.UniformBuf, u.Bytes(), wgpu.BufferUsageUniform)
}

func (m *GpuBufferManager) CreateBindGroups(pipeline *wgpu.RenderPipeline) error {
	if m.BindGroup0 != nil {
		m.BindGroup0.Release()
		m.BindGroup0 = nil
	}

	bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Particle BG0",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.UniformBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return err
	}
	m.BindGroup0 = bg
	return nil
}

func (m *GpuBufferManager) Release() {
	if m.BindGroup0 != nil {
		m.BindGroup0.Release()
		m.BindGroup0 = nil
	}
	if m.UniformBuf != nil {
		m.UniformBuf.Release()
		m.UniformBuf = nil
	}
	if m.InstanceBuf != nil {
		m.InstanceBuf.Release()
		m.InstanceBuf = nil
	}
	m.InstanceCount = 0
}
