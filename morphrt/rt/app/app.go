package app

import (
	"errors"
	"fmt"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
	"github.com/gekko3d/glyphfield/morphrt/rt/gpu"
	"github.com/gekko3d/glyphfield/morphrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var ErrNoSurfaceFormat = errors.New("surface reports no texture formats")

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	ShaderModule   *wgpu.ShaderModule
	RenderPipeline *wgpu.RenderPipeline

	BufferManager *gpu.GpuBufferManager
	Profiler      *Profiler

	ClearColor wgpu.Color

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window) *App {
	return &App{
		Window:     window,
		Profiler:   NewProfiler(),
		ClearColor: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// Detect acquires the instance, surface and adapter. A failure here means the
// host cannot run the GPU renderer at all.
func (a *App) Detect() error {
	a.Instance = wgpu.CreateInstance(nil)

	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))
	if a.Surface == nil {
		return fmt.Errorf("create surface: nil surface")
	}

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	caps := a.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 {
		return ErrNoSurfaceFormat
	}
	return nil
}

// Init creates the device, the particle pipeline and uploads the field.
func (a *App) Init(instances []core.ParticleInstance) error {
	if a.Adapter == nil {
		if err := a.Detect(); err != nil {
			return err
		}
	}

	var err error
	a.Device, err = a.Adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(a.Adapter)
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(caps.AlphaModes) > 0 {
		alphaMode = caps.AlphaModes[0]
	}

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(max(width, 1)),
		Height:      uint32(max(height, 1)),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alphaMode,
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	a.ShaderModule, err = a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Particles VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ParticlesWGSL},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	a.RenderPipeline, err = a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Particle Pipeline",
		Vertex: wgpu.VertexState{
			Module:     a.ShaderModule,
			EntryPoint: shaders.ParticlesVertexEntry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: core.ParticleInstanceSize,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 16, ShaderLocation: 2},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 28, ShaderLocation: 3},
					{Format: wgpu.VertexFormatFloat32x3, Offset: 40, ShaderLocation: 4},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     a.ShaderModule,
			EntryPoint: shaders.ParticlesFragmentEntry,
			Targets: []wgpu.ColorTargetState{{
				Format: a.Config.Format,
				// Additive: overlapping particles accumulate light.
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
			CullMode: wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}

	a.BufferManager = gpu.NewGpuBufferManager(a.Device)
	if _, err := a.BufferManager.UploadInstances(instances); err != nil {
		return fmt.Errorf("upload instances: %w", err)
	}
	// The bind group needs the uniform buffer to exist.
	var zero core.Uniforms
	if _, err := a.BufferManager.UpdateUniforms(&zero); err != nil {
		return fmt.Errorf("create uniforms: %w", err)
	}
	if err := a.BufferManager.CreateBindGroups(a.RenderPipeline); err != nil {
		return fmt.Errorf("create bind groups: %w", err)
	}

	a.Profiler.SetCount("particles", len(instances))
	a.LastRenderTime = glfw.GetTime()
	return nil
}

// Size is the configured surface size in physical pixels.
func (a *App) Size() (int, int) {
	if a.Config == nil {
		return 0, 0
	}
	return int(a.Config.Width), int(a.Config.Height)
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 && a.Config != nil {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// Render uploads the uniform block and draws every particle as one instanced call.
func (a *App) Render(u *core.Uniforms) error {
	a.Profiler.BeginScope("upload")
	recreated, err := a.BufferManager.UpdateUniforms(u)
	if err != nil {
		return fmt.Errorf("update uniforms: %w", err)
	}
	if recreated {
		if err := a.BufferManager.CreateBindGroups(a.RenderPipeline); err != nil {
			return fmt.Errorf("create bind groups: %w", err)
		}
	}
	a.Profiler.EndScope("upload")

	a.Profiler.BeginScope("encode")
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("get current texture: %w", err)
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: a.ClearColor,
		}},
	})
	if a.BufferManager.InstanceCount > 0 {
		rPass.SetPipeline(a.RenderPipeline)
		rPass.SetBindGroup(0, a.BufferManager.BindGroup0, nil)
		rPass.SetVertexBuffer(0, a.BufferManager.InstanceBuf, 0, a.BufferManager.InstanceBuf.GetSize())
		rPass.Draw(6, a.BufferManager.InstanceCount, 0, 0)
	}
	if err := rPass.End(); err != nil {
		rPass.Release()
		return fmt.Errorf("render pass end: %w", err)
	}
	rPass.Release()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder finish: %w", err)
	}
	defer cmd.Release()
	a.Profiler.EndScope("encode")

	a.Profiler.BeginScope("present")
	a.Queue.Submit(cmd)
	a.Surface.Present()
	a.Profiler.EndScope("present")

	a.updateFPS(glfw.GetTime())
	return nil
}

func (a *App) updateFPS(now float64) {
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
		}
	}
	a.LastRenderTime = now
}

// Release frees GPU objects in reverse creation order. Safe to call twice.
func (a *App) Release() {
	if a.BufferManager != nil {
		a.BufferManager.Release()
		a.BufferManager = nil
	}
	if a.RenderPipeline != nil {
		a.RenderPipeline.Release()
		a.RenderPipeline = nil
	}
	if a.ShaderModule != nil {
		a.ShaderModule.Release()
		a.ShaderModule = nil
	}
	if a.Queue != nil {
		a.Queue.Release()
		a.Queue = nil
	}
	if a.Device != nil {
		a.Device.Release()
		a.Device = nil
	}
	if a.Adapter != nil {
		a.Adapter.Release()
		a.Adapter = nil
	}
	if a.Surface != nil {
		a.Surface.Release()
		a.Surface = nil
	}
	if a.Instance != nil {
		a.Instance.Release()
		a.Instance = nil
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
