package glyphfield

import (
	"fmt"

	app_rt "github.com/gekko3d/glyphfield/morphrt/rt/app"
	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// MorphRtModule renders the field through WebGPU into a GLFW window.
// It is created by openMorphRt once the host passed capability detection.
type MorphRtModule struct {
	window        *WindowState
	rt            *app_rt.App
	maxPixelRatio float32
}

func openMorphRt(cfg Config, log Logger) (Module, error) {
	ws, err := createWindowState(cfg.Width, cfg.Height, cfg.Title)
	if err != nil {
		return nil, capabilityError(RendererWGPU, err)
	}

	rt := app_rt.NewApp(ws.window)
	if err := rt.Detect(); err != nil {
		rt.Release()
		ws.destroy()
		return nil, capabilityError(RendererWGPU, err)
	}
	log.Debugf("WebGPU adapter acquired for %dx%d window", cfg.Width, cfg.Height)

	return MorphRtModule{
		window:        ws,
		rt:            rt,
		maxPixelRatio: cfg.MaxPixelRatio,
	}, nil
}

func (mod MorphRtModule) Install(app *App, cmd *Commands) {
	PlatformWindowModule{Window: mod.window}.Install(app, cmd)

	m, ok := Resource[MorphState](app)
	if !ok {
		panic("MorphRtModule requires MorphModule")
	}
	if err := mod.rt.Init(m.Instances); err != nil {
		mod.rt.Release()
		mod.window.destroy()
		panic(capabilityError(RendererWGPU, err))
	}

	s := &gpuSurface{
		window:        mod.window,
		rt:            mod.rt,
		maxPixelRatio: mod.maxPixelRatio,
	}
	s.Resize(mod.window.Width, mod.window.Height)
	useSurface(app, cmd, RendererWGPU, s)

	InputModule{}.Install(app, cmd)
}

type gpuSurface struct {
	window        *WindowState
	rt            *app_rt.App
	maxPixelRatio float32
	pixelRatio    float32
}

// clampPixelRatio caps the device pixel ratio. Unknown ratios count as 1.
func clampPixelRatio(ratio, maxRatio float32) float32 {
	if ratio <= 0 {
		ratio = 1
	}
	if maxRatio > 0 && ratio > maxRatio {
		return maxRatio
	}
	return ratio
}

func (s *gpuSurface) Size() (int, int) { return s.rt.Size() }

func (s *gpuSurface) PixelRatio() float32 { return s.pixelRatio }

func (s *gpuSurface) Resize(width, height int) {
	s.window.Width, s.window.Height = width, height
	s.pixelRatio = clampPixelRatio(s.window.FramebufferRatio(), s.maxPixelRatio)
	s.rt.Resize(int(float32(width)*s.pixelRatio), int(float32(height)*s.pixelRatio))
}

func (s *gpuSurface) Submit(u *core.Uniforms) error {
	return s.rt.Render(u)
}

func (s *gpuSurface) Stats() string {
	return fmt.Sprintf("  %-15s: %.1f\n", "gpu fps", s.rt.FPS) + s.rt.Profiler.GetStatsString()
}

func (s *gpuSurface) Release() {
	s.rt.Release()
	s.window.destroy()
}
