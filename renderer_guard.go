package glyphfield

import (
	"fmt"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// RenderSurface is the output side of a renderer. All methods are called on
// the frame loop goroutine.
type RenderSurface interface {
	// Size is the drawable size in physical pixels.
	Size() (int, int)
	PixelRatio() float32
	// Resize takes a logical size (window points or terminal cells).
	Resize(width, height int)
	Submit(u *core.Uniforms) error
	Stats() string
	Release()
}

// RenderTarget marks that a renderer has been installed into the App.
// Only one renderer may be installed at a time.
type RenderTarget struct {
	Name    RendererName
	Surface RenderSurface
}

// ensureSingleRenderer enforces a single renderer invariant.
// If a renderer is already installed, it panics with a clear message.
func ensureSingleRenderer(app *App, name RendererName) {
	if app == nil {
		panic("ensureSingleRenderer: app is nil")
	}
	if target, ok := Resource[RenderTarget](app); ok {
		app.Logger().Errorf("Multiple renderers installed: %s and %s", target.Name, name)
		panic(fmt.Sprintf("Multiple renderers installed: %s and %s", target.Name, name))
	}
}

// useSurface installs s as the app's only render target and syncs the morph
// state with its drawable size.
func useSurface(app *App, cmd *Commands, name RendererName, s RenderSurface) {
	ensureSingleRenderer(app, name)
	cmd.AddResources(&RenderTarget{Name: name, Surface: s})
	if m, ok := Resource[MorphState](app); ok {
		m.syncSurface(s)
	}
	w, h := s.Size()
	app.Logger().Infof("Renderer selected: %s (%dx%d)", name, w, h)
}
