package glyphfield

import (
	"fmt"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// HeadlessSurface has no output. It records what was submitted.
type HeadlessSurface struct {
	Width       int
	Height      int
	Submitted   int
	ResizeCalls int
	Released    bool
	Last        core.Uniforms
}

func (s *HeadlessSurface) Size() (int, int)    { return s.Width, s.Height }
func (s *HeadlessSurface) PixelRatio() float32 { return 1 }

func (s *HeadlessSurface) Resize(width, height int) {
	s.Width, s.Height = width, height
	s.ResizeCalls++
}

func (s *HeadlessSurface) Submit(u *core.Uniforms) error {
	s.Submitted++
	s.Last = *u
	return nil
}

func (s *HeadlessSurface) Stats() string {
	return fmt.Sprintf("  %-15s: %d\n", "submitted", s.Submitted)
}

func (s *HeadlessSurface) Release() { s.Released = true }

type HeadlessModule struct {
	Width  int
	Height int
}

func openHeadless(cfg Config, _ Logger) (Module, error) {
	return HeadlessModule{Width: cfg.Width, Height: cfg.Height}, nil
}

func (mod HeadlessModule) Install(app *App, cmd *Commands) {
	useSurface(app, cmd, RendererHeadless, &HeadlessSurface{
		Width:  mod.Width,
		Height: mod.Height,
	})
}
