package glyphfield

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowState is the shared GLFW window. Only one exists per process.
type WindowState struct {
	window *glfw.Window
	Width  int
	Height int
	Title  string
}

// createWindowState initializes GLFW and opens a window without a client
// API, ready for a WebGPU surface. Must run on the main thread.
func createWindowState(width, height int, title string) (*WindowState, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no OpenGL context
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		window: win,
		Width:  width,
		Height: height,
		Title:  title,
	}, nil
}

// FramebufferRatio is framebuffer pixels per window point, 1 when unknown.
func (s *WindowState) FramebufferRatio() float32 {
	if s.window == nil {
		return 1
	}
	w, _ := s.window.GetSize()
	fw, _ := s.window.GetFramebufferSize()
	if w <= 0 || fw <= 0 {
		return 1
	}
	return float32(fw) / float32(w)
}

func (s *WindowState) destroy() {
	if s.window == nil {
		return
	}
	s.window.Destroy()
	s.window = nil
	glfw.Terminate()
}

// PlatformWindowModule provides the WindowState resource. Install is
// idempotent: an existing WindowState is reused.
type PlatformWindowModule struct {
	Window *WindowState
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}
	if m.Window == nil {
		panic("PlatformWindowModule: no window")
	}
	cmd.AddResources(m.Window)
}
