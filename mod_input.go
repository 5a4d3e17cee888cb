package glyphfield

import (
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyUnknown int = iota
	KeyEscape
	KeySpace
	KeyP
	KeyQ
	KeyCtrlC
)

var keyFromGlfw = map[glfw.Key]int{
	glfw.KeyEscape: KeyEscape,
	glfw.KeySpace:  KeySpace,
	glfw.KeyP:      KeyP,
	glfw.KeyQ:      KeyQ,
}

func keyFromTcell(ev *tcell.EventKey) int {
	switch ev.Key() {
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyCtrlC:
		return KeyCtrlC
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return KeySpace
		case 'p', 'P':
			return KeyP
		case 'q', 'Q':
			return KeyQ
		}
	}
	return KeyUnknown
}

// keyOp maps a key press to a lifecycle op.
func keyOp(key int) (opKind, bool) {
	switch key {
	case KeyEscape, KeyQ, KeyCtrlC:
		return opDestroy, true
	case KeySpace, KeyP:
		return opTogglePause, true
	}
	return 0, false
}

// pointerFromCursor normalizes a cursor position inside a w x h area to
// [-1, 1] with y pointing up.
func pointerFromCursor(x, y float64, w, h int) (float32, float32) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	nx := x/float64(w)*2 - 1
	ny := -(y/float64(h)*2 - 1)
	return float32(nx), float32(ny)
}

// Input mirrors the latest window input. Lifecycle effects go through the op queue.
type Input struct {
	MouseX, MouseY            float64
	WindowWidth, WindowHeight int
	Iconified                 bool
}

// InputModule wires GLFW callbacks of the shared window into the op queue
// and pumps window events once per frame.
type InputModule struct{}

func (mod InputModule) Install(app *App, cmd *Commands) {
	ws, ok := Resource[WindowState](app)
	if !ok {
		panic("InputModule requires a WindowState resource")
	}
	q, ok := Resource[opQueue](app)
	if !ok {
		panic("InputModule requires LifecycleModule")
	}

	input := &Input{WindowWidth: ws.Width, WindowHeight: ws.Height}
	cmd.AddResources(input)
	bindWindowInput(ws, q, input)

	cmd.UseSystem(
		System(pollEventsSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// visibilityOp maps a surface visibility change to its op. A restored surface
// resumes only if hiding it was what paused the engine.
func visibilityOp(visible bool) op {
	if visible {
		return op{kind: opShow}
	}
	return op{kind: opHide}
}

func bindWindowInput(ws *WindowState, q *opQueue, input *Input) {
	win := ws.window
	win.SetSizeCallback(func(w *glfw.Window, width, height int) {
		input.WindowWidth, input.WindowHeight = width, height
		q.requestResize(width, height)
	})
	win.SetIconifyCallback(func(w *glfw.Window, iconified bool) {
		input.Iconified = iconified
		q.push(visibilityOp(!iconified))
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		input.MouseX, input.MouseY = x, y
		q.pointer(pointerFromCursor(x, y, input.WindowWidth, input.WindowHeight))
	})
	win.SetCloseCallback(func(w *glfw.Window) {
		q.push(op{kind: opDestroy})
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if kind, ok := keyOp(keyFromGlfw[key]); ok {
			q.push(op{kind: kind})
		}
	})
}

func pollEventsSystem(ws *WindowState) {
	if ws.window != nil {
		glfw.PollEvents()
	}
}
