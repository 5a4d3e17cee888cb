package glyphfield

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// glyphRamp orders cell glyphs from dark to bright.
const glyphRamp = " .:-=+*#%@"

// maxSplatRadius caps how many pixels a sprite may cover in each direction.
const maxSplatRadius = 4

// TerminalModule renders the field into a tcell screen, shading each particle
// with the CPU kernel. One cell is one pixel wide and two pixels tall.
type TerminalModule struct {
	screen tcell.Screen
}

func openTerminal(cfg Config, _ Logger) (Module, error) {
	screen := cfg.Screen
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, capabilityError(RendererTerminal, err)
		}
	}
	if err := screen.Init(); err != nil {
		return nil, capabilityError(RendererTerminal, err)
	}
	return TerminalModule{screen: screen}, nil
}

func (mod TerminalModule) Install(app *App, cmd *Commands) {
	m, ok := Resource[MorphState](app)
	if !ok {
		panic("TerminalModule requires MorphModule")
	}
	q, ok := Resource[opQueue](app)
	if !ok {
		panic("TerminalModule requires LifecycleModule")
	}

	mod.screen.EnableMouse()
	mod.screen.EnableFocus()
	mod.screen.HideCursor()
	mod.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	mod.screen.Clear()

	s := newTerminalSurface(mod.screen, m.Instances, m.Camera)
	useSurface(app, cmd, RendererTerminal, s)

	go s.pollEvents(q)
}

type terminalCell struct {
	rgb mgl32.Vec3
}

type terminalSurface struct {
	screen    tcell.Screen
	instances []core.ParticleInstance
	camera    *core.CameraState

	cols, rows int
	cells      []terminalCell

	frames     int
	drawn      int
	lastSubmit time.Duration
}

func newTerminalSurface(screen tcell.Screen, instances []core.ParticleInstance, camera *core.CameraState) *terminalSurface {
	s := &terminalSurface{
		screen:    screen,
		instances: instances,
		camera:    camera,
	}
	s.Resize(screen.Size())
	return s
}

func (s *terminalSurface) Size() (int, int) { return s.cols, s.rows * 2 }

func (s *terminalSurface) PixelRatio() float32 { return 1 }

// Resize takes the size in cells.
func (s *terminalSurface) Resize(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.cells = make([]terminalCell, s.cols*s.rows)
}

func (s *terminalSurface) Submit(u *core.Uniforms) error {
	start := time.Now()
	if s.cols == 0 || s.rows == 0 {
		return nil
	}
	clear(s.cells)

	planes := s.camera.ExtractFrustum(u.Projection.Mul4(u.ModelView))
	pxW, pxH := float32(s.cols), float32(s.rows*2)

	drawn := 0
	for _, inst := range s.instances {
		v := core.ShadeVertex(inst, u)
		if v.Fade <= 0 || !core.PointInFrustum(planes, v.Local) {
			continue
		}
		w := v.Clip.W()
		if w <= 0 {
			continue
		}
		px := (v.Clip.X()/w*0.5 + 0.5) * pxW
		py := (0.5 - v.Clip.Y()/w*0.5) * pxH
		if s.splat(px, py, v, u) {
			drawn++
		}
	}

	s.draw()
	s.drawn = drawn
	s.frames++
	s.lastSubmit = time.Since(start)
	return nil
}

// splat accumulates one sprite centered at pixel (px, py). Sprites smaller
// than a cell land in the cell under their center.
func (s *terminalSurface) splat(px, py float32, v core.VertexOut, u *core.Uniforms) bool {
	size := v.PointSize
	if size < 2 {
		rgb, alpha, ok := core.ShadeFragment(mgl32.Vec2{0.5, 0.5}, v, u)
		if !ok {
			return false
		}
		return s.add(int(px), int(py/2), rgb.Mul(alpha))
	}

	r := min(size/2, maxSplatRadius)
	x0, x1 := int(floor32(px-r)), int(floor32(px+r))
	y0, y1 := int(floor32((py-r)/2)), int(floor32((py+r)/2))

	hit := false
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			coord := mgl32.Vec2{
				(float32(cx)+0.5-px)/size + 0.5,
				((float32(cy)+0.5)*2-py)/size + 0.5,
			}
			rgb, alpha, ok := core.ShadeFragment(coord, v, u)
			if !ok {
				continue
			}
			if s.add(cx, cy, rgb.Mul(alpha)) {
				hit = true
			}
		}
	}
	return hit
}

func (s *terminalSurface) add(x, y int, rgb mgl32.Vec3) bool {
	if x < 0 || y < 0 || x >= s.cols || y >= s.rows {
		return false
	}
	c := &s.cells[y*s.cols+x]
	c.rgb = c.rgb.Add(rgb)
	return true
}

func (s *terminalSurface) draw() {
	blank := tcell.StyleDefault.Background(tcell.ColorBlack)
	for y := 0; y < s.rows; y++ {
		for x := 0; x < s.cols; x++ {
			ch, style := cellGlyph(s.cells[y*s.cols+x].rgb)
			if ch == ' ' {
				style = blank
			}
			s.screen.SetContent(x, y, ch, nil, style)
		}
	}
	s.screen.Show()
}

// cellGlyph picks a ramp glyph by brightness and a clamped foreground color.
func cellGlyph(rgb mgl32.Vec3) (rune, tcell.Style) {
	lum := max(rgb.X(), rgb.Y(), rgb.Z())
	idx := int(mgl32.Clamp(lum, 0, 1)*float32(len(glyphRamp)-1) + 0.5)
	ch := rune(glyphRamp[idx])

	c := colorful.Color{R: float64(rgb.X()), G: float64(rgb.Y()), B: float64(rgb.Z())}.Clamped()
	r, g, b := c.RGB255()
	style := tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
	return ch, style
}

func (s *terminalSurface) Stats() string {
	return fmt.Sprintf("  %-15s: %d\n  %-15s: %.2f ms\n",
		"drawn", s.drawn,
		"submit", float64(s.lastSubmit.Microseconds())/1000)
}

func (s *terminalSurface) Release() {
	s.screen.Fini()
}

// pollEvents forwards terminal events to the op queue until the screen is
// finalized.
func (s *terminalSurface) pollEvents(q *opQueue) {
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventResize:
			q.requestResize(ev.Size())
		case *tcell.EventMouse:
			x, y := ev.Position()
			cols, rows := s.screen.Size()
			q.pointer(pointerFromCursor(float64(x)+0.5, float64(y)+0.5, cols, rows))
		case *tcell.EventFocus:
			q.push(visibilityOp(ev.Focused))
		case *tcell.EventKey:
			if kind, ok := keyOp(keyFromTcell(ev)); ok {
				q.push(op{kind: kind})
			}
		}
	}
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }
