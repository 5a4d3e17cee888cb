package glyphfield

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

const (
	StateLoading State = iota
	StateRunning
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Engine is one particle morph animation bound to one renderer.
//
// Operations are safe to call from any goroutine. Start, Pause, Resume and
// Destroy take effect before they return; Resize and SetPointer are applied
// on the next frame. A degraded engine ignores every operation.
type Engine struct {
	id       string
	cfg      Config
	renderer RendererName
	logger   Logger

	// frameMu serializes frames and synchronous ops.
	frameMu sync.Mutex
	app     *App
	queue   *opQueue
	morph   *MorphState
	target  *RenderTarget

	degraded    bool
	fallbackErr error
}

// NewEngine validates cfg, detects the renderer and builds the engine in the
// loading state. Capability failures do not return an error: the engine is
// degraded and cfg.OnFallback is called.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Renderer == "" {
		return nil, ErrNoSurface
	}
	if !knownRenderer(cfg.Renderer) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, cfg.Renderer)
	}
	if cfg.Fallback != "" && !knownRenderer(cfg.Fallback) {
		return nil, fmt.Errorf("%w: fallback %q", ErrUnknownRenderer, cfg.Fallback)
	}

	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		id:  uuid.NewString(),
		cfg: cfg,
	}
	e.logger = cfg.Logger
	if e.logger == nil {
		e.logger = NewDefaultLogger("morph-"+e.id[:8], cfg.Debug)
	} else if cfg.Debug {
		e.logger.SetDebug(true)
	}

	name, renderer, err := openRenderer(cfg, e.logger)
	if err != nil {
		e.degrade(err)
		return e, nil
	}
	e.renderer = name

	if err := e.build(renderer); err != nil {
		e.degrade(err)
		return e, nil
	}
	return e, nil
}

// build assembles the app. Module installation panics are recovered.
func (e *Engine) build(renderer Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if rErr, ok := r.(error); ok && errors.Is(rErr, ErrCapabilityUnavailable) {
				err = rErr
			} else {
				err = fmt.Errorf("%w: %s init: %v", ErrCapabilityUnavailable, e.renderer, r)
			}
		}
	}()

	app := NewAppBuilder().
		UseStates(StateLoading, StateDestroyed).
		UseModule(
			LoggingModule{Logger: e.logger},
			TimeModule{},
			MorphModule{Config: e.cfg},
			LifecycleModule{ResizeDebounce: e.cfg.ResizeDebounce},
			renderer,
		).
		Build()

	queue, _ := Resource[opQueue](app)
	morph, _ := Resource[MorphState](app)
	target, _ := Resource[RenderTarget](app)
	if queue == nil || morph == nil || target == nil {
		return fmt.Errorf("%w: %s installed no render target", ErrCapabilityUnavailable, e.renderer)
	}

	e.app, e.queue, e.morph, e.target = app, queue, morph, target
	e.app.Start()
	return nil
}

func (e *Engine) degrade(reason error) {
	e.degraded = true
	e.fallbackErr = reason
	e.logger.Warnf("Running degraded, animation disabled: %v", reason)
	if e.cfg.OnFallback != nil {
		e.cfg.OnFallback(reason)
	}
}

func (e *Engine) ID() string { return e.id }

// Renderer is the renderer in use, empty when degraded.
func (e *Engine) Renderer() RendererName { return e.renderer }

func (e *Engine) Degraded() bool { return e.degraded }

// FallbackReason wraps ErrCapabilityUnavailable when the engine is degraded.
func (e *Engine) FallbackReason() error { return e.fallbackErr }

// State reports the app state. A degraded engine reports StateDestroyed.
func (e *Engine) State() State {
	if e.degraded {
		return StateDestroyed
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.app.State()
}

// Snapshot returns a copy of the render state.
func (e *Engine) Snapshot() core.RenderState {
	if e.degraded {
		return core.RenderState{}
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.morph.Render
}

// Surface is the installed render surface, nil when degraded.
func (e *Engine) Surface() RenderSurface {
	if e.degraded {
		return nil
	}
	return e.target.Surface
}

func (e *Engine) Start()  { e.apply(op{kind: opStart}) }
func (e *Engine) Pause()  { e.apply(op{kind: opPause}) }
func (e *Engine) Resume() { e.apply(op{kind: opResume}) }

// Destroy releases the renderer and stops the run loop. Idempotent.
func (e *Engine) Destroy() { e.apply(op{kind: opDestroy}) }

// Resize requests a new logical size. Bursts are debounced and only the last
// size is applied.
func (e *Engine) Resize(width, height int) {
	if e.degraded {
		return
	}
	e.queue.requestResize(width, height)
}

// SetPointer records the pointer in normalized [-1, 1] coordinates.
func (e *Engine) SetPointer(x, y float32) {
	if e.degraded {
		return
	}
	e.queue.pointer(x, y)
}

// apply queues o and drains the queue outside of a frame, so the resulting
// state change is visible when apply returns.
func (e *Engine) apply(o op) {
	if e.degraded {
		return
	}
	e.queue.push(o)

	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	if e.app.Stopped() {
		e.queue.drain()
		return
	}
	e.queue.apply(e.morph, e.target, e.app.Commands())
	e.app.settle()
}

// Step runs exactly one frame. It returns ErrDestroyed after Destroy and
// does nothing on a degraded engine.
func (e *Engine) Step() error {
	if e.degraded {
		return nil
	}
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	if e.app.Stopped() {
		return ErrDestroyed
	}
	e.app.Tick()
	return nil
}

// Run drives frames until the engine is destroyed or ctx is cancelled.
// Cancellation destroys the engine and returns ctx.Err(). Renderers without
// vsync are paced at Config.MaxFPS.
func (e *Engine) Run(ctx context.Context) error {
	if e.degraded {
		return nil
	}
	e.queue.blocking.Store(true)
	defer e.queue.blocking.Store(false)
	stopWake := context.AfterFunc(ctx, e.queue.signal)
	defer stopWake()

	var pace <-chan time.Time
	if e.renderer != RendererWGPU {
		ticker := time.NewTicker(time.Second / time.Duration(e.cfg.MaxFPS))
		defer ticker.Stop()
		pace = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			e.Destroy()
			return err
		}
		if err := e.Step(); err != nil {
			return nil
		}
		if pace != nil {
			select {
			case <-ctx.Done():
			case <-pace:
			}
		}
	}
}
