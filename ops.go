package glyphfield

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

type opKind int

const (
	opStart opKind = iota
	opPause
	opResume
	opTogglePause
	opResize
	opPointer
	opDestroy
	opHide // surface minimized or lost focus
	opShow
)

func (k opKind) String() string {
	switch k {
	case opStart:
		return "start"
	case opPause:
		return "pause"
	case opResume:
		return "resume"
	case opTogglePause:
		return "toggle-pause"
	case opResize:
		return "resize"
	case opPointer:
		return "pointer"
	case opDestroy:
		return "destroy"
	case opHide:
		return "hide"
	case opShow:
		return "show"
	}
	return "unknown"
}

type op struct {
	kind opKind
	w, h int
	x, y float32
}

// idleWait bounds how long a paused or loading frame blocks, so window
// events keep being pumped.
const idleWait = 100 * time.Millisecond

// opQueue collects lifecycle requests from any goroutine. They are applied on
// the frame loop in the Finale stage.
type opQueue struct {
	mu      sync.Mutex
	pending []op
	wake    chan struct{}

	// blocking is set while Engine.Run owns the loop.
	blocking atomic.Bool

	debouncer *core.Debouncer

	// hiddenPause is set when opHide paused a running engine. Only then does
	// opShow resume it. Owned by the frame loop.
	hiddenPause bool
}

func newOpQueue(resizeQuiet time.Duration) *opQueue {
	q := &opQueue{wake: make(chan struct{}, 1)}
	q.debouncer = core.NewDebouncer(resizeQuiet, func(w, h int) {
		q.push(op{kind: opResize, w: w, h: h})
	})
	return q
}

func (q *opQueue) push(o op) {
	q.mu.Lock()
	q.pending = append(q.pending, o)
	q.mu.Unlock()
	q.signal()
}

func (q *opQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *opQueue) drain() []op {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.pending
	q.pending = nil
	return ops
}

func (q *opQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// requestResize feeds the debouncer; only the last size of a burst becomes an op.
func (q *opQueue) requestResize(w, h int) {
	q.debouncer.Trigger(w, h)
}

func (q *opQueue) pointer(x, y float32) {
	q.push(op{kind: opPointer, x: x, y: y})
}

func (q *opQueue) wait(timeout time.Duration) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-q.wake:
	case <-t.C:
	}
}

type LifecycleModule struct {
	ResizeDebounce time.Duration
}

func (mod LifecycleModule) Install(app *App, cmd *Commands) {
	quiet := mod.ResizeDebounce
	if quiet <= 0 {
		quiet = DefaultResizeDebounce
	}
	cmd.AddResources(newOpQueue(quiet))

	cmd.UseSystem(
		System(idleWaitSystem).
			InStage(Prelude).
			InState(OnExecute(StateLoading)),
	)
	cmd.UseSystem(
		System(idleWaitSystem).
			InStage(Prelude).
			InState(OnExecute(StatePaused)),
	)
	cmd.UseSystem(
		System(resumeStatsSystem).
			InStage(Prelude).
			InState(OnExit(StatePaused)),
	)
	cmd.UseSystem(
		System(lifecycleSystem).
			InStage(Finale).
			RunAlways(),
	)
	cmd.UseSystem(
		System(releaseSystem).
			InStage(Finale).
			InState(OnEnter(StateDestroyed)),
	)
}

func idleWaitSystem(q *opQueue) {
	if q.blocking.Load() && q.len() == 0 {
		q.wait(idleWait)
	}
}

func resumeStatsSystem(t *Time) {
	t.resetSample()
}

func lifecycleSystem(q *opQueue, m *MorphState, target *RenderTarget, cmd *Commands) {
	q.apply(m, target, cmd)
}

// apply drains the queue, applies ops in order and requests at most one state
// change. Destroy is sticky: nothing after it is applied.
func (q *opQueue) apply(m *MorphState, target *RenderTarget, cmd *Commands) {
	current := cmd.State()
	next := current

	for _, o := range q.drain() {
		if next == StateDestroyed {
			break
		}
		switch o.kind {
		case opStart:
			if next == StateLoading {
				next = StateRunning
			}
		case opPause:
			q.hiddenPause = false
			if next == StateRunning {
				next = StatePaused
			}
		case opResume:
			q.hiddenPause = false
			if next == StatePaused {
				next = StateRunning
			}
		case opHide:
			if next == StateRunning {
				next = StatePaused
				q.hiddenPause = true
			}
		case opShow:
			if q.hiddenPause && next == StatePaused {
				next = StateRunning
			}
			q.hiddenPause = false
		case opTogglePause:
			q.hiddenPause = false
			switch next {
			case StateRunning:
				next = StatePaused
			case StatePaused:
				next = StateRunning
			}
		case opResize:
			if o.w <= 0 || o.h <= 0 {
				continue
			}
			target.Surface.Resize(o.w, o.h)
			m.syncSurface(target.Surface)
			cmd.Logger().Debugf("Resized to %dx%d (drawable %dx%d)", o.w, o.h, m.Width, m.Height)
		case opPointer:
			m.Render.SetPointer(o.x, o.y)
		case opDestroy:
			next = StateDestroyed
		}
	}

	if next != current {
		cmd.ChangeState(next)
	}
}

func releaseSystem(q *opQueue, target *RenderTarget, cmd *Commands) {
	q.debouncer.Stop()
	target.Surface.Release()
	cmd.Logger().Infof("Released %s renderer", target.Name)
}
