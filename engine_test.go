package glyphfield

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

func headlessConfig(count int, text string) Config {
	cfg := DefaultConfig()
	cfg.Renderer = RendererHeadless
	cfg.Logger = NewNopLogger()
	cfg.Count = count
	cfg.Text = text
	cfg.Field.Rand = rand.New(rand.NewSource(42))
	cfg.Sampler.Rand = rand.New(rand.NewSource(43))
	return cfg
}

func newHeadlessEngine(t *testing.T, cfg Config) (*Engine, *HeadlessSurface) {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.False(t, e.Degraded(), "unexpected fallback: %v", e.FallbackReason())
	require.Equal(t, RendererHeadless, e.Renderer())
	s, ok := e.Surface().(*HeadlessSurface)
	require.True(t, ok)
	t.Cleanup(e.Destroy)
	return e, s
}

// failingScreen is a terminal that cannot be initialized.
type failingScreen struct {
	tcell.Screen
}

func (failingScreen) Init() error { return errors.New("not a terminal") }

func TestNewEngine_Errors(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.ErrorIs(t, err, ErrNoSurface)

	cfg := headlessConfig(10, "")
	cfg.Renderer = "vulkan"
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, ErrUnknownRenderer)

	cfg = headlessConfig(10, "")
	cfg.Fallback = "canvas"
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, ErrUnknownRenderer)

	cfg = headlessConfig(10, "")
	cfg.Driver.TimeStep = -1
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidDriverConfig)

	cfg = headlessConfig(10, "")
	cfg.Preset = "disco"
	_, err = NewEngine(cfg)
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestEngine_StartsLoading(t *testing.T) {
	e, s := newHeadlessEngine(t, headlessConfig(10, ""))
	assert.Equal(t, StateLoading, e.State())
	assert.NotEmpty(t, e.ID())

	// Nothing advances before Start.
	require.NoError(t, e.Step())
	assert.Equal(t, core.RenderState{}, e.Snapshot())
	assert.Zero(t, s.Submitted)

	e.Start()
	assert.Equal(t, StateRunning, e.State())
}

func TestEngine_NoTextStaysOnChaos(t *testing.T) {
	e, s := newHeadlessEngine(t, headlessConfig(100, ""))
	require.Equal(t, 100, e.morph.Field.Len())
	assert.Zero(t, e.morph.Targets)
	for i := 0; i < e.morph.Field.Len(); i++ {
		require.Equal(t, e.morph.Field.Chaos[i], e.morph.Field.Target[i])
	}

	e.Start()
	for i := 0; i < 1000; i++ {
		require.NoError(t, e.Step())
		snap := e.Snapshot()
		require.GreaterOrEqual(t, snap.Morph, float32(0))
		require.LessOrEqual(t, snap.Morph, float32(1))
	}
	assert.InDelta(t, 10.0, e.Snapshot().Time, 1e-3)
	assert.Equal(t, 1000, s.Submitted)
}

func TestEngine_TextFormsDuringWindow(t *testing.T) {
	e, s := newHeadlessEngine(t, headlessConfig(5000, "AR"))
	require.Greater(t, e.morph.Targets, 0)
	assert.Equal(t, 5000, e.morph.Field.Len())

	e.Start()
	for e.Snapshot().Time < 4.0 {
		require.NoError(t, e.Step())
	}
	prev := e.Snapshot().Morph
	for e.Snapshot().Time < 8.9 {
		require.NoError(t, e.Step())
		snap := e.Snapshot()
		require.GreaterOrEqual(t, snap.Morph, prev)
		prev = snap.Morph
	}
	snap := e.Snapshot()
	assert.Greater(t, snap.Morph, float32(0.99))
	assert.Equal(t, core.PhaseFormed, snap.Phase())

	// The last submitted uniforms carry the state of the last frame.
	assert.Equal(t, snap.Morph, s.Last.Morph)
	assert.Equal(t, float32(snap.Time), s.Last.Time)
	assert.Equal(t, float32(DefaultWidth), s.Last.Resolution.X())
	assert.Equal(t, float32(DefaultHeight), s.Last.Resolution.Y())
}

func TestEngine_PauseResumeIsTimeShift(t *testing.T) {
	reference, _ := newHeadlessEngine(t, headlessConfig(50, ""))
	paused, s := newHeadlessEngine(t, headlessConfig(50, ""))
	reference.Start()
	paused.Start()

	for i := 0; i < 300; i++ {
		require.NoError(t, reference.Step())
		require.NoError(t, paused.Step())
	}

	paused.Pause()
	assert.Equal(t, StatePaused, paused.State())
	frozen := paused.Snapshot()
	submitted := s.Submitted
	for i := 0; i < 100; i++ {
		require.NoError(t, paused.Step())
	}
	assert.Equal(t, frozen, paused.Snapshot())
	assert.Equal(t, submitted, s.Submitted, "paused frames render nothing")

	paused.Resume()
	assert.Equal(t, StateRunning, paused.State())
	for i := 0; i < 500; i++ {
		require.NoError(t, reference.Step())
		require.NoError(t, paused.Step())
	}
	assert.Equal(t, reference.Snapshot(), paused.Snapshot())
}

func TestEngine_VisibilityResumesOnlyItsOwnPause(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Start()

	// Hidden while running: shown again resumes.
	e.apply(op{kind: opHide})
	assert.Equal(t, StatePaused, e.State())
	e.apply(op{kind: opShow})
	assert.Equal(t, StateRunning, e.State())

	// Paused by the user before hiding: showing keeps the pause.
	e.Pause()
	e.apply(op{kind: opHide})
	e.apply(op{kind: opShow})
	assert.Equal(t, StatePaused, e.State())
	e.Resume()
	assert.Equal(t, StateRunning, e.State())

	// Paused by the user while hidden: the pause becomes the user's.
	e.apply(op{kind: opHide})
	e.Pause()
	e.apply(op{kind: opShow})
	assert.Equal(t, StatePaused, e.State())

	// Resumed by the user while hidden: showing changes nothing.
	e.Resume()
	e.apply(op{kind: opHide})
	e.apply(op{kind: opTogglePause})
	assert.Equal(t, StateRunning, e.State())
	e.apply(op{kind: opShow})
	assert.Equal(t, StateRunning, e.State())

	// Hide and show in one batch leave a running engine running.
	e.queue.push(op{kind: opHide})
	e.queue.push(op{kind: opShow})
	require.NoError(t, e.Step())
	assert.Equal(t, StateRunning, e.State())
}

func TestEngine_QueuedOpsApplyInOrder(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Start()

	e.queue.push(op{kind: opPause})
	e.queue.push(op{kind: opResume})
	e.queue.push(op{kind: opPause})
	require.NoError(t, e.Step())
	assert.Equal(t, StatePaused, e.State())

	e.queue.push(op{kind: opTogglePause})
	e.queue.push(op{kind: opTogglePause})
	require.NoError(t, e.Step())
	assert.Equal(t, StatePaused, e.State())

	// Nothing after destroy is applied.
	e.queue.push(op{kind: opPointer, x: 0.5, y: 0.5})
	e.queue.push(op{kind: opDestroy})
	e.queue.push(op{kind: opStart})
	require.NoError(t, e.Step())
	assert.Equal(t, StateDestroyed, e.State())
	assert.Equal(t, float32(0.5), e.Snapshot().MouseRaw.X())
}

func TestEngine_PointerIsSmoothed(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Start()
	e.SetPointer(0.5, -2)
	// The op lands at the end of the first frame; the second frame smooths toward it.
	require.NoError(t, e.Step())
	assert.Zero(t, e.Snapshot().Mouse.X())
	require.NoError(t, e.Step())

	snap := e.Snapshot()
	assert.Equal(t, float32(0.5), snap.MouseRaw.X())
	assert.Equal(t, float32(-1), snap.MouseRaw.Y())
	assert.InDelta(t, 0.5*e.morph.Driver.MouseSmoothing, snap.Mouse.X(), 1e-6)
}

func TestEngine_ResizeBurstAppliesLastSize(t *testing.T) {
	cfg := headlessConfig(10, "")
	cfg.ResizeDebounce = 20 * time.Millisecond
	e, s := newHeadlessEngine(t, cfg)
	e.Start()

	for i := 0; i < 10; i++ {
		e.Resize(800+i*10, 600)
	}
	require.NoError(t, e.Step())
	assert.Zero(t, s.ResizeCalls, "burst still settling")

	require.Eventually(t, func() bool {
		_ = e.Step()
		return e.queue.len() == 0 && !e.queue.debouncer.Pending() && s.ResizeCalls > 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * cfg.ResizeDebounce)
	require.NoError(t, e.Step())

	assert.Equal(t, 1, s.ResizeCalls)
	assert.Equal(t, 890, s.Width)
	assert.Equal(t, 600, s.Height)
	assert.Equal(t, 890, e.morph.Width)
	assert.InDelta(t, 890.0/600.0, e.morph.Camera.Aspect, 1e-6)
	assert.Equal(t, float32(890), s.Last.Resolution.X())
}

func TestEngine_ResizeWhilePausedAppliesOnNextFrame(t *testing.T) {
	cfg := headlessConfig(10, "")
	cfg.ResizeDebounce = 10 * time.Millisecond
	e, s := newHeadlessEngine(t, cfg)
	e.Start()
	e.Pause()

	e.Resize(320, 200)
	require.Eventually(t, func() bool {
		_ = e.Step()
		return s.ResizeCalls == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatePaused, e.State())
	assert.Equal(t, 320, e.morph.Width)
}

func TestEngine_DestroyIsIdempotent(t *testing.T) {
	e, s := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Start()
	require.NoError(t, e.Step())

	e.Destroy()
	assert.Equal(t, StateDestroyed, e.State())
	assert.True(t, s.Released)
	assert.ErrorIs(t, e.Step(), ErrDestroyed)

	assert.NotPanics(t, e.Destroy)
	e.Start()
	e.Resume()
	assert.Equal(t, StateDestroyed, e.State())
	assert.ErrorIs(t, e.Step(), ErrDestroyed)
}

func TestEngine_DestroyBeforeStart(t *testing.T) {
	e, s := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Destroy()
	assert.Equal(t, StateDestroyed, e.State())
	assert.True(t, s.Released)
	assert.Zero(t, s.Submitted)
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	cfg := headlessConfig(10, "")
	cfg.MaxFPS = 500
	e, s := newHeadlessEngine(t, cfg)
	e.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateDestroyed, e.State())
	assert.Greater(t, s.Submitted, 0)
	assert.True(t, s.Released)
}

func TestEngine_RunReturnsAfterDestroy(t *testing.T) {
	cfg := headlessConfig(10, "")
	cfg.MaxFPS = 500
	e, _ := newHeadlessEngine(t, cfg)

	// Destroy from another goroutine while the loop idles in loading.
	go func() {
		time.Sleep(20 * time.Millisecond)
		e.Destroy()
	}()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Destroy")
	}
	assert.Equal(t, StateDestroyed, e.State())
}

func TestEngine_DegradedWhenCapabilityMissing(t *testing.T) {
	var reasons []error
	cfg := headlessConfig(10, "")
	cfg.Renderer = RendererTerminal
	cfg.Screen = failingScreen{}
	cfg.OnFallback = func(reason error) { reasons = append(reasons, reason) }

	e, err := NewEngine(cfg)
	require.NoError(t, err)
	require.True(t, e.Degraded())
	assert.ErrorIs(t, e.FallbackReason(), ErrCapabilityUnavailable)
	require.Len(t, reasons, 1)
	assert.ErrorIs(t, reasons[0], ErrCapabilityUnavailable)

	// Every operation is a no-op.
	e.Start()
	e.Pause()
	e.Resume()
	e.Resize(10, 10)
	e.SetPointer(1, 1)
	assert.NoError(t, e.Step())
	assert.NoError(t, e.Run(context.Background()))
	e.Destroy()
	assert.Equal(t, StateDestroyed, e.State())
	assert.Equal(t, core.RenderState{}, e.Snapshot())
	assert.Nil(t, e.Surface())
	assert.Len(t, reasons, 1)
}

func TestEngine_FallbackRenderer(t *testing.T) {
	called := false
	cfg := headlessConfig(10, "")
	cfg.Renderer = RendererTerminal
	cfg.Screen = failingScreen{}
	cfg.Fallback = RendererHeadless
	cfg.OnFallback = func(error) { called = true }

	e, err := NewEngine(cfg)
	require.NoError(t, err)
	defer e.Destroy()
	assert.False(t, e.Degraded())
	assert.Equal(t, RendererHeadless, e.Renderer())
	assert.False(t, called)
}

func TestEngine_BadFontKeepsChaos(t *testing.T) {
	cfg := headlessConfig(20, "AR")
	cfg.Sampler.Font = []byte("not a font")
	e, _ := newHeadlessEngine(t, cfg)

	assert.Zero(t, e.morph.Targets)
	for i := 0; i < e.morph.Field.Len(); i++ {
		require.Equal(t, e.morph.Field.Chaos[i], e.morph.Field.Target[i])
	}
}

func TestEngine_AmbientPresetUniforms(t *testing.T) {
	cfg := headlessConfig(300, "")
	cfg.Preset = PresetAmbient
	e, s := newHeadlessEngine(t, cfg)
	for _, sc := range e.morph.Field.Scale {
		require.GreaterOrEqual(t, sc, float32(0.3))
		require.LessOrEqual(t, sc, float32(0.8))
	}

	e.Start()
	// Run through the whole formed window of a morph cycle.
	for i := 0; i < 1000; i++ {
		require.NoError(t, e.Step())
		require.Zero(t, s.Last.Morph, "frame %d", i)
	}
	snap := e.Snapshot()
	assert.InDelta(t, 0.05*math.Sin(0.1*snap.Time), snap.RotationX, 1e-6)
	assert.Zero(t, snap.RotationZ)
	assert.Zero(t, snap.Pulse)
	// Steady rotation never decays back to zero.
	assert.InDelta(t, 1000*0.0005, snap.RotationY, 1e-3)

	assert.Zero(t, s.Last.GlowBoost)
	assert.Equal(t, s.Last.BaseSize, s.Last.FormedSize)
	assert.Equal(t, float32(100), s.Last.FadeDistance)
	assert.Equal(t, float32(0.4), s.Last.AlphaScale)
	assert.Zero(t, s.Last.AttractStrength)
	assert.Zero(t, s.Last.RepelStrength)
}

func TestEngine_OrganicPresetUniforms(t *testing.T) {
	cfg := headlessConfig(300, "")
	cfg.Preset = PresetOrganic
	e, s := newHeadlessEngine(t, cfg)
	for i, c := range e.morph.Field.Color {
		require.InDelta(t, 0.5+c.X()*0.5, c.Y(), 1e-5, "particle %d", i)
		require.InDelta(t, 1-c.X()*0.5, c.Z(), 1e-5, "particle %d", i)
	}

	e.Start()
	for i := 0; i < 157; i++ {
		require.NoError(t, e.Step())
		require.Zero(t, s.Last.Morph, "frame %d", i)
	}
	snap := e.Snapshot()
	assert.InDelta(t, 0.2*math.Sin(0.3*snap.Time), snap.RotationX, 1e-6)
	assert.InDelta(t, 0.1*math.Cos(0.2*snap.Time), snap.RotationZ, 1e-6)
	assert.InDelta(t, 0.1*math.Sin(snap.Time), snap.Pulse, 1e-6)
	assert.Greater(t, snap.Pulse, float32(0.09))

	// The view is rigid, so the model-view basis length is the pulse scale.
	k := s.Last.ModelView.Col(0).Vec3().Len()
	assert.InDelta(t, 1+snap.Pulse, k, 1e-4)

	assert.Zero(t, s.Last.GlowBoost)
	assert.Equal(t, s.Last.BaseSize, s.Last.FormedSize)
	assert.Equal(t, float32(0.8), s.Last.AlphaScale)
}

func TestEngine_ResumeDropsIdleFrameStats(t *testing.T) {
	e, _ := newHeadlessEngine(t, headlessConfig(10, ""))
	e.Start()
	e.Pause()
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Step())
	}

	tr, ok := Resource[Time](e.app)
	require.True(t, ok)
	// A half-filled window of idle paused frames.
	tr.fpsFrames, tr.fpsWindow = 42, 500*time.Millisecond

	e.Resume()
	assert.Zero(t, tr.fpsFrames)
	assert.Zero(t, tr.fpsWindow)
}

func TestEngine_DebugStatsAreLogged(t *testing.T) {
	logger := &captureLogger{}
	cfg := headlessConfig(10, "")
	cfg.Logger = logger
	cfg.Debug = true
	e, _ := newHeadlessEngine(t, cfg)
	e.Start()

	tr, ok := Resource[Time](e.app)
	require.True(t, ok)
	// Pretend a full stats interval has elapsed.
	tr.fpsWindow = StatsInterval
	require.NoError(t, e.Step())

	assert.True(t, logger.has("FPS:"))
	assert.True(t, logger.has("submitted"))
}

type captureLogger struct {
	lines []string
	debug bool
}

func (l *captureLogger) DebugEnabled() bool { return l.debug }
func (l *captureLogger) SetDebug(enabled bool) { l.debug = enabled }
func (l *captureLogger) Debugf(format string, args ...any) {
	if l.debug {
		l.lines = append(l.lines, fmt.Sprintf(format, args...))
	}
}
func (l *captureLogger) Infof(format string, args ...any) { l.lines = append(l.lines, fmt.Sprintf(format, args...)) }
func (l *captureLogger) Warnf(format string, args ...any) { l.lines = append(l.lines, fmt.Sprintf(format, args...)) }
func (l *captureLogger) Errorf(format string, args ...any) { l.lines = append(l.lines, fmt.Sprintf(format, args...)) }

func (l *captureLogger) has(substr string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
