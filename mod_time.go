package glyphfield

import (
	"time"
)

// Time tracks wall-clock frame timing. It does not drive the animation,
// which advances by a fixed step per running frame.
type Time struct {
	Time   time.Time
	Dt     time.Duration
	Frames uint64
	FPS    float64

	// Sampled is true on frames where FPS was just recomputed.
	Sampled bool

	fpsFrames int
	fpsWindow time.Duration
}

// StatsInterval is how often FPS is recomputed.
const StatsInterval = time.Second

type TimeModule struct {
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})
	cmd.UseSystem(
		System(timeSystem).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	timeResource.Sampled = timeResource.advance(time.Now())
}

// advance records a frame at now and reports whether a new FPS sample was taken.
func (t *Time) advance(now time.Time) bool {
	t.Dt = now.Sub(t.Time)
	t.Time = now
	t.Frames++

	t.fpsFrames++
	t.fpsWindow += t.Dt
	if t.fpsWindow < StatsInterval {
		return false
	}
	t.FPS = float64(t.fpsFrames) / t.fpsWindow.Seconds()
	t.fpsFrames = 0
	t.fpsWindow = 0
	return true
}

// resetSample drops the partial FPS window so idle frames do not skew the
// next sample.
func (t *Time) resetSample() {
	t.fpsFrames = 0
	t.fpsWindow = 0
}
