package glyphfield

import (
	"github.com/gekko3d/glyphfield/morphrt/rt/core"
)

// MorphState is the animation side of an engine: the point field, the
// render state driven by the animation driver, and the camera.
type MorphState struct {
	Render core.RenderState
	Driver core.DriverConfig
	Shader core.ShaderParams
	Camera *core.CameraState

	Field     *core.PointField
	Instances []core.ParticleInstance
	Targets   int

	// Drawable size in physical pixels.
	Width      int
	Height     int
	PixelRatio float32

	Uniforms core.Uniforms
}

// syncSurface copies the drawable size from s and updates the camera aspect.
func (m *MorphState) syncSurface(s RenderSurface) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	m.Width, m.Height = w, h
	m.PixelRatio = s.PixelRatio()
	m.Camera.SetAspect(w, h)
}

// MorphModule samples the text, generates the point field and schedules the
// per-frame driver, uniform and render systems. Config must be resolved.
type MorphModule struct {
	Config Config
}

func (mod MorphModule) Install(app *App, cmd *Commands) {
	cfg := mod.Config
	log := app.Logger()

	targets, err := core.SampleText(cfg.Text, cfg.Sampler)
	if err != nil {
		log.Warnf("Sampling %q failed, particles stay in chaos: %v", cfg.Text, err)
		targets = nil
	}

	field := core.GenerateField(cfg.Count, targets, cfg.Field)
	m := &MorphState{
		Driver:     cfg.Driver,
		Shader:     cfg.Shader,
		Camera:     core.NewCameraState(),
		Field:      field,
		Instances:  field.Instances(),
		Targets:    len(targets),
		Width:      cfg.Width,
		Height:     cfg.Height,
		PixelRatio: 1,
	}
	m.Camera.SetAspect(m.Width, m.Height)
	m.Uniforms = core.BuildUniforms(&m.Render, m.Camera, m.Width, m.Height, m.PixelRatio, m.Shader)
	cmd.AddResources(m)

	log.Infof("Generated %d particles from %d target points (preset %s)", field.Len(), len(targets), cfg.Preset)

	cmd.UseSystem(
		System(morphStepSystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
	cmd.UseSystem(
		System(morphUniformsSystem).
			InStage(PreRender).
			InState(OnExecute(StateRunning)),
	)
	cmd.UseSystem(
		System(morphRenderSystem).
			InStage(Render).
			InState(OnExecute(StateRunning)),
	)
	cmd.UseSystem(
		System(morphStatsSystem).
			InStage(PostRender).
			RunAlways(),
	)
}

func morphStepSystem(m *MorphState) {
	core.Step(&m.Render, m.Driver)
}

func morphUniformsSystem(m *MorphState) {
	m.Uniforms = core.BuildUniforms(&m.Render, m.Camera, m.Width, m.Height, m.PixelRatio, m.Shader)
}

// morphRenderSystem submits one frame. Errors skip the frame.
func morphRenderSystem(m *MorphState, target *RenderTarget, cmd *Commands) {
	if err := target.Surface.Submit(&m.Uniforms); err != nil {
		cmd.Logger().Errorf("Render %s: %v", target.Name, err)
	}
}

func morphStatsSystem(t *Time, m *MorphState, target *RenderTarget, cmd *Commands) {
	log := cmd.Logger()
	if !t.Sampled || !log.DebugEnabled() {
		return
	}
	log.Debugf("FPS: %.1f | State: %v | Phase: %v | Morph: %.3f | Time: %.2f",
		t.FPS, cmd.State(), m.Render.Phase(), m.Render.Morph, m.Render.Time)
	if stats := target.Surface.Stats(); stats != "" {
		log.Debugf("%s stats:\n%s", target.Name, stats)
	}
}
