package glyphfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderModule records its install position and registers one resource.
type orderModule struct {
	name  string
	order *[]string
}

type orderMarker struct{ installedBy string }

func (m orderModule) Install(app *App, cmd *Commands) {
	*m.order = append(*m.order, m.name)
	if _, ok := Resource[orderMarker](app); !ok {
		cmd.AddResources(&orderMarker{installedBy: m.name})
	}
}

func TestAppBuilder_StateRange(t *testing.T) {
	tests := []struct {
		name           string
		states         []State
		stateful       bool
		initial        State
		final          State
		statesPerStage int
	}{
		{"stateless", nil, false, 0, 0, 0},
		{"engine states", []State{StateLoading, StateDestroyed}, true, StateLoading, StateDestroyed, 4},
		{"single state", []State{3, 3}, true, 3, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewAppBuilder()
			if tt.states != nil {
				b.UseStates(tt.states[0], tt.states[1])
			}
			app := b.Build()

			assert.Equal(t, tt.stateful, app.stateful)
			assert.Equal(t, tt.initial, app.initialState)
			assert.Equal(t, tt.final, app.finalState)
			require.Len(t, app.stages, len(defaultStages))
			for _, stage := range defaultStages {
				assert.Contains(t, app.systemsStateless, stage.Name)
				assert.Len(t, app.systems[stage.Name], tt.statesPerStage, "stage %s", stage.Name)
			}
		})
	}
}

func TestAppBuilder_InstallsModulesInOrder(t *testing.T) {
	var order []string
	b := NewAppBuilder().
		UseModule(orderModule{name: "time", order: &order}).
		UseModule(orderModule{name: "morph", order: &order}, orderModule{name: "renderer", order: &order})
	assert.Empty(t, order, "nothing installs before Build")

	app := b.Build()
	assert.Equal(t, []string{"time", "morph", "renderer"}, order)

	// Later modules see what earlier ones registered.
	marker, ok := Resource[orderMarker](app)
	require.True(t, ok)
	assert.Equal(t, "time", marker.installedBy)
}

func TestAppBuilder_InstallPanicSurfaces(t *testing.T) {
	b := NewAppBuilder().UseModule(panicModule{})
	assert.PanicsWithValue(t, "no adapter", func() { b.Build() })
}

type panicModule struct{}

func (panicModule) Install(*App, *Commands) { panic("no adapter") }

func TestAppBuilder_UseLogger(t *testing.T) {
	logger := &captureLogger{}
	app := NewAppBuilder().UseLogger(logger).Build()
	assert.Same(t, logger, app.Logger())

	app.Commands().Logger().Infof("hello %d", 1)
	assert.True(t, logger.has("hello 1"))
}
