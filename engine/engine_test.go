package engine

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/placement"
	"github.com/spaghettifunk/anima-ar/engine/renderer/headless"
	"github.com/spaghettifunk/anima-ar/engine/systems"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
	"github.com/spaghettifunk/anima-ar/engine/tracking/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	screenWidth  = 1080
	screenHeight = 1920
)

const floorScene = `
[camera]
position = [0.0, 1.0, 1.0]
target = [0.0, 0.0, 0.0]

[[plane]]
id = "floor"
extent = [1.0, 1.0]
polygon = [-1.0, -1.0, 1.0, -1.0, 1.0, 1.0, -1.0, 1.0]
`

const triangleModel = `
[[mesh]]
name = "tri"
positions = [0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0.0]
indices = [0, 1, 2]
`

type mapSource map[string][]byte

func (s mapSource) Open(path string) ([]byte, error) {
	data, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return data, nil
}

type harness struct {
	engine  *Engine
	backend *headless.Backend
	events  map[core.SystemEventCode][]core.EventContext
}

func newHarness(t *testing.T, mutate ...func(*ApplicationConfig)) *harness {
	t.Helper()

	config := DefaultApplicationConfig()
	for _, m := range mutate {
		m(config)
	}
	parsed, err := replay.ParseScene([]byte(floorScene))
	require.NoError(t, err)
	svc := replay.New(parsed)
	factory := func(context.Context) (tracking.Service, error) { return svc, nil }

	backend := headless.New()
	e, err := New(config, factory, backend, mapSource{"models/tri.toml": []byte(triangleModel)})
	require.NoError(t, err)
	t.Cleanup(func() { e.Shutdown() })

	h := &harness{engine: e, backend: backend, events: map[core.SystemEventCode][]core.EventContext{}}
	for _, code := range []core.SystemEventCode{
		core.EVENT_CODE_MODEL_READY,
		core.EVENT_CODE_MODEL_FAILED,
		core.EVENT_CODE_OBJECT_PLACED,
		core.EVENT_CODE_OBJECT_CLEARED,
	} {
		require.True(t, e.Events().Register(code, h, h.record))
	}
	return h
}

func (h *harness) record(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	h.events[code] = append(h.events[code], data)
	return false
}

// start runs the host sequence up to the first drawable frame.
func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.engine.Initialize(context.Background()))
	require.NoError(t, h.engine.Resume())
	require.NoError(t, h.engine.OnSurfaceCreated())
}

func (h *harness) frame() FrameReport {
	return h.engine.OnDrawFrame(screenWidth, screenHeight, tracking.Rotation0)
}

// frameUntil draws frames until the model system leaves the loading states.
func (h *harness) frameUntil(t *testing.T, want systems.ModelLoadState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.frame()
		if h.engine.ModelState() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("model state is %s, want %s", h.engine.ModelState(), want)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	config := DefaultApplicationConfig()
	config.Input.QueueSize = 0
	_, err := New(config, replay.NewFactory("scene.toml", false), headless.New(), mapSource{})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = New(DefaultApplicationConfig(), replay.NewFactory("scene.toml", false), nil, mapSource{})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestStageTransitions(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.engine
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.ErrorIs(t, e.Resume(), ErrInvalidStage)

	assert.False(t, e.IsDepthSupported())
	require.NoError(t, e.Initialize(context.Background()))
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.ErrorIs(t, e.Initialize(context.Background()), ErrInvalidStage)
	assert.ErrorIs(t, e.Pause(), ErrInvalidStage)

	require.NoError(t, e.Resume())
	assert.Equal(t, EngineStageRunning, e.Stage())
	require.NoError(t, e.Pause())
	assert.Equal(t, "paused", e.Stage().String())
	require.NoError(t, e.Resume())

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageShuttingDown, e.Stage())
	require.NoError(t, e.Shutdown())
}

func TestDefaultCubeIsUploadedAfterSurface(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, h.engine.Initialize(context.Background()))
	require.NoError(t, h.engine.Resume())
	assert.Equal(t, systems.ModelNotLoaded, h.engine.ModelState(), "nothing loads before the surface exists")

	require.NoError(t, h.engine.OnSurfaceCreated())
	h.frameUntil(t, systems.ModelReady)

	assert.Equal(t, 1, h.backend.LiveModels())
	require.Len(t, h.events[core.EVENT_CODE_MODEL_READY], 1)
	assert.Equal(t, "cube", h.events[core.EVENT_CODE_MODEL_READY][0].Text)
}

func TestTapPlacesAndDrawsModel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)
	h.frameUntil(t, systems.ModelReady)

	require.NoError(t, h.engine.OnTouch(screenWidth/2, screenHeight/2))
	report := h.frame()

	assert.True(t, report.ModelDrawn)
	snap := h.engine.Placement()
	assert.Equal(t, placement.PhasePlaced, snap.Phase)
	require.Len(t, h.events[core.EVENT_CODE_OBJECT_PLACED], 1)
	assert.Equal(t, snap.AnchorID.String(), h.events[core.EVENT_CODE_OBJECT_PLACED][0].Text)
}

func TestTapThatMissesLeavesObjectUnplaced(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)

	require.NoError(t, h.engine.OnTouch(0, 0))
	report := h.frame()

	assert.False(t, report.ModelDrawn)
	assert.Equal(t, placement.PhaseUnplaced, h.engine.Placement().Phase)
	assert.Empty(t, h.events[core.EVENT_CODE_OBJECT_PLACED])
}

func TestGesturesApplyInOrder(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)

	// the rotate lands before the object exists and is dropped
	require.NoError(t, h.engine.OnRotate(90))
	require.NoError(t, h.engine.OnTouch(screenWidth/2, screenHeight/2))
	require.NoError(t, h.engine.OnScale(0.05))
	h.frame()

	snap := h.engine.Placement()
	assert.Zero(t, snap.RotationAngle)
	assert.InDelta(t, 0.1, snap.Scale, 1e-6)

	require.NoError(t, h.engine.OnRotate(90))
	require.NoError(t, h.engine.OnTranslate(0.2, 0, 0))
	h.frame()

	snap = h.engine.Placement()
	assert.InDelta(t, math.K_HALF_PI, snap.RotationAngle, 1e-5)
	assert.InDelta(t, 0, snap.TranslationOffset.Dot(snap.PlaneNormal), 1e-5)
	assert.Greater(t, snap.TranslationOffset.Length(), float32(0))
}

func TestClearRespectsConfig(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.engine.OnTouch(screenWidth/2, screenHeight/2))
	h.frame()
	require.NoError(t, h.engine.OnClear())
	h.frame()
	assert.Equal(t, placement.PhasePlaced, h.engine.Placement().Phase)
	assert.Empty(t, h.events[core.EVENT_CODE_OBJECT_CLEARED])

	h = newHarness(t, func(c *ApplicationConfig) { c.Placement.AllowClear = true })
	h.start(t)
	require.NoError(t, h.engine.OnTouch(screenWidth/2, screenHeight/2))
	h.frame()
	require.NoError(t, h.engine.OnClear())
	report := h.frame()
	assert.Equal(t, placement.PhaseUnplaced, h.engine.Placement().Phase)
	assert.Len(t, h.events[core.EVENT_CODE_OBJECT_CLEARED], 1)
	assert.False(t, report.ModelDrawn)
}

func TestFullGestureQueueDrops(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(c *ApplicationConfig) { c.Input.QueueSize = 2 })
	require.NoError(t, h.engine.OnRotate(1))
	require.NoError(t, h.engine.OnRotate(2))
	assert.ErrorIs(t, h.engine.OnRotate(3), core.ErrQueueFull)
	assert.Equal(t, uint64(1), h.engine.DroppedGestures())
}

func TestLoadModelFromAssets(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(c *ApplicationConfig) { c.ModelPath = "models/tri.toml" })
	h.start(t)
	h.frameUntil(t, systems.ModelReady)

	require.Len(t, h.events[core.EVENT_CODE_MODEL_READY], 1)
	assert.Equal(t, 1, h.backend.LiveModels())

	require.NoError(t, h.engine.LoadModel("models/missing.toml"))
	h.frameUntil(t, systems.ModelError)
	require.Len(t, h.events[core.EVENT_CODE_MODEL_FAILED], 1)
	assert.Contains(t, h.events[core.EVENT_CODE_MODEL_FAILED][0].Text, "missing.toml")
	assert.Equal(t, 1, h.backend.LiveModels(), "the previous model stays uploaded")
}

func TestFramesSkippedWhilePaused(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)
	require.NoError(t, h.engine.Pause())

	report := h.frame()
	assert.True(t, report.Skipped)
	assert.Error(t, report.Err)
	assert.Empty(t, h.backend.Calls())
}

func TestShutdownReleasesModel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.start(t)
	h.frameUntil(t, systems.ModelReady)
	require.Equal(t, 1, h.backend.LiveModels())

	require.NoError(t, h.engine.Shutdown())
	assert.Zero(t, h.backend.LiveModels())
	assert.Equal(t, 1, h.backend.Released())
}
