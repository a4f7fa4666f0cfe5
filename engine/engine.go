package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-ar/engine/compositor"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/input"
	"github.com/spaghettifunk/anima-ar/engine/placement"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/resources"
	"github.com/spaghettifunk/anima-ar/engine/systems"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// The tracking session exists but is not running
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// The host went to the background
	EngineStagePaused
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStagePaused:
		return "paused"
	case EngineStageShuttingDown:
		return "shutting-down"
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

var ErrInvalidStage = errors.New("operation not allowed in the current engine stage")

type FrameReport = compositor.FrameReport

// pendingModel is a load requested before the drawing surface existed.
type pendingModel struct {
	path  string
	scene *resources.Scene
}

/**
 * @brief The handle a host holds on the AR engine. Lifecycle methods
 * (Initialize, Resume, Pause, Shutdown) run on the lifecycle thread;
 * OnSurfaceCreated and OnDrawFrame on the render thread. Gesture methods
 * may be called from any goroutine.
 */
type Engine struct {
	config *ApplicationConfig

	mu           sync.Mutex
	currentStage Stage
	surfaceReady bool
	pending      *pendingModel

	session    *tracking.Session
	renderer   renderer.Renderer
	jobs       *systems.JobSystem
	models     *systems.ModelSystem
	placement  *placement.State
	gestures   *input.Queue
	compositor *compositor.Compositor
	events     *core.EventBus

	// render thread only
	clock      *core.Clock
	metrics    *core.Metrics
	lastTime   float64
	modelState systems.ModelLoadState
}

func New(config *ApplicationConfig, factory tracking.ServiceFactory, r renderer.Renderer, assets systems.AssetSource) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if err := config.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	session, err := tracking.NewSession(config.SessionConfig(), factory)
	if err != nil {
		return nil, err
	}
	state, err := placement.New(config.PlacementConfig())
	if err != nil {
		return nil, err
	}
	gestures, err := input.NewQueue(config.Input.QueueSize)
	if err != nil {
		return nil, err
	}
	js, err := systems.NewJobSystem(config.Jobs.Workers, config.Jobs.QueueSize)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	ms, err := systems.NewModelSystem(config.ModelSystemConfig(), js, assets)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	comp, err := compositor.New(session, r, state, ms)
	if err != nil {
		js.Shutdown()
		return nil, err
	}

	e := &Engine{
		config:       config,
		currentStage: EngineStageUninitialized,
		session:      session,
		renderer:     r,
		jobs:         js,
		models:       ms,
		placement:    state,
		gestures:     gestures,
		compositor:   comp,
		events:       core.NewEventBus(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
	}
	comp.OnFrameAdvanced(e.applyGestures)
	return e, nil
}

/**
 * @brief Creates the tracking session and queues the start-up model.
 */
func (e *Engine) Initialize(ctx context.Context) error {
	if stage := e.Stage(); stage != EngineStageUninitialized {
		return fmt.Errorf("initialize in stage %s: %w", stage, ErrInvalidStage)
	}
	if err := e.session.Initialize(ctx); err != nil {
		core.LogError("failed to create the tracking session: %s", err)
		return err
	}
	e.setStage(EngineStageInitialized)

	if e.config.ModelPath != "" {
		return e.LoadModel(e.config.ModelPath)
	}
	return e.LoadScene(resources.NewCubeScene("cube", 1, 1, 1))
}

func (e *Engine) Resume() error {
	switch e.Stage() {
	case EngineStageInitialized, EngineStagePaused:
	default:
		return fmt.Errorf("resume in stage %s: %w", e.Stage(), ErrInvalidStage)
	}
	if err := e.session.Resume(); err != nil {
		return err
	}
	e.setStage(EngineStageRunning)
	return nil
}

func (e *Engine) Pause() error {
	if stage := e.Stage(); stage != EngineStageRunning {
		return fmt.Errorf("pause in stage %s: %w", stage, ErrInvalidStage)
	}
	if err := e.session.Pause(); err != nil {
		return err
	}
	e.setStage(EngineStagePaused)
	return nil
}

/**
 * @brief Sets up GPU resources once the drawing surface exists and runs the
 * model load requested before it did.
 */
func (e *Engine) OnSurfaceCreated() error {
	if err := e.compositor.SurfaceCreated(); err != nil {
		core.LogError(err.Error())
		return err
	}

	e.mu.Lock()
	e.surfaceReady = true
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	e.clock.Start()
	e.lastTime = 0

	if pending == nil {
		return nil
	}
	if pending.scene != nil {
		return e.models.LoadScene(pending.scene)
	}
	return e.models.Load(pending.path)
}

/**
 * @brief Draws one frame. Gestures queued since the previous frame are
 * applied right after tracking advances, before anything is drawn.
 */
func (e *Engine) OnDrawFrame(width, height int32, rotation tracking.DisplayRotation) FrameReport {
	report := e.compositor.DrawFrame(width, height, rotation)
	e.trackModelState()

	e.clock.Update()
	now := e.clock.Elapsed()
	if e.metrics.Update(now - e.lastTime) {
		core.LogDebug("%.1f fps, %.2f ms/frame", e.metrics.FPS(), e.metrics.FrameTime())
	}
	e.lastTime = now
	return report
}

// trackModelState fires model events when the load state changes.
func (e *Engine) trackModelState() {
	state := e.models.State()
	if state == e.modelState {
		return
	}
	e.modelState = state
	switch state {
	case systems.ModelReady:
		name := ""
		if m := e.models.Current(); m != nil {
			name = m.Name
		}
		e.events.Fire(core.EVENT_CODE_MODEL_READY, e, core.EventContext{Text: name})
	case systems.ModelError:
		reason := ""
		if err := e.models.Err(); err != nil {
			reason = err.Error()
		}
		e.events.Fire(core.EVENT_CODE_MODEL_FAILED, e, core.EventContext{Text: reason})
	}
}

func (e *Engine) applyGestures(snap *tracking.FrameSnapshot) {
	e.gestures.Drain(func(g input.Gesture) {
		e.applyGesture(snap, g)
	})
}

func (e *Engine) applyGesture(snap *tracking.FrameSnapshot, g input.Gesture) {
	switch g.Kind {
	case input.KindTap:
		hit, ok := e.session.HitTest(snap, g.X, g.Y)
		if !ok {
			core.LogDebug("tap at %.0f,%.0f hit nothing", g.X, g.Y)
			return
		}
		if !e.placement.Place(hit) {
			return
		}
		placed := e.placement.Snapshot()
		pos := placed.AnchorPose.Position()
		e.events.Fire(core.EVENT_CODE_OBJECT_PLACED, e, core.EventContext{
			F32:  [4]float32{pos.X, pos.Y, pos.Z},
			Text: placed.AnchorID.String(),
		})
	case input.KindRotate:
		e.placement.Rotate(g.Degrees)
	case input.KindScale:
		e.placement.Scale(g.Delta)
	case input.KindTranslate:
		e.placement.Translate(g.Translation.X, g.Translation.Y, g.Translation.Z, snap.View)
	case input.KindClear:
		if err := e.placement.Clear(); err != nil {
			core.LogWarn("ignoring clear: %s", err)
			return
		}
		e.events.Fire(core.EVENT_CODE_OBJECT_CLEARED, e, core.EventContext{})
	}
}

func (e *Engine) push(g input.Gesture) error {
	if err := e.gestures.Push(g); err != nil {
		core.LogWarn("dropping %s gesture: %s", g.Kind, err)
		return err
	}
	return nil
}

// OnTouch requests a placement at the screen point (x, y) in pixels.
func (e *Engine) OnTouch(x, y float32) error {
	return e.push(input.Tap(x, y))
}

func (e *Engine) OnRotate(degrees float32) error {
	return e.push(input.Rotate(degrees))
}

func (e *Engine) OnScale(delta float32) error {
	return e.push(input.Scale(delta))
}

// OnTranslate moves the object by a camera-space delta, kept on its plane.
func (e *Engine) OnTranslate(dx, dy, dz float32) error {
	return e.push(input.Translate(dx, dy, dz))
}

func (e *Engine) OnClear() error {
	return e.push(input.Clear())
}

/**
 * @brief Loads a model from the asset source. Requests made before the
 * surface exists are held and run by OnSurfaceCreated; only the latest
 * request is kept.
 */
func (e *Engine) LoadModel(path string) error {
	e.mu.Lock()
	if !e.surfaceReady {
		e.pending = &pendingModel{path: path}
		e.mu.Unlock()
		core.LogDebug("holding model %s until the surface exists", path)
		return nil
	}
	e.mu.Unlock()
	return e.models.Load(path)
}

func (e *Engine) LoadScene(scene *resources.Scene) error {
	if scene == nil {
		return systems.ErrEmptyModel
	}
	e.mu.Lock()
	if !e.surfaceReady {
		e.pending = &pendingModel{scene: scene}
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()
	return e.models.LoadScene(scene)
}

func (e *Engine) IsDepthSupported() bool {
	return e.session.IsDepthSupported()
}

func (e *Engine) ModelState() systems.ModelLoadState {
	return e.models.State()
}

// Placement returns a copy of the placement. Render thread only.
func (e *Engine) Placement() placement.Snapshot {
	return e.placement.Snapshot()
}

func (e *Engine) Events() *core.EventBus {
	return e.events
}

// DroppedGestures counts gestures lost to a full queue.
func (e *Engine) DroppedGestures() uint64 {
	return e.gestures.Dropped()
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

func (e *Engine) setStage(stage Stage) {
	e.mu.Lock()
	e.currentStage = stage
	e.mu.Unlock()
	core.LogInfo("engine %s", stage)
	e.events.Fire(core.EVENT_CODE_STAGE_CHANGED, e, core.EventContext{U32: [4]uint32{uint32(stage)}})
}

/**
 * @brief Stops background work, frees the uploaded model and closes the
 * tracking session. Safe to call more than once.
 */
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.currentStage == EngineStageShuttingDown {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()
	e.setStage(EngineStageShuttingDown)

	var errs []error
	if err := e.jobs.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.models.Release(e.renderer)
	if err := e.session.Close(); err != nil {
		errs = append(errs, err)
	}
	e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
	if err := e.events.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
