package compositor

import (
	"fmt"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/overlay"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

// Placement is the read side of the placed object.
type Placement interface {
	IsPlaced() bool
	ModelMatrix() math.Mat4
}

// ModelSource hands out the model to draw, uploading it first if needed.
type ModelSource interface {
	Sync(r renderer.Renderer) (renderer.ModelHandle, bool)
}

// FrameReport summarizes what one DrawFrame did.
type FrameReport struct {
	Number uint64
	// Set when nothing was drawn. Err holds the reason, if any.
	Skipped bool
	Err     error

	Background    bool
	PlanesDrawn   int
	PlanesIgnored int
	PlaneErrors   int
	ModelDrawn    bool
}

/**
 * @brief Draws one AR frame: camera background, the overlays of tracked
 * planes and the placed model. Every method runs on the render thread.
 */
type Compositor struct {
	session   *tracking.Session
	renderer  renderer.Renderer
	placement Placement
	models    ModelSource
	builder   *overlay.Builder

	onFrameAdvanced func(*tracking.FrameSnapshot)
	cameraTexture   uint32
}

func New(session *tracking.Session, r renderer.Renderer, placement Placement, models ModelSource) (*Compositor, error) {
	if r == nil || placement == nil {
		err := fmt.Errorf("compositor needs a renderer and a placement: %w", core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	return &Compositor{
		session:   session,
		renderer:  r,
		placement: placement,
		models:    models,
		builder:   overlay.NewBuilder(),
	}, nil
}

// OnFrameAdvanced registers a hook that runs after a successful frame
// advance and before anything is drawn.
func (c *Compositor) OnFrameAdvanced(fn func(*tracking.FrameSnapshot)) {
	c.onFrameAdvanced = fn
}

/**
 * @brief Creates the camera texture and hands it to the tracking session.
 * Called once the drawing surface exists.
 */
func (c *Compositor) SurfaceCreated() error {
	texture, err := c.renderer.CreateCameraTexture()
	if err != nil {
		return fmt.Errorf("failed to create camera texture: %w", err)
	}
	c.cameraTexture = texture
	if c.session != nil {
		c.session.SetCameraTexture(texture)
	}
	return nil
}

func (c *Compositor) CameraTexture() uint32 {
	return c.cameraTexture
}

/**
 * @brief Runs one frame. A failing step is logged and skipped; only a
 * failed frame advance prevents drawing altogether.
 *
 * @param width, height The surface size in pixels.
 * @param rotation The display rotation.
 * @return What was drawn.
 */
func (c *Compositor) DrawFrame(width, height int32, rotation tracking.DisplayRotation) FrameReport {
	if c.session == nil || !c.session.Ready() {
		return FrameReport{Skipped: true, Err: core.ErrSessionNotReady}
	}

	snap, err := c.session.AdvanceFrame(width, height, rotation)
	if err != nil {
		core.LogWarn("skipping frame: %s", err)
		return FrameReport{Skipped: true, Err: err}
	}
	report := FrameReport{Number: snap.Number}

	if c.onFrameAdvanced != nil {
		c.onFrameAdvanced(snap)
	}

	if err := c.renderer.DrawBackground(c.cameraTexture, rotation); err != nil {
		core.LogError("failed to draw camera background: %s", err)
	} else {
		report.Background = true
	}

	c.drawPlanes(snap, &report)
	c.drawModel(snap, &report)
	return report
}

func (c *Compositor) drawPlanes(snap *tracking.FrameSnapshot, report *FrameReport) {
	mvp := snap.ViewProjection()
	for plane := range c.session.EnumeratePlanes(snap) {
		if !plane.IsTracking() {
			report.PlanesIgnored++
			continue
		}
		vertices, err := c.builder.Build(plane)
		if err != nil {
			core.LogWarn("skipping plane: %s", err)
			report.PlaneErrors++
			continue
		}
		if len(vertices) == 0 {
			report.PlanesIgnored++
			continue
		}
		if err := c.renderer.DrawPlane(vertices, mvp); err != nil {
			core.LogError("failed to draw plane: %s", err)
			report.PlaneErrors++
			continue
		}
		report.PlanesDrawn++
	}
}

func (c *Compositor) drawModel(snap *tracking.FrameSnapshot, report *FrameReport) {
	if c.models == nil {
		return
	}
	handle, ok := c.models.Sync(c.renderer)
	if !ok || !c.placement.IsPlaced() {
		return
	}
	mvp := math.ComposeModelViewProjection(snap.Projection, snap.View, c.placement.ModelMatrix())
	if err := c.renderer.DrawModel(handle, mvp); err != nil {
		core.LogError("failed to draw model: %s", err)
		return
	}
	report.ModelDrawn = true
}
