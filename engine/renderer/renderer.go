package renderer

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/resources"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

// ModelHandle identifies a model uploaded to the renderer.
type ModelHandle uint32

const InvalidModelHandle ModelHandle = 0

/**
 * @brief The draw surface the compositor talks to. All methods are called
 * on the render thread, the one owning the graphics context.
 */
type Renderer interface {
	/** @brief Creates the external texture the camera image is streamed into. */
	CreateCameraTexture() (uint32, error)
	/** @brief Draws the camera image full screen, rotated to match the display. */
	DrawBackground(texture uint32, rotation tracking.DisplayRotation) error
	/** @brief Draws a triangle fan of world-space vertices with the given mvp. */
	DrawPlane(vertices []math.Vec3, mvp math.Mat4) error
	/** @brief Uploads vertex, index and texture data. */
	UploadModel(model *resources.Model) (ModelHandle, error)
	DrawModel(handle ModelHandle, mvp math.Mat4) error
	ReleaseModel(handle ModelHandle)
}

type RendererType uint8

const (
	Headless RendererType = iota
	OpenGL
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case Headless:
		return "headless"
	case OpenGL:
		return "opengl"
	case Vulkan:
		return "vulkan"
	}
	return fmt.Sprintf("renderer(%d)", uint8(t))
}

func ParseRendererType(s string) (RendererType, error) {
	switch strings.ToLower(s) {
	case "", "headless":
		return Headless, nil
	case "opengl":
		return OpenGL, nil
	case "vulkan":
		return Vulkan, nil
	}
	return Headless, fmt.Errorf("unknown renderer %q: %w", s, core.ErrInvalidConfig)
}
