package headless

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/resources"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

var (
	ErrUnknownModel   = errors.New("model handle is not uploaded")
	ErrUnknownTexture = errors.New("texture was not created")
	ErrEmptyGeometry  = errors.New("geometry has nothing to draw")
)

type DrawKind uint8

const (
	DrawBackground DrawKind = iota
	DrawPlane
	DrawModel
)

func (k DrawKind) String() string {
	switch k {
	case DrawBackground:
		return "background"
	case DrawPlane:
		return "plane"
	case DrawModel:
		return "model"
	}
	return fmt.Sprintf("draw(%d)", uint8(k))
}

// DrawCall is one recorded draw.
type DrawCall struct {
	Kind     DrawKind
	Texture  uint32
	Rotation tracking.DisplayRotation
	Vertices []math.Vec3
	MVP      math.Mat4
	Model    renderer.ModelHandle
}

/**
 * @brief A renderer that validates and records draw calls instead of
 * submitting them to a GPU. Used by the host shell when no graphics
 * context is available and by tests to observe what a frame drew.
 */
type Backend struct {
	mu sync.Mutex

	nextTexture uint32
	textures    map[uint32]struct{}
	nextModel   renderer.ModelHandle
	models      map[renderer.ModelHandle]*resources.Model
	released    int

	calls    []DrawCall
	failures map[DrawKind]error
}

func New() *Backend {
	return &Backend{
		textures: make(map[uint32]struct{}),
		models:   make(map[renderer.ModelHandle]*resources.Model),
		failures: make(map[DrawKind]error),
	}
}

func (b *Backend) CreateCameraTexture() (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextTexture++
	b.textures[b.nextTexture] = struct{}{}
	core.LogDebug("created camera texture %d", b.nextTexture)
	return b.nextTexture, nil
}

func (b *Backend) DrawBackground(texture uint32, rotation tracking.DisplayRotation) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(DrawBackground); err != nil {
		return err
	}
	if _, ok := b.textures[texture]; !ok {
		return fmt.Errorf("background texture %d: %w", texture, ErrUnknownTexture)
	}
	if !rotation.Valid() {
		return fmt.Errorf("invalid display rotation %d", rotation)
	}
	b.calls = append(b.calls, DrawCall{Kind: DrawBackground, Texture: texture, Rotation: rotation})
	return nil
}

func (b *Backend) DrawPlane(vertices []math.Vec3, mvp math.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(DrawPlane); err != nil {
		return err
	}
	if len(vertices) < 3 {
		return fmt.Errorf("plane fan with %d vertices: %w", len(vertices), ErrEmptyGeometry)
	}
	// the caller reuses its vertex buffer between planes
	b.calls = append(b.calls, DrawCall{Kind: DrawPlane, Vertices: slices.Clone(vertices), MVP: mvp})
	return nil
}

/**
 * @brief Checks the model is drawable and assigns it a handle. Every mesh
 * must hold whole triangles with in-range indices and reference an
 * existing texture.
 */
func (b *Backend) UploadModel(model *resources.Model) (renderer.ModelHandle, error) {
	if model == nil || len(model.Meshes) == 0 {
		return renderer.InvalidModelHandle, fmt.Errorf("model upload: %w", ErrEmptyGeometry)
	}
	for _, mesh := range model.Meshes {
		if len(mesh.Indices) == 0 || len(mesh.Indices)%3 != 0 {
			return renderer.InvalidModelHandle, fmt.Errorf("mesh %q has %d indices: %w", mesh.Name, len(mesh.Indices), ErrEmptyGeometry)
		}
		for _, idx := range mesh.Indices {
			if int(idx) >= len(mesh.Vertices) {
				return renderer.InvalidModelHandle, fmt.Errorf("mesh %q index %d out of range", mesh.Name, idx)
			}
		}
		if mesh.TextureIndex < 0 || mesh.TextureIndex >= len(model.Textures) {
			return renderer.InvalidModelHandle, fmt.Errorf("mesh %q texture %d: %w", mesh.Name, mesh.TextureIndex, ErrUnknownTexture)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextModel++
	b.models[b.nextModel] = model
	core.LogDebug("uploaded model %s as %d (%d vertices, %d indices)", model.Name, b.nextModel, model.VertexCount(), model.IndexCount())
	return b.nextModel, nil
}

func (b *Backend) DrawModel(handle renderer.ModelHandle, mvp math.Mat4) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(DrawModel); err != nil {
		return err
	}
	if _, ok := b.models[handle]; !ok {
		return fmt.Errorf("draw model %d: %w", handle, ErrUnknownModel)
	}
	b.calls = append(b.calls, DrawCall{Kind: DrawModel, Model: handle, MVP: mvp})
	return nil
}

func (b *Backend) ReleaseModel(handle renderer.ModelHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.models[handle]; !ok {
		core.LogWarn("releasing unknown model %d", handle)
		return
	}
	delete(b.models, handle)
	b.released++
}

// FailNext makes the next draw of the given kind return err.
func (b *Backend) FailNext(kind DrawKind, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[kind] = err
}

func (b *Backend) takeFailure(kind DrawKind) error {
	err, ok := b.failures[kind]
	if !ok {
		return nil
	}
	delete(b.failures, kind)
	return err
}

// Calls returns the draws recorded since the last Reset.
func (b *Backend) Calls() []DrawCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// Kinds returns the kinds of the recorded draws, in order.
func (b *Backend) Kinds() []DrawKind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]DrawKind, len(b.calls))
	for i, c := range b.calls {
		kinds[i] = c.Kind
	}
	return kinds
}

func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = b.calls[:0]
}

func (b *Backend) Model(handle renderer.ModelHandle) (*resources.Model, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.models[handle]
	return m, ok
}

// LiveModels is the number of uploaded models not yet released.
func (b *Backend) LiveModels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.models)
}

func (b *Backend) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}
