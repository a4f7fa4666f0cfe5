package systems

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/resources"
)

var (
	ErrModelDecoder = errors.New("no decoder registered for model format")
	ErrEmptyModel   = errors.New("model has no drawable meshes")
)

// AssetSource serves raw file contents by path.
type AssetSource interface {
	Open(path string) ([]byte, error)
}

// ModelDecoder parses a model file into a scene graph.
type ModelDecoder func(name string, data []byte) (*resources.Scene, error)

type ModelLoadState uint8

const (
	ModelNotLoaded ModelLoadState = iota
	// Decoded on a worker, waiting for the render thread to upload it.
	ModelLoaded
	ModelReady
	ModelError
)

func (s ModelLoadState) String() string {
	switch s {
	case ModelNotLoaded:
		return "not-loaded"
	case ModelLoaded:
		return "loaded"
	case ModelReady:
		return "ready"
	case ModelError:
		return "error"
	}
	return fmt.Sprintf("model-state(%d)", uint8(s))
}

type ModelSystemConfig struct {
	/** @brief Rotate models whose vertical extent lies along Z so they stand on Y. */
	AutoUpAxis bool
	/** @brief Textures larger than this on either side are scaled down. Zero disables. */
	MaxTextureDimension uint32
}

/**
 * @brief Loads at most one model at a time. Decoding, flattening and texture
 * decoding run on the job system; the GPU upload happens in Sync, which
 * must be called on the render thread.
 */
type ModelSystem struct {
	config   ModelSystemConfig
	jobs     *JobSystem
	source   AssetSource
	decoders map[string]ModelDecoder

	mu         sync.Mutex
	state      ModelLoadState
	generation uint64
	pending    *resources.Model
	lastErr    error

	// render thread only
	current *resources.Model
	handle  renderer.ModelHandle
}

func NewModelSystem(config ModelSystemConfig, jobs *JobSystem, source AssetSource) (*ModelSystem, error) {
	if jobs == nil {
		err := fmt.Errorf("func NewModelSystem - a job system is required: %w", core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	ms := &ModelSystem{
		config:   config,
		jobs:     jobs,
		source:   source,
		decoders: make(map[string]ModelDecoder),
	}
	ms.RegisterDecoder(".toml", resources.DecodeTOMLScene)
	return ms, nil
}

// RegisterDecoder binds a decoder to a file extension such as ".toml".
func (ms *ModelSystem) RegisterDecoder(ext string, decoder ModelDecoder) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.decoders[strings.ToLower(ext)] = decoder
}

/**
 * @brief Queues the model at path for loading. A later Load or LoadScene
 * supersedes this one even if it is still running.
 */
func (ms *ModelSystem) Load(path string) error {
	if ms.source == nil {
		return fmt.Errorf("cannot load %s without an asset source: %w", path, core.ErrInvalidConfig)
	}
	ext := strings.ToLower(filepath.Ext(path))
	ms.mu.Lock()
	decoder, ok := ms.decoders[ext]
	ms.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrModelDecoder, ext)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ms.submit("load "+path, func() (*resources.Model, error) {
		data, err := ms.source.Open(path)
		if err != nil {
			return nil, err
		}
		scene, err := decoder(name, data)
		if err != nil {
			return nil, err
		}
		return ms.BuildModel(scene)
	})
}

// LoadScene queues an already decoded scene.
func (ms *ModelSystem) LoadScene(scene *resources.Scene) error {
	if scene == nil {
		return ErrEmptyModel
	}
	return ms.submit("load scene "+scene.Name, func() (*resources.Model, error) {
		return ms.BuildModel(scene)
	})
}

func (ms *ModelSystem) submit(name string, build func() (*resources.Model, error)) error {
	ms.mu.Lock()
	ms.generation++
	gen := ms.generation
	ms.state = ModelNotLoaded
	ms.pending = nil
	ms.lastErr = nil
	ms.mu.Unlock()

	var model *resources.Model
	return ms.jobs.Submit(Job{
		Name: name,
		Run: func() error {
			var err error
			model, err = build()
			return err
		},
		OnComplete: func() {
			ms.mu.Lock()
			defer ms.mu.Unlock()
			if gen != ms.generation {
				core.LogDebug("dropping superseded model %s", model.Name)
				return
			}
			ms.pending = model
			ms.state = ModelLoaded
		},
		OnFailure: func(err error) {
			ms.mu.Lock()
			defer ms.mu.Unlock()
			if gen != ms.generation {
				return
			}
			ms.state = ModelError
			ms.lastErr = err
		},
	})
}

func (ms *ModelSystem) State() ModelLoadState {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.state
}

// Err is the error of the last failed load, if any.
func (ms *ModelSystem) Err() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.lastErr
}

/**
 * @brief Uploads a freshly loaded model and releases the one it replaces.
 * Render thread only. When the upload fails the previous model stays.
 *
 * @return The handle to draw, and whether there is anything to draw.
 */
func (ms *ModelSystem) Sync(r renderer.Renderer) (renderer.ModelHandle, bool) {
	ms.mu.Lock()
	pending := ms.pending
	if ms.state == ModelLoaded {
		ms.pending = nil
	} else {
		pending = nil
	}
	ms.mu.Unlock()

	if pending != nil {
		handle, err := r.UploadModel(pending)
		ms.mu.Lock()
		if err != nil {
			core.LogError("failed to upload model %s: %s", pending.Name, err)
			ms.state = ModelError
			ms.lastErr = err
		} else {
			ms.state = ModelReady
		}
		ms.mu.Unlock()

		if err == nil {
			if ms.handle != renderer.InvalidModelHandle {
				r.ReleaseModel(ms.handle)
			}
			ms.handle = handle
			ms.current = pending
			core.LogInfo("model %s ready: %d meshes, %d vertices", pending.Name, len(pending.Meshes), pending.VertexCount())
		}
	}
	return ms.handle, ms.handle != renderer.InvalidModelHandle
}

// Current is the model behind the handle Sync last returned. Render thread only.
func (ms *ModelSystem) Current() *resources.Model {
	return ms.current
}

// Release frees the uploaded model. Render thread only.
func (ms *ModelSystem) Release(r renderer.Renderer) {
	if ms.handle == renderer.InvalidModelHandle {
		return
	}
	r.ReleaseModel(ms.handle)
	ms.handle = renderer.InvalidModelHandle
	ms.current = nil
}

/**
 * @brief Turns a scene graph into model-space meshes: node transforms are
 * baked into the vertices, missing normals are generated, textures are
 * decoded and bounds are computed. Z-up models are rotated to Y-up when
 * the configuration asks for it.
 */
func (ms *ModelSystem) BuildModel(scene *resources.Scene) (*resources.Model, error) {
	flat := resources.Flatten(scene)
	if len(flat) == 0 {
		return nil, fmt.Errorf("%s: %w", scene.Name, ErrEmptyModel)
	}

	model := &resources.Model{
		ID:       uuid.New(),
		Name:     scene.Name,
		Textures: []*resources.Texture{NewDefaultTexture(DEFAULT_TEXTURE_DIMENSION)},
		Bounds:   math.NewExtents3DEmpty(),
	}
	textures := newTextureResolver(ms, scene, model)

	for _, f := range flat {
		if len(f.Mesh.Positions) == 0 || len(f.Mesh.Indices) == 0 {
			core.LogWarn("skipping empty mesh %q", f.Mesh.Name)
			continue
		}
		mesh := resources.ModelMesh{
			Name:         f.Mesh.Name,
			Vertices:     make([]math.Vertex3D, len(f.Mesh.Positions)),
			Indices:      append([]uint32(nil), f.Mesh.Indices...),
			TextureIndex: textures.resolve(f.Mesh.MaterialIndex),
		}
		normalMatrix := math.NewMat4Transposed(f.Transform.Inverse())
		for i, p := range f.Mesh.Positions {
			v := &mesh.Vertices[i]
			v.Position = math.TransformPoint(f.Transform, p)
			if i < len(f.Mesh.Normals) {
				v.Normal = math.TransformDirection(normalMatrix, f.Mesh.Normals[i]).Normalized()
			}
			if i < len(f.Mesh.TexCoords) {
				v.Texcoord = f.Mesh.TexCoords[i]
			}
		}
		if len(f.Mesh.Normals) != len(f.Mesh.Positions) {
			math.GeometryGenerateNormals(mesh.Vertices, mesh.Indices)
		}
		for _, v := range mesh.Vertices {
			model.Bounds = model.Bounds.Expand(v.Position)
		}
		model.Meshes = append(model.Meshes, mesh)
	}
	if len(model.Meshes) == 0 {
		return nil, fmt.Errorf("%s: %w", scene.Name, ErrEmptyModel)
	}

	model.SourceUpAxis = detectUpAxis(model.Bounds.Size())
	if ms.config.AutoUpAxis && model.SourceUpAxis == resources.UpAxisZ {
		correctUpAxis(model)
	}
	return model, nil
}

/**
 * @brief Guesses the up axis from the bounding box. A model is Z-up only when
 * Z is strictly its longest extent. Comparing Z against Y alone would also
 * flag every wide, flat Y-up model (a rug, a table top) and stand it on its
 * edge, so X is checked too. Models that are taller along Z than along Y but
 * wider still along X therefore keep their orientation.
 */
func detectUpAxis(size math.Vec3) resources.UpAxis {
	if size.Z > size.Y && size.Z > size.X {
		return resources.UpAxisZ
	}
	return resources.UpAxisY
}

/**
 * @brief Rotates -90 degrees around X, taking +Z to +Y. Runs by default
 * (model.auto_up_axis) on models detectUpAxis reports as Z-up; turn the
 * option off to keep the orientation a model was authored in.
 */
func correctUpAxis(model *resources.Model) {
	rotation := math.NewMat4EulerX(-math.K_HALF_PI)
	model.Bounds = math.NewExtents3DEmpty()
	for m := range model.Meshes {
		for i := range model.Meshes[m].Vertices {
			v := &model.Meshes[m].Vertices[i]
			v.Position = math.TransformPoint(rotation, v.Position)
			v.Normal = math.TransformDirection(rotation, v.Normal)
			model.Bounds = model.Bounds.Expand(v.Position)
		}
	}
	core.LogDebug("rotated Z-up model %s to Y-up", model.Name)
}

// textureResolver decodes each referenced texture once and maps materials to
// indices into Model.Textures. Index 0 is the default texture.
type textureResolver struct {
	ms     *ModelSystem
	scene  *resources.Scene
	model  *resources.Model
	byName map[string]int
}

func newTextureResolver(ms *ModelSystem, scene *resources.Scene, model *resources.Model) *textureResolver {
	return &textureResolver{ms: ms, scene: scene, model: model, byName: make(map[string]int)}
}

func (tr *textureResolver) resolve(materialIndex int) int {
	if materialIndex < 0 || materialIndex >= len(tr.scene.Materials) {
		return 0
	}
	ref := tr.scene.Materials[materialIndex].DiffuseTexture
	if ref == "" {
		return 0
	}
	if idx, ok := tr.byName[ref]; ok {
		return idx
	}

	texture, err := tr.load(ref)
	if err != nil {
		core.LogWarn("using the default texture for %q: %s", ref, err)
		tr.byName[ref] = 0
		return 0
	}
	tr.model.Textures = append(tr.model.Textures, texture)
	idx := len(tr.model.Textures) - 1
	tr.byName[ref] = idx
	return idx
}

func (tr *textureResolver) load(ref string) (*resources.Texture, error) {
	maxDim := tr.ms.config.MaxTextureDimension
	if embedded, ok := strings.CutPrefix(ref, "*"); ok {
		i, err := strconv.Atoi(embedded)
		if err != nil || i < 0 || i >= len(tr.scene.Textures) {
			return nil, fmt.Errorf("no embedded texture %s", ref)
		}
		return DecodeTexture(tr.scene.Textures[i], maxDim)
	}
	if tr.ms.source == nil {
		return nil, fmt.Errorf("no asset source for %s", ref)
	}
	data, err := tr.ms.source.Open(ref)
	if err != nil {
		return nil, err
	}
	return DecodeImage(ref, data, maxDim)
}
