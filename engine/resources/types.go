package resources

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-ar/engine/math"
)

/**
 * @brief The output of a model importer: a node hierarchy referencing
 * meshes, materials and textures by index.
 */
type Scene struct {
	/** @brief The name of the scene, usually the file name. */
	Name string
	/** @brief The root of the node hierarchy. May be nil for an empty scene. */
	Root      *Node
	Meshes    []*Mesh
	Materials []Material
	/** @brief Textures stored inside the model file, referenced as "*<index>". */
	Textures []EmbeddedTexture
}

/**
 * @brief A node in the scene hierarchy. Transform is relative to the parent.
 */
type Node struct {
	Name        string
	Transform   math.Mat4
	MeshIndices []int
	Children    []*Node
}

/**
 * @brief Raw mesh data as produced by the importer.
 */
type Mesh struct {
	Name      string
	Positions []math.Vec3
	/** @brief Optional. Flat normals are generated when missing. */
	Normals []math.Vec3
	/** @brief Optional. Zero coordinates are used when missing. */
	TexCoords     []math.Vec2
	Indices       []uint32
	MaterialIndex int
}

type Material struct {
	Name string
	/** @brief Either an embedded reference ("*0") or a path. Empty means untextured. */
	DiffuseTexture string
}

/**
 * @brief A texture stored inside a model file. Compressed textures hold an
 * encoded image (png, jpeg, bmp, tiff, webp) and their Width and Height are
 * ignored; the others hold exactly Width*Height RGBA texels.
 */
type EmbeddedTexture struct {
	Name          string
	Width, Height uint32
	Compressed    bool
	Data          []byte
}

/**
 * @brief Decoded texture pixels, always 4 channels RGBA.
 */
type Texture struct {
	Name         string
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8
}

/**
 * @brief A mesh in model space, ready to be uploaded.
 */
type ModelMesh struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
	/** @brief Index into Model.Textures. */
	TextureIndex int
}

type UpAxis uint8

const (
	UpAxisY UpAxis = iota
	UpAxisZ
)

/**
 * @brief A scene flattened into model space with decoded textures. This is
 * what the renderer uploads.
 */
type Model struct {
	ID       uuid.UUID
	Name     string
	Meshes   []ModelMesh
	Textures []*Texture
	/** @brief Bounds after any up-axis correction. */
	Bounds math.Extents3D
	/** @brief The up axis detected before correction. */
	SourceUpAxis UpAxis
}

func (m *Model) VertexCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Vertices)
	}
	return n
}

func (m *Model) IndexCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Indices)
	}
	return n
}
