package resources

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-ar/engine/math"
)

var ErrInvalidScene = errors.New("invalid scene description")

// tomlScene is a small text model format used for fixtures and demo content:
//
//	[[mesh]]
//	name = "tri"
//	positions = [0.0, 0.0, 0.0, 1.0, 0.0, 0.0, 0.0, 1.0, 0.0]
//	indices = [0, 1, 2]
//
//	[[node]]
//	name = "root"
//	meshes = [0]
type tomlScene struct {
	Meshes    []tomlMesh     `toml:"mesh"`
	Materials []tomlMaterial `toml:"material"`
	Textures  []tomlTexture  `toml:"texture"`
	Nodes     []tomlNode     `toml:"node"`
}

type tomlMesh struct {
	Name      string    `toml:"name"`
	Positions []float32 `toml:"positions"`
	Normals   []float32 `toml:"normals"`
	TexCoords []float32 `toml:"texcoords"`
	Indices   []uint32  `toml:"indices"`
	Material  int       `toml:"material"`
}

type tomlMaterial struct {
	Name    string `toml:"name"`
	Diffuse string `toml:"diffuse"`
}

// tomlTexture is raw RGBA when height is set, an encoded image otherwise.
type tomlTexture struct {
	Name       string `toml:"name"`
	Width      uint32 `toml:"width"`
	Height     uint32 `toml:"height"`
	DataBase64 string `toml:"data_base64"`
}

type tomlNode struct {
	Name string `toml:"name"`
	// Index of the parent node; nodes without a parent hang off the root.
	Parent          *int       `toml:"parent"`
	Meshes          []int      `toml:"meshes"`
	Translation     [3]float32 `toml:"translation"`
	RotationAxis    [3]float32 `toml:"rotation_axis"`
	RotationDegrees float32    `toml:"rotation_degrees"`
	Scale           *float32   `toml:"scale"`
}

func (n tomlNode) transform() math.Mat4 {
	t := math.NewMat4Translation(math.NewVec3(n.Translation[0], n.Translation[1], n.Translation[2]))
	axis := math.NewVec3(n.RotationAxis[0], n.RotationAxis[1], n.RotationAxis[2])
	t = t.Mul(math.NewMat4Rotation(math.DegToRad(n.RotationDegrees), axis))
	if n.Scale != nil {
		t = t.Mul(math.NewMat4UniformScale(*n.Scale))
	}
	return t
}

/**
 * @brief Decodes the TOML model format into a Scene.
 *
 * @param name The scene name.
 * @param data The TOML document.
 * @return The scene, or an error wrapping ErrInvalidScene.
 */
func DecodeTOMLScene(name string, data []byte) (*Scene, error) {
	var doc tomlScene
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}

	scene := &Scene{Name: name}
	for i, m := range doc.Meshes {
		mesh, err := m.toMesh()
		if err != nil {
			return nil, fmt.Errorf("%w: mesh %d: %s", ErrInvalidScene, i, err)
		}
		scene.Meshes = append(scene.Meshes, mesh)
	}
	for _, m := range doc.Materials {
		scene.Materials = append(scene.Materials, Material{Name: m.Name, DiffuseTexture: m.Diffuse})
	}
	for i, t := range doc.Textures {
		raw, err := base64.StdEncoding.DecodeString(t.DataBase64)
		if err != nil {
			return nil, fmt.Errorf("%w: texture %d: %w", ErrInvalidScene, i, err)
		}
		scene.Textures = append(scene.Textures, EmbeddedTexture{
			Name:       t.Name,
			Width:      t.Width,
			Height:     t.Height,
			Compressed: t.Height == 0,
			Data:       raw,
		})
	}

	root, err := buildHierarchy(name, doc.Nodes, len(scene.Meshes))
	if err != nil {
		return nil, err
	}
	scene.Root = root
	return scene, nil
}

func (m tomlMesh) toMesh() (*Mesh, error) {
	if len(m.Positions)%3 != 0 {
		return nil, fmt.Errorf("positions length %d is not a multiple of 3", len(m.Positions))
	}
	count := len(m.Positions) / 3
	if len(m.Normals) != 0 && len(m.Normals) != len(m.Positions) {
		return nil, fmt.Errorf("expected %d normal floats, got %d", len(m.Positions), len(m.Normals))
	}
	if len(m.TexCoords) != 0 && len(m.TexCoords) != count*2 {
		return nil, fmt.Errorf("expected %d texcoord floats, got %d", count*2, len(m.TexCoords))
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("indices length %d is not a multiple of 3", len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= count {
			return nil, fmt.Errorf("index %d out of range for %d vertices", idx, count)
		}
	}

	mesh := &Mesh{Name: m.Name, Indices: m.Indices, MaterialIndex: m.Material}
	for i := 0; i < count; i++ {
		mesh.Positions = append(mesh.Positions, math.NewVec3(m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]))
		if len(m.Normals) != 0 {
			mesh.Normals = append(mesh.Normals, math.NewVec3(m.Normals[3*i], m.Normals[3*i+1], m.Normals[3*i+2]))
		}
		if len(m.TexCoords) != 0 {
			mesh.TexCoords = append(mesh.TexCoords, math.NewVec2(m.TexCoords[2*i], m.TexCoords[2*i+1]))
		}
	}
	return mesh, nil
}

func buildHierarchy(name string, nodes []tomlNode, meshCount int) (*Node, error) {
	root := &Node{Name: name, Transform: math.NewMat4Identity()}
	if len(nodes) == 0 {
		for i := 0; i < meshCount; i++ {
			root.MeshIndices = append(root.MeshIndices, i)
		}
		return root, nil
	}

	built := make([]*Node, len(nodes))
	for i, n := range nodes {
		built[i] = &Node{Name: n.Name, Transform: n.transform(), MeshIndices: n.Meshes}
	}
	for i, n := range nodes {
		if n.Parent == nil {
			root.Children = append(root.Children, built[i])
			continue
		}
		p := *n.Parent
		if p < 0 || p >= len(nodes) || p == i {
			return nil, fmt.Errorf("%w: node %d has invalid parent %d", ErrInvalidScene, i, p)
		}
		built[p].Children = append(built[p].Children, built[i])
	}
	return root, nil
}
