package resources

import (
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
)

type cubeFace struct {
	normal math.Vec3
	// corners in (min-uv, max-uv, (min,max)-uv, (max,min)-uv) order
	corners [4]math.Vec3
}

/**
 * @brief Generates a single-mesh scene holding an axis-aligned box centred
 * on the origin. 4 vertices and 2 triangles per face.
 *
 * @param width, height, depth The box dimensions. Zero falls back to one.
 * @return The generated scene.
 */
func NewCubeScene(name string, width, height, depth float32) *Scene {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1.0
	}

	x, y, z := width*0.5, height*0.5, depth*0.5
	faces := []cubeFace{
		{math.NewVec3(0, 0, 1), [4]math.Vec3{{X: -x, Y: -y, Z: z}, {X: x, Y: y, Z: z}, {X: -x, Y: y, Z: z}, {X: x, Y: -y, Z: z}}},
		{math.NewVec3(0, 0, -1), [4]math.Vec3{{X: x, Y: -y, Z: -z}, {X: -x, Y: y, Z: -z}, {X: x, Y: y, Z: -z}, {X: -x, Y: -y, Z: -z}}},
		{math.NewVec3(-1, 0, 0), [4]math.Vec3{{X: -x, Y: -y, Z: -z}, {X: -x, Y: y, Z: z}, {X: -x, Y: y, Z: -z}, {X: -x, Y: -y, Z: z}}},
		{math.NewVec3(1, 0, 0), [4]math.Vec3{{X: x, Y: -y, Z: z}, {X: x, Y: y, Z: -z}, {X: x, Y: y, Z: z}, {X: x, Y: -y, Z: -z}}},
		{math.NewVec3(0, -1, 0), [4]math.Vec3{{X: x, Y: -y, Z: z}, {X: -x, Y: -y, Z: -z}, {X: x, Y: -y, Z: -z}, {X: -x, Y: -y, Z: z}}},
		{math.NewVec3(0, 1, 0), [4]math.Vec3{{X: -x, Y: y, Z: z}, {X: x, Y: y, Z: -z}, {X: -x, Y: y, Z: -z}, {X: x, Y: y, Z: z}}},
	}
	uvs := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 0}}

	mesh := &Mesh{
		Name:      name,
		Positions: make([]math.Vec3, 0, 24),
		Normals:   make([]math.Vec3, 0, 24),
		TexCoords: make([]math.Vec2, 0, 24),
		Indices:   make([]uint32, 0, 36),
	}
	for i, face := range faces {
		for c := 0; c < 4; c++ {
			mesh.Positions = append(mesh.Positions, face.corners[c])
			mesh.Normals = append(mesh.Normals, face.normal)
			mesh.TexCoords = append(mesh.TexCoords, uvs[c])
		}
		base := uint32(i * 4)
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+3, base+1)
	}

	return &Scene{
		Name:      name,
		Root:      &Node{Name: name, Transform: math.NewMat4Identity(), MeshIndices: []int{0}},
		Meshes:    []*Mesh{mesh},
		Materials: []Material{{Name: "default"}},
	}
}
