package math

// TransformPoint applies the column-major matrix m to the point p with an
// implicit w of 1. The resulting w is discarded.
func TransformPoint(m Mat4, p Vec3) Vec3 {
	return p.Transform(m)
}

// TransformDirection applies m to d with w = 0, so translation is ignored.
func TransformDirection(m Mat4, d Vec3) Vec3 {
	return d.ToVec4(0).Transform(m).ToVec3()
}

// ProjectOntoPlane removes the component of v along the plane normal n.
// n must already be unit length.
func ProjectOntoPlane(v, n Vec3) Vec3 {
	return v.Sub(n.MulScalar(v.Dot(n)))
}

// PoseNormal returns the local +Y axis of a pose in world space, normalized.
// For a plane pose this is the plane normal.
func PoseNormal(pose Mat4) Vec3 {
	return pose.Column(1).Normalized()
}

/**
 * @brief Builds the model matrix of a placed object:
 * translate(offset) * anchor * rotate(angle, axis) * scale(s).
 * Scale is applied first and the world-space offset last.
 */
func ComposeModelMatrix(offset Vec3, anchor Mat4, angle_radians float32, axis Vec3, scale float32) Mat4 {
	model := NewMat4Translation(offset).Mul(anchor)
	model = model.Mul(NewMat4Rotation(angle_radians, axis))
	return model.Mul(NewMat4UniformScale(scale))
}

// ComposeModelViewProjection returns projection * view * model.
func ComposeModelViewProjection(projection, view, model Mat4) Mat4 {
	return projection.Mul(view).Mul(model)
}

// NewExtents3DEmpty returns inverted extents that any Expand call overrides.
func NewExtents3DEmpty() Extents3D {
	return Extents3D{
		Min: Vec3{K_INFINITY, K_INFINITY, K_INFINITY},
		Max: Vec3{-K_INFINITY, -K_INFINITY, -K_INFINITY},
	}
}

// Expand grows the extents to contain p.
func (e Extents3D) Expand(p Vec3) Extents3D {
	return Extents3D{Min: e.Min.Min(p), Max: e.Max.Max(p)}
}

// IsEmpty reports whether no point has been added.
func (e Extents3D) IsEmpty() bool {
	return e.Min.X > e.Max.X
}

func (e Extents3D) Size() Vec3 {
	if e.IsEmpty() {
		return Vec3{}
	}
	return e.Max.Sub(e.Min)
}

func (e Extents3D) Center() Vec3 {
	if e.IsEmpty() {
		return Vec3{}
	}
	return e.Min.Add(e.Max).MulScalar(0.5)
}

// GeometryGenerateNormals writes flat face normals for every triangle in
// indices. Vertices shared between faces keep the last face's normal.
func GeometryGenerateNormals(vertices []Vertex3D, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)

		normal := edge1.Cross(edge2).Normalized()

		vertices[i0].Normal = normal
		vertices[i1].Normal = normal
		vertices[i2].Normal = normal
	}
}
