package overlay

import (
	"fmt"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

/**
 * @brief Converts a plane's boundary polygon into world-space vertices.
 * Each (x, z) pair becomes the local point (x, 0, z) transformed by the
 * plane's center pose. Vertices keep the input order, so the result draws
 * as a triangle fan.
 *
 * @param plane The plane to convert.
 * @return The world-space vertices; empty for planes that are not tracking.
 * core.ErrMalformedPolygon when the polygon has an odd number of floats.
 */
func BuildOverlay(plane tracking.TrackedPlane) ([]math.Vec3, error) {
	return appendOverlay(nil, plane)
}

// Builder reuses one vertex buffer across planes. The slice returned by
// Build is overwritten by the next call.
type Builder struct {
	vertices []math.Vec3
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Build(plane tracking.TrackedPlane) ([]math.Vec3, error) {
	vertices, err := appendOverlay(b.vertices[:0], plane)
	if err != nil {
		return nil, err
	}
	b.vertices = vertices
	return vertices, nil
}

func appendOverlay(dst []math.Vec3, plane tracking.TrackedPlane) ([]math.Vec3, error) {
	if !plane.IsTracking() {
		return dst, nil
	}
	if len(plane.Polygon)%2 != 0 {
		return nil, fmt.Errorf("%w: %d floats", core.ErrMalformedPolygon, len(plane.Polygon))
	}
	for i := 0; i < len(plane.Polygon); i += 2 {
		local := math.NewVec3(plane.Polygon[i], 0, plane.Polygon[i+1])
		dst = append(dst, math.TransformPoint(plane.CenterPose, local))
	}
	return dst, nil
}

// FanIndices returns triangle-list indices equivalent to drawing n vertices
// as a fan around vertex 0.
func FanIndices(n int) []uint32 {
	if n < 3 {
		return nil
	}
	indices := make([]uint32, 0, (n-2)*3)
	for i := 1; i < n-1; i++ {
		indices = append(indices, 0, uint32(i), uint32(i+1))
	}
	return indices
}
