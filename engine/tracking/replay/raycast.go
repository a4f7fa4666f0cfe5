package replay

import (
	"cmp"
	"slices"

	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

const parallelEpsilon float32 = 1e-6

type ray struct {
	origin    math.Vec3
	direction math.Vec3
}

// The clip planes only shape the unprojection; any near < far pair gives
// the same ray.
const (
	rayNear float32 = 0.1
	rayFar  float32 = 100.0
)

// HitTest casts a ray through the screen point (x, y) in pixels against
// tracking planes and feature points and returns hits nearest first.
func (s *Service) HitTest(x, y float32) []tracking.HitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width <= 0 || s.height <= 0 {
		return nil
	}
	r, ok := screenRay(s.projection(rayNear, rayFar).Mul(s.view), s.width, s.height, x, y)
	if !ok {
		return nil
	}

	var results []tracking.HitResult
	for _, p := range s.visiblePlanes() {
		if p.state != tracking.TrackingStateTracking {
			continue
		}
		if hit, ok := intersectPlane(r, p); ok {
			results = append(results, hit)
		}
	}
	for _, pt := range s.points {
		if hit, ok := intersectPoint(r, pt); ok {
			results = append(results, hit)
		}
	}

	slices.SortStableFunc(results, func(a, b tracking.HitResult) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return results
}

// screenRay unprojects a pixel through the inverse view-projection onto the
// near and far clip planes.
func screenRay(viewProjection math.Mat4, width, height int32, x, y float32) (ray, bool) {
	if det := viewProjection.Determinant(); det > -math.K_FLOAT_EPSILON && det < math.K_FLOAT_EPSILON {
		return ray{}, false
	}
	inverse := viewProjection.Inverse()
	ndcX := 2*x/float32(width) - 1
	ndcY := 1 - 2*y/float32(height)

	near, okNear := unproject(inverse, ndcX, ndcY, -1)
	far, okFar := unproject(inverse, ndcX, ndcY, 1)
	if !okNear || !okFar {
		return ray{}, false
	}
	return ray{origin: near, direction: far.Sub(near).Normalized()}, true
}

func unproject(inverse math.Mat4, x, y, z float32) (math.Vec3, bool) {
	v := math.NewVec4(x, y, z, 1).Transform(inverse)
	if v.W == 0 {
		return math.Vec3{}, false
	}
	return v.ToVec3().MulScalar(1 / v.W), true
}

func intersectPlane(r ray, p *plane) (tracking.HitResult, bool) {
	normal := math.PoseNormal(p.pose)
	denom := normal.Dot(r.direction)
	if denom > -parallelEpsilon && denom < parallelEpsilon {
		return tracking.HitResult{}, false
	}
	t := p.pose.Position().Sub(r.origin).Dot(normal) / denom
	if t < 0 {
		return tracking.HitResult{}, false
	}
	point := r.origin.Add(r.direction.MulScalar(t))

	local := math.TransformPoint(p.pose.Inverse(), point)
	if !insidePlane(local.X, local.Z, p.config) {
		return tracking.HitResult{}, false
	}

	pose := p.pose
	pose.Data[12] = point.X
	pose.Data[13] = point.Y
	pose.Data[14] = point.Z
	return tracking.HitResult{Pose: pose, Kind: tracking.TrackableKindPlane, Distance: t}, true
}

func insidePlane(x, z float32, pc PlaneConfig) bool {
	if len(pc.Polygon) >= 6 && len(pc.Polygon)%2 == 0 {
		return insidePolygon(x, z, pc.Polygon)
	}
	return x >= -pc.Extent[0] && x <= pc.Extent[0] && z >= -pc.Extent[1] && z <= pc.Extent[1]
}

// insidePolygon is the even-odd rule over (x, z) pairs.
func insidePolygon(x, z float32, polygon []float32) bool {
	inside := false
	n := len(polygon) / 2
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, zi := polygon[2*i], polygon[2*i+1]
		xj, zj := polygon[2*j], polygon[2*j+1]
		if (zi > z) != (zj > z) && x < (xj-xi)*(z-zi)/(zj-zi)+xi {
			inside = !inside
		}
	}
	return inside
}

func intersectPoint(r ray, pt PointConfig) (tracking.HitResult, bool) {
	center := vec3(pt.Position)
	toCenter := center.Sub(r.origin)
	t := toCenter.Dot(r.direction)
	if t < 0 {
		return tracking.HitResult{}, false
	}
	closest := r.origin.Add(r.direction.MulScalar(t))
	if closest.Distance(center) > pt.Radius {
		return tracking.HitResult{}, false
	}
	return tracking.HitResult{
		Pose:     math.NewMat4Translation(center),
		Kind:     tracking.TrackableKindPoint,
		Distance: t,
	}, true
}
