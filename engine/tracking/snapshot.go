package tracking

import "github.com/spaghettifunk/anima-ar/engine/math"

// FrameSnapshot holds what one AdvanceFrame produced. It is only usable with
// the session that created it and only until the next AdvanceFrame.
type FrameSnapshot struct {
	Number     uint64
	View       math.Mat4
	Projection math.Mat4
	Width      int32
	Height     int32
	Rotation   DisplayRotation

	session    *Session
	enumerated bool
}

// ViewProjection returns projection * view.
func (f *FrameSnapshot) ViewProjection() math.Mat4 {
	return f.Projection.Mul(f.View)
}

// TrackedPlane is a read-only copy of a plane's per-frame data. Polygon is
// only valid until the enumeration moves to the next plane.
type TrackedPlane struct {
	State      TrackingState
	CenterPose math.Mat4
	ExtentX    float32
	ExtentZ    float32
	Polygon    []float32
}

func (p TrackedPlane) IsTracking() bool {
	return p.State == TrackingStateTracking
}
