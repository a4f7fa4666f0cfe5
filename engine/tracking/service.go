package tracking

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/anima-ar/engine/math"
)

type TrackingState uint8

const (
	TrackingStateTracking TrackingState = iota
	TrackingStatePaused
	TrackingStateStopped
)

func (s TrackingState) String() string {
	switch s {
	case TrackingStateTracking:
		return "tracking"
	case TrackingStatePaused:
		return "paused"
	case TrackingStateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// ParseTrackingState accepts the names produced by String.
func ParseTrackingState(s string) (TrackingState, error) {
	switch s {
	case "", "tracking":
		return TrackingStateTracking, nil
	case "paused":
		return TrackingStatePaused, nil
	case "stopped":
		return TrackingStateStopped, nil
	}
	return TrackingStateStopped, fmt.Errorf("unknown tracking state %q", s)
}

type TrackableKind uint8

const (
	TrackableKindPlane TrackableKind = iota
	TrackableKindPoint
	TrackableKindDepthPoint
	TrackableKindUnknown
)

func (k TrackableKind) String() string {
	switch k {
	case TrackableKindPlane:
		return "plane"
	case TrackableKindPoint:
		return "point"
	case TrackableKindDepthPoint:
		return "depth-point"
	}
	return "unknown"
}

// DisplayRotation is the host display orientation in quarter turns (0..3).
type DisplayRotation int32

const (
	Rotation0 DisplayRotation = iota
	Rotation90
	Rotation180
	Rotation270
)

func (r DisplayRotation) Valid() bool {
	return r >= Rotation0 && r <= Rotation270
}

// Trackable is a handle owned by the tracking service. Every acquired
// handle must be released exactly once.
type Trackable interface {
	TrackingState() TrackingState
	Release()
}

// PlaneTrackable is a detected surface. The pose maps plane-local
// coordinates (plane in local XZ, normal along local +Y) to world space.
type PlaneTrackable interface {
	Trackable
	CenterPose() math.Mat4
	Extent() (x, z float32)
	Polygon() []float32
}

// TrackableList is a per-frame collection. Destroy must be called once the
// consumer is done with it.
type TrackableList interface {
	Len() int
	Acquire(i int) Trackable
	Destroy()
}

// HitResult is one intersection of a screen ray with tracked geometry.
type HitResult struct {
	Pose     math.Mat4
	Kind     TrackableKind
	Distance float32
}

// Service is the device tracking runtime the session adapter drives.
// All methods except Close are called from the render thread.
type Service interface {
	Resume() error
	Pause() error
	SetCameraTexture(textureID uint32)
	SetDisplayGeometry(rotation DisplayRotation, width, height int32)
	Update() error
	ViewMatrix() math.Mat4
	ProjectionMatrix(near, far float32) math.Mat4
	AllTrackables(kind TrackableKind) TrackableList
	// HitTest returns results ranked nearest first.
	HitTest(x, y float32) []HitResult
	IsDepthModeSupported() bool
	Close() error
}

// ServiceFactory creates the tracking service. It may block while the
// runtime starts up.
type ServiceFactory func(ctx context.Context) (Service, error)
