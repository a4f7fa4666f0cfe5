package placement

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

type Phase uint8

const (
	PhaseUnplaced Phase = iota
	PhasePlaced
)

func (p Phase) String() string {
	if p == PhasePlaced {
		return "placed"
	}
	return "unplaced"
}

type Config struct {
	// Scale of a freshly placed object.
	InitialScale float32
	// Lower bound for the scale gesture. Zero disables the bound.
	MinScale float32
	// Axis the rotate gesture turns around, in the anchor's local space.
	RotationAxis math.Vec3
	// Enables the Placed -> Unplaced transition.
	AllowClear bool
}

func DefaultConfig() Config {
	return Config{
		InitialScale: 0.05,
		MinScale:     0.01,
		RotationAxis: math.NewVec3Up(),
	}
}

// Snapshot is a copy of the placement taken on the render thread.
type Snapshot struct {
	Phase             Phase
	AnchorID          uuid.UUID
	AnchorPose        math.Mat4
	PlaneNormal       math.Vec3
	TranslationOffset math.Vec3
	RotationAngle     float32
	RotationAxis      math.Vec3
	Scale             float32
}

/**
 * @brief State is where the virtual object sits relative to the detected
 * surface it was anchored to. It is owned by the render thread: gestures
 * are applied there and the compositor reads it there.
 */
type State struct {
	config Config

	phase             Phase
	anchorID          uuid.UUID
	anchorPose        math.Mat4
	planeNormal       math.Vec3
	translationOffset math.Vec3
	rotationAngle     float32
	scale             float32
}

func New(config Config) (*State, error) {
	if config.InitialScale <= 0 || config.MinScale < 0 {
		err := fmt.Errorf("scales must be positive, got initial=%f min=%f: %w", config.InitialScale, config.MinScale, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	if config.InitialScale < config.MinScale {
		err := fmt.Errorf("initial scale %f is below the minimum %f: %w", config.InitialScale, config.MinScale, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	if config.RotationAxis.LengthSquared() == 0 {
		config.RotationAxis = math.NewVec3Up()
	}
	config.RotationAxis = config.RotationAxis.Normalized()

	return &State{
		config:     config,
		anchorPose: math.NewMat4Identity(),
		scale:      config.InitialScale,
	}, nil
}

func (s *State) IsPlaced() bool {
	return s.phase == PhasePlaced
}

/**
 * @brief Anchors the object at a hit. Only plane hits are accepted; other
 * kinds leave the state untouched. A new anchor resets the translation
 * offset but keeps rotation and scale.
 *
 * @return True if the hit was applied.
 */
func (s *State) Place(hit tracking.HitResult) bool {
	if hit.Kind != tracking.TrackableKindPlane {
		core.LogDebug("ignoring %s hit", hit.Kind)
		return false
	}
	normal := math.PoseNormal(hit.Pose)
	if normal.LengthSquared() == 0 {
		core.LogWarn("ignoring plane hit with a degenerate pose")
		return false
	}

	s.anchorPose = hit.Pose
	s.planeNormal = normal
	s.translationOffset = math.NewVec3Zero()
	s.anchorID = uuid.New()
	s.phase = PhasePlaced
	core.LogDebug("anchored %s at %v", s.anchorID, hit.Pose.Position())
	return true
}

// Rotate turns the object by deltaDegrees around the rotation axis.
func (s *State) Rotate(deltaDegrees float32) bool {
	if !s.IsPlaced() {
		return false
	}
	if !math.IsFinite(deltaDegrees) {
		core.LogWarn("ignoring rotate gesture with a non-finite delta %f", deltaDegrees)
		return false
	}
	s.rotationAngle = math.WrapRadians(s.rotationAngle + math.DegToRad(deltaDegrees))
	return true
}

// Scale adds delta to the uniform scale, clamped to the configured minimum.
func (s *State) Scale(delta float32) bool {
	if !s.IsPlaced() {
		return false
	}
	if !math.IsFinite(delta) {
		core.LogWarn("ignoring scale gesture with a non-finite delta %f", delta)
		return false
	}
	s.scale += delta
	if s.config.MinScale > 0 {
		s.scale = math.Clamp(s.scale, s.config.MinScale, math.K_INFINITY)
	}
	return true
}

/**
 * @brief Moves the object along its plane. The delta is given in camera
 * space, brought to world space with the inverse of view, then projected
 * onto the plane so the object never leaves the surface.
 *
 * @param dx, dy, dz The camera-space delta.
 * @param view The current view matrix.
 * @return True if the offset changed.
 */
func (s *State) Translate(dx, dy, dz float32, view math.Mat4) bool {
	if !s.IsPlaced() {
		return false
	}
	if !math.IsFinite(dx) || !math.IsFinite(dy) || !math.IsFinite(dz) {
		core.LogWarn("ignoring translate gesture with a non-finite delta (%f, %f, %f)", dx, dy, dz)
		return false
	}
	if det := view.Determinant(); det > -math.K_FLOAT_EPSILON && det < math.K_FLOAT_EPSILON {
		core.LogWarn("ignoring translate gesture: view matrix is singular")
		return false
	}
	world := math.TransformDirection(view.Inverse(), math.NewVec3(dx, dy, dz))
	s.translationOffset = s.translationOffset.Add(math.ProjectOntoPlane(world, s.planeNormal))
	return true
}

// Clear returns to Unplaced. It fails with core.ErrClearDisabled unless the
// configuration allows it.
func (s *State) Clear() error {
	if !s.config.AllowClear {
		return core.ErrClearDisabled
	}
	s.phase = PhaseUnplaced
	s.anchorID = uuid.Nil
	s.anchorPose = math.NewMat4Identity()
	s.planeNormal = math.NewVec3Zero()
	s.translationOffset = math.NewVec3Zero()
	s.rotationAngle = 0
	s.scale = s.config.InitialScale
	return nil
}

// ModelMatrix is translate(offset) * anchorPose * rotate(angle, axis) * scale(s).
func (s *State) ModelMatrix() math.Mat4 {
	return math.ComposeModelMatrix(s.translationOffset, s.anchorPose, s.rotationAngle, s.config.RotationAxis, s.scale)
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Phase:             s.phase,
		AnchorID:          s.anchorID,
		AnchorPose:        s.anchorPose,
		PlaneNormal:       s.planeNormal,
		TranslationOffset: s.translationOffset,
		RotationAngle:     s.rotationAngle,
		RotationAxis:      s.config.RotationAxis,
		Scale:             s.scale,
	}
}
