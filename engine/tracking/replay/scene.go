package replay

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

// Scene describes a scripted tracking environment. Example:
//
//	depth_supported = true
//
//	[camera]
//	position = [0.0, 1.4, 1.5]
//	target = [0.0, 0.0, -0.5]
//	fov_degrees = 60.0
//
//	[[plane]]
//	id = "floor"
//	center = [0.0, 0.0, -0.5]
//	extent = [1.0, 1.0]
//	polygon = [-1.0, -1.0, 1.0, -1.0, 1.0, 1.0, -1.0, 1.0]
type Scene struct {
	DepthSupported bool          `toml:"depth_supported"`
	Camera         CameraConfig  `toml:"camera"`
	Planes         []PlaneConfig `toml:"plane"`
	Points         []PointConfig `toml:"point"`
}

type CameraConfig struct {
	Position   [3]float32 `toml:"position"`
	Target     [3]float32 `toml:"target"`
	Up         [3]float32 `toml:"up"`
	FovDegrees float32    `toml:"fov_degrees"`
	// Orbits the camera around the target about the up axis.
	OrbitDegreesPerFrame float32 `toml:"orbit_degrees_per_frame"`
}

type PlaneConfig struct {
	ID     string     `toml:"id"`
	State  string     `toml:"state"`
	Center [3]float32 `toml:"center"`
	// Orientation as an axis-angle rotation. A zero axis keeps the plane
	// horizontal with its normal pointing up.
	Axis         [3]float32 `toml:"axis"`
	AngleDegrees float32    `toml:"angle_degrees"`
	Extent       [2]float32 `toml:"extent"`
	Polygon      []float32  `toml:"polygon"`
	// First frame the plane is reported, and the frame tracking is lost
	// (0 means never).
	AppearsAtFrame uint64 `toml:"appears_at_frame"`
	LostAtFrame    uint64 `toml:"lost_at_frame"`
}

// PointConfig is a feature point hit-testable as a small sphere.
type PointConfig struct {
	Position [3]float32 `toml:"position"`
	Radius   float32    `toml:"radius"`
}

func vec3(v [3]float32) math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}

// Pose returns the plane's center pose.
func (p PlaneConfig) Pose() math.Mat4 {
	pose := math.NewMat4Translation(vec3(p.Center))
	return pose.Mul(math.NewMat4Rotation(math.DegToRad(p.AngleDegrees), vec3(p.Axis)))
}

func ParseScene(data []byte) (*Scene, error) {
	scene := &Scene{}
	if err := toml.Unmarshal(data, scene); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	if err := scene.normalize(); err != nil {
		return nil, err
	}
	return scene, nil
}

func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", path, err)
	}
	scene, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return scene, nil
}

func (s *Scene) normalize() error {
	if s.Camera.Up == [3]float32{} {
		s.Camera.Up = [3]float32{0, 1, 0}
	}
	if s.Camera.FovDegrees == 0 {
		s.Camera.FovDegrees = 60
	}
	if s.Camera.FovDegrees <= 0 || s.Camera.FovDegrees >= 180 {
		return fmt.Errorf("camera fov_degrees must be in (0, 180), got %f: %w", s.Camera.FovDegrees, core.ErrInvalidConfig)
	}
	if s.Camera.Position == s.Camera.Target {
		return fmt.Errorf("camera position and target must differ: %w", core.ErrInvalidConfig)
	}

	for i := range s.Planes {
		p := &s.Planes[i]
		if p.ID == "" {
			p.ID = fmt.Sprintf("plane-%d", i)
		}
		if _, err := tracking.ParseTrackingState(p.State); err != nil {
			return fmt.Errorf("plane %s: %w: %w", p.ID, err, core.ErrInvalidConfig)
		}
		if len(p.Polygon)%2 != 0 {
			core.LogWarn("plane %s has an odd polygon length %d", p.ID, len(p.Polygon))
		}
	}
	for i := range s.Points {
		if s.Points[i].Radius <= 0 {
			s.Points[i].Radius = 0.02
		}
	}
	return nil
}
