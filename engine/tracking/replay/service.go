package replay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

var (
	ErrSessionPaused = errors.New("replay session is paused")
	ErrNoDisplay     = errors.New("display geometry not set")
)

type plane struct {
	config PlaneConfig
	pose   math.Mat4
	state  tracking.TrackingState
}

// Service plays back a Scene as if it were a live tracking runtime.
type Service struct {
	mu sync.Mutex

	id      uuid.UUID
	planes  []*plane
	points  []PointConfig
	camera  CameraConfig
	depth   bool
	resumed bool

	frame         uint64
	width, height int32
	rotation      tracking.DisplayRotation
	cameraTexture uint32
	view          math.Mat4
	failNext      error

	outstanding int
	watcher     *sceneWatcher
}

func New(scene *Scene) *Service {
	s := &Service{id: uuid.New()}
	s.load(scene)
	s.view = s.cameraView(0)
	return s
}

// NewFactory returns a tracking.ServiceFactory that loads the scene at path
// and, when watch is set, reloads it whenever the file changes.
func NewFactory(path string, watch bool) tracking.ServiceFactory {
	return func(ctx context.Context) (tracking.Service, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scene, err := LoadScene(path)
		if err != nil {
			return nil, err
		}
		svc := New(scene)
		if watch {
			w, err := watchScene(path, svc.Reload)
			if err != nil {
				return nil, err
			}
			svc.watcher = w
		}
		return svc, nil
	}
}

func (s *Service) load(scene *Scene) {
	s.planes = s.planes[:0]
	for _, pc := range scene.Planes {
		state, _ := tracking.ParseTrackingState(pc.State)
		s.planes = append(s.planes, &plane{config: pc, pose: pc.Pose(), state: state})
	}
	s.points = append([]PointConfig(nil), scene.Points...)
	s.camera = scene.Camera
	s.depth = scene.DepthSupported
}

// Reload swaps in a new scene. Handles acquired from the old scene stay
// valid until released.
func (s *Service) Reload(scene *Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planes = nil
	s.load(scene)
	core.LogInfo("replay session %s reloaded: %d planes, %d points", s.id, len(s.planes), len(s.points))
}

func (s *Service) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumed = true
	return nil
}

func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumed = false
	return nil
}

func (s *Service) SetCameraTexture(textureID uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraTexture = textureID
}

func (s *Service) CameraTexture() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraTexture
}

func (s *Service) SetDisplayGeometry(rotation tracking.DisplayRotation, width, height int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = rotation
	s.width = width
	s.height = height
}

// FailNextUpdate makes the next Update return err.
func (s *Service) FailNextUpdate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Service) Update() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if !s.resumed {
		return ErrSessionPaused
	}
	if s.width <= 0 || s.height <= 0 {
		return ErrNoDisplay
	}
	if s.outstanding > 0 {
		core.LogWarn("replay session %s: %d trackables still held at frame update", s.id, s.outstanding)
	}
	s.frame++
	s.view = s.cameraView(s.frame)
	return nil
}

func (s *Service) cameraView(frame uint64) math.Mat4 {
	target := vec3(s.camera.Target)
	up := vec3(s.camera.Up)
	offset := vec3(s.camera.Position).Sub(target)
	if s.camera.OrbitDegreesPerFrame != 0 {
		angle := math.WrapRadians(math.DegToRad(s.camera.OrbitDegreesPerFrame * float32(frame)))
		offset = math.TransformDirection(math.NewMat4Rotation(angle, up), offset)
	}
	return math.NewMat4LookAt(target.Add(offset), target, up)
}

func (s *Service) ViewMatrix() math.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Service) ProjectionMatrix(near, far float32) math.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projection(near, far)
}

func (s *Service) projection(near, far float32) math.Mat4 {
	aspect := float32(1)
	if s.width > 0 && s.height > 0 {
		aspect = float32(s.width) / float32(s.height)
	}
	return math.NewMat4Perspective(math.DegToRad(s.camera.FovDegrees), aspect, near, far)
}

// visiblePlanes returns the planes reported at the current frame with the
// state they have at that frame.
func (s *Service) visiblePlanes() []*plane {
	out := make([]*plane, 0, len(s.planes))
	for _, p := range s.planes {
		if s.frame < p.config.AppearsAtFrame {
			continue
		}
		if p.config.LostAtFrame > 0 && s.frame >= p.config.LostAtFrame && p.state == tracking.TrackingStateTracking {
			out = append(out, &plane{config: p.config, pose: p.pose, state: tracking.TrackingStatePaused})
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Service) AllTrackables(kind tracking.TrackableKind) tracking.TrackableList {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind != tracking.TrackableKindPlane {
		return &planeList{svc: s}
	}
	return &planeList{svc: s, planes: s.visiblePlanes()}
}

func (s *Service) IsDepthModeSupported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth
}

// Outstanding returns the number of acquired handles not yet released.
func (s *Service) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outstanding
}

func (s *Service) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Service) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to stop scene watcher: %w", err)
		}
	}
	return nil
}

type planeList struct {
	svc       *Service
	planes    []*plane
	destroyed bool
}

func (l *planeList) Len() int {
	if l.destroyed {
		return 0
	}
	return len(l.planes)
}

func (l *planeList) Acquire(i int) tracking.Trackable {
	if l.destroyed || i < 0 || i >= len(l.planes) {
		return nil
	}
	l.svc.mu.Lock()
	l.svc.outstanding++
	l.svc.mu.Unlock()
	return &planeHandle{svc: l.svc, plane: l.planes[i]}
}

func (l *planeList) Destroy() {
	l.destroyed = true
}

type planeHandle struct {
	svc      *Service
	plane    *plane
	released bool
}

func (h *planeHandle) TrackingState() tracking.TrackingState {
	return h.plane.state
}

func (h *planeHandle) CenterPose() math.Mat4 {
	return h.plane.pose
}

func (h *planeHandle) Extent() (float32, float32) {
	return h.plane.config.Extent[0], h.plane.config.Extent[1]
}

func (h *planeHandle) Polygon() []float32 {
	return h.plane.config.Polygon
}

func (h *planeHandle) Release() {
	if h.released {
		core.LogWarn("plane %s released twice", h.plane.config.ID)
		return
	}
	h.released = true
	h.svc.mu.Lock()
	h.svc.outstanding--
	h.svc.mu.Unlock()
}
