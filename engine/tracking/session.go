package tracking

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-ar/engine/core"
)

type SessionConfig struct {
	NearClip float32
	FarClip  float32
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{NearClip: 0.1, FarClip: 100.0}
}

/**
 * @brief Session adapts a tracking Service into per-frame snapshots.
 * Initialize, Resume, Pause and Close run on the lifecycle thread; the
 * frame methods run on the render thread.
 */
type Session struct {
	config  SessionConfig
	factory ServiceFactory

	mu      sync.RWMutex
	id      uuid.UUID
	service Service
	resumed bool

	// render thread only
	frame          uint64
	cameraTexture  uint32
	polygonScratch []float32
}

func NewSession(config SessionConfig, factory ServiceFactory) (*Session, error) {
	if factory == nil {
		err := fmt.Errorf("tracking service factory is required: %w", core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	if config.NearClip <= 0 || config.FarClip <= config.NearClip {
		err := fmt.Errorf("clip planes must satisfy 0 < near < far, got near=%f far=%f: %w", config.NearClip, config.FarClip, core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}
	return &Session{
		config:  config,
		factory: factory,
	}, nil
}

// Initialize creates the tracking service. Calling it again once a service
// exists is a no-op.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service != nil {
		return nil
	}
	svc, err := s.factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to create tracking service: %w", err)
	}
	s.service = svc
	s.id = uuid.New()
	core.LogInfo("tracking session %s created", s.id)
	return nil
}

// Ready reports whether a tracking service exists.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service != nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service == nil {
		return core.ErrSessionNotReady
	}
	if err := s.service.Resume(); err != nil {
		return fmt.Errorf("failed to resume tracking session: %w", err)
	}
	s.resumed = true
	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service == nil {
		return core.ErrSessionNotReady
	}
	if err := s.service.Pause(); err != nil {
		return fmt.Errorf("failed to pause tracking session: %w", err)
	}
	s.resumed = false
	return nil
}

func (s *Session) Resumed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resumed
}

// SetCameraTexture registers the texture the service streams the camera
// image into.
func (s *Session) SetCameraTexture(textureID uint32) {
	svc := s.currentService()
	s.cameraTexture = textureID
	if svc == nil {
		core.LogWarn("camera texture %d set before the tracking session exists", textureID)
		return
	}
	svc.SetCameraTexture(textureID)
}

func (s *Session) CameraTexture() uint32 {
	return s.cameraTexture
}

/**
 * @brief Pushes the display geometry and asks the service for one update.
 * Snapshots from earlier frames become invalid as soon as this is called.
 *
 * @return The new frame snapshot, core.ErrSessionNotReady without a service,
 * or an error wrapping core.ErrFrameUpdate when the service fails.
 */
func (s *Session) AdvanceFrame(width, height int32, rotation DisplayRotation) (*FrameSnapshot, error) {
	svc := s.currentService()
	if svc == nil {
		return nil, core.ErrSessionNotReady
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid display size %dx%d: %w", width, height, core.ErrFrameUpdate)
	}
	if !rotation.Valid() {
		return nil, fmt.Errorf("invalid display rotation %d: %w", rotation, core.ErrFrameUpdate)
	}

	s.frame++
	svc.SetDisplayGeometry(rotation, width, height)
	if err := svc.Update(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrFrameUpdate, err)
	}

	return &FrameSnapshot{
		Number:     s.frame,
		View:       svc.ViewMatrix(),
		Projection: svc.ProjectionMatrix(s.config.NearClip, s.config.FarClip),
		Width:      width,
		Height:     height,
		Rotation:   rotation,
		session:    s,
	}, nil
}

/**
 * @brief Lazily walks the planes of the snapshot's frame. Each plane handle
 * is released once the consumer's loop body returns and before the next one
 * is acquired. The sequence can be consumed once; further ranges are empty.
 */
func (s *Session) EnumeratePlanes(snap *FrameSnapshot) iter.Seq[TrackedPlane] {
	return func(yield func(TrackedPlane) bool) {
		if !s.isCurrent(snap, "EnumeratePlanes") {
			return
		}
		if snap.enumerated {
			core.LogWarn("planes of frame %d were already enumerated", snap.Number)
			return
		}
		snap.enumerated = true

		svc := s.currentService()
		if svc == nil {
			return
		}
		list := svc.AllTrackables(TrackableKindPlane)
		if list == nil {
			return
		}
		defer list.Destroy()

		for i := 0; i < list.Len(); i++ {
			t := list.Acquire(i)
			if t == nil {
				continue
			}
			plane, ok := t.(PlaneTrackable)
			if !ok {
				t.Release()
				continue
			}
			if !s.yieldPlane(plane, yield) {
				return
			}
		}
	}
}

func (s *Session) yieldPlane(plane PlaneTrackable, yield func(TrackedPlane) bool) bool {
	defer plane.Release()

	extentX, extentZ := plane.Extent()
	s.polygonScratch = append(s.polygonScratch[:0], plane.Polygon()...)
	return yield(TrackedPlane{
		State:      plane.TrackingState(),
		CenterPose: plane.CenterPose(),
		ExtentX:    extentX,
		ExtentZ:    extentZ,
		Polygon:    s.polygonScratch,
	})
}

// HitTest casts a ray through the screen point (x, y) in pixels and returns
// the first result the service reports.
func (s *Session) HitTest(snap *FrameSnapshot, x, y float32) (HitResult, bool) {
	if !s.isCurrent(snap, "HitTest") {
		return HitResult{}, false
	}
	svc := s.currentService()
	if svc == nil {
		return HitResult{}, false
	}
	results := svc.HitTest(x, y)
	if len(results) == 0 {
		return HitResult{}, false
	}
	return results[0], true
}

func (s *Session) IsDepthSupported() bool {
	svc := s.currentService()
	if svc == nil {
		return false
	}
	return svc.IsDepthModeSupported()
}

// Close destroys the tracking service. The session can be initialized again.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.service == nil {
		return nil
	}
	err := s.service.Close()
	s.service = nil
	s.resumed = false
	core.LogInfo("tracking session %s closed", s.id)
	if err != nil {
		return fmt.Errorf("failed to close tracking service: %w", err)
	}
	return nil
}

func (s *Session) currentService() Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.service
}

func (s *Session) isCurrent(snap *FrameSnapshot, op string) bool {
	if snap == nil || snap.session != s || snap.Number != s.frame {
		core.LogError("%s called with a snapshot that does not belong to the current frame", op)
		return false
	}
	return true
}
