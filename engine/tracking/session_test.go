package tracking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
	"github.com/spaghettifunk/anima-ar/engine/tracking/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scene = `
depth_supported = true

[camera]
position = [0.0, 1.0, 1.0]
target = [0.0, 0.0, 0.0]

[[plane]]
id = "floor"
extent = [1.0, 1.0]
polygon = [-1.0, -1.0, 1.0, -1.0, 1.0, 1.0, -1.0, 1.0]

[[plane]]
id = "table"
state = "paused"
center = [0.5, 0.7, -0.5]
polygon = [-0.3, -0.3, 0.3, -0.3, 0.3, 0.3]

[[plane]]
id = "wall"
state = "stopped"
center = [0.0, 0.0, -2.0]
axis = [1.0, 0.0, 0.0]
angle_degrees = 90.0
polygon = [-2.0, -2.0, 2.0, -2.0, 2.0, 2.0, -2.0, 2.0]
`

func newSession(t *testing.T) (*tracking.Session, *replay.Service) {
	t.Helper()
	parsed, err := replay.ParseScene([]byte(scene))
	require.NoError(t, err)
	svc := replay.New(parsed)

	session, err := tracking.NewSession(tracking.DefaultSessionConfig(), func(context.Context) (tracking.Service, error) {
		return svc, nil
	})
	require.NoError(t, err)
	return session, svc
}

func startSession(t *testing.T) (*tracking.Session, *replay.Service) {
	t.Helper()
	session, svc := newSession(t)
	require.NoError(t, session.Initialize(context.Background()))
	require.NoError(t, session.Resume())
	return session, svc
}

func TestNewSessionValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := tracking.NewSession(tracking.DefaultSessionConfig(), nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	factory := func(context.Context) (tracking.Service, error) { return nil, nil }
	_, err = tracking.NewSession(tracking.SessionConfig{NearClip: 1, FarClip: 0.5}, factory)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestSessionBeforeInitialize(t *testing.T) {
	t.Parallel()

	session, _ := newSession(t)

	assert.False(t, session.Ready())
	assert.False(t, session.IsDepthSupported())
	assert.ErrorIs(t, session.Resume(), core.ErrSessionNotReady)
	assert.ErrorIs(t, session.Pause(), core.ErrSessionNotReady)

	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, core.ErrSessionNotReady)
}

func TestSessionInitializeFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("camera permission denied")
	session, err := tracking.NewSession(tracking.DefaultSessionConfig(), func(context.Context) (tracking.Service, error) {
		return nil, boom
	})
	require.NoError(t, err)

	assert.ErrorIs(t, session.Initialize(context.Background()), boom)
	assert.False(t, session.Ready())
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	session, svc := newSession(t)
	require.NoError(t, session.Initialize(context.Background()))
	require.NoError(t, session.Initialize(context.Background()))
	assert.True(t, session.Ready())
	assert.True(t, session.IsDepthSupported())

	session.SetCameraTexture(7)
	assert.Equal(t, uint32(7), svc.CameraTexture())

	// the service refuses to update while paused
	_, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	assert.ErrorIs(t, err, core.ErrFrameUpdate)
	assert.ErrorIs(t, err, replay.ErrSessionPaused)

	require.NoError(t, session.Resume())
	assert.True(t, session.Resumed())
	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Number)

	require.NoError(t, session.Close())
	assert.False(t, session.Ready())
	_, err = session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	assert.ErrorIs(t, err, core.ErrSessionNotReady)
}

func TestAdvanceFrameRejectsBadDisplay(t *testing.T) {
	t.Parallel()

	session, _ := startSession(t)

	_, err := session.AdvanceFrame(0, 1920, tracking.Rotation0)
	assert.ErrorIs(t, err, core.ErrFrameUpdate)
	_, err = session.AdvanceFrame(1080, 1920, tracking.DisplayRotation(4))
	assert.ErrorIs(t, err, core.ErrFrameUpdate)
}

func TestAdvanceFrameSnapshot(t *testing.T) {
	t.Parallel()

	session, svc := startSession(t)
	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation90)
	require.NoError(t, err)

	assert.Equal(t, svc.ViewMatrix(), snap.View)
	assert.Equal(t, svc.ProjectionMatrix(0.1, 100), snap.Projection)
	assert.Equal(t, snap.Projection.Mul(snap.View), snap.ViewProjection())
	assert.Equal(t, tracking.Rotation90, snap.Rotation)
	assert.Equal(t, int32(1080), snap.Width)
}

func TestEnumeratePlanesReleasesEachPlane(t *testing.T) {
	t.Parallel()

	session, svc := startSession(t)
	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)

	var states []tracking.TrackingState
	var sizes []int
	for plane := range session.EnumeratePlanes(snap) {
		assert.Equal(t, 1, svc.Outstanding(), "only the current plane may be held")
		states = append(states, plane.State)
		sizes = append(sizes, len(plane.Polygon))
	}

	assert.Equal(t, []tracking.TrackingState{
		tracking.TrackingStateTracking,
		tracking.TrackingStatePaused,
		tracking.TrackingStateStopped,
	}, states)
	assert.Equal(t, []int{8, 6, 8}, sizes)
	assert.Zero(t, svc.Outstanding())

	count := 0
	for range session.EnumeratePlanes(snap) {
		count++
	}
	assert.Zero(t, count, "a snapshot can only be enumerated once")
}

func TestEnumeratePlanesEarlyExitReleases(t *testing.T) {
	t.Parallel()

	session, svc := startSession(t)
	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)

	for plane := range session.EnumeratePlanes(snap) {
		assert.True(t, plane.IsTracking())
		break
	}
	assert.Zero(t, svc.Outstanding())
}

func TestStaleSnapshotIsRejected(t *testing.T) {
	t.Parallel()

	session, svc := startSession(t)
	old, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)
	_, err = session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)

	count := 0
	for range session.EnumeratePlanes(old) {
		count++
	}
	assert.Zero(t, count)
	assert.Zero(t, svc.Outstanding())

	_, ok := session.HitTest(old, 540, 960)
	assert.False(t, ok)

	other, _ := startSession(t)
	foreign, err := other.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)
	_, ok = session.HitTest(foreign, 540, 960)
	assert.False(t, ok)
}

func TestHitTestReturnsFirstResult(t *testing.T) {
	t.Parallel()

	session, svc := startSession(t)
	snap, err := session.AdvanceFrame(1080, 1920, tracking.Rotation0)
	require.NoError(t, err)

	hit, ok := session.HitTest(snap, 540, 960)
	require.True(t, ok)
	assert.Equal(t, svc.HitTest(540, 960)[0], hit)
	assert.Equal(t, tracking.TrackableKindPlane, hit.Kind)

	_, ok = session.HitTest(snap, 0, 0)
	assert.False(t, ok)
}

func TestEnumStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "paused", tracking.TrackingStatePaused.String())
	assert.Equal(t, "plane", tracking.TrackableKindPlane.String())
	assert.Equal(t, "unknown", tracking.TrackableKindUnknown.String())

	state, err := tracking.ParseTrackingState("stopped")
	require.NoError(t, err)
	assert.Equal(t, tracking.TrackingStateStopped, state)
}
