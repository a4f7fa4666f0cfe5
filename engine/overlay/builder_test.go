package overlay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

func square() []float32 {
	return []float32{-1, -1, 1, -1, 1, 1, -1, 1}
}

func TestBuildOverlayTranslatedSquare(t *testing.T) {
	t.Parallel()

	plane := tracking.TrackedPlane{
		State:      tracking.TrackingStateTracking,
		CenterPose: math.NewMat4Translation(math.NewVec3(0, 0, -2)),
		Polygon:    square(),
	}

	got, err := BuildOverlay(plane)
	require.NoError(t, err)

	want := []math.Vec3{
		{X: -1, Y: 0, Z: -3},
		{X: 1, Y: 0, Z: -3},
		{X: 1, Y: 0, Z: -1},
		{X: -1, Y: 0, Z: -1},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildOverlayMatchesTransformPoint(t *testing.T) {
	t.Parallel()

	pose := math.NewMat4Translation(math.NewVec3(0.4, 1.1, -0.7)).
		Mul(math.NewMat4Rotation(math.DegToRad(90), math.NewVec3(1, 0, 0)))
	polygon := []float32{0.1, 0.2, -0.3, 0.4, 0.5, -0.6}
	plane := tracking.TrackedPlane{State: tracking.TrackingStateTracking, CenterPose: pose, Polygon: polygon}

	got, err := BuildOverlay(plane)
	require.NoError(t, err)
	require.Len(t, got, len(polygon)/2)
	for i := range got {
		expected := math.TransformPoint(pose, math.NewVec3(polygon[2*i], 0, polygon[2*i+1]))
		assert.True(t, expected.Compare(got[i], 1e-6))
	}
}

func TestBuildOverlaySkipsNonTrackingPlanes(t *testing.T) {
	t.Parallel()

	for _, state := range []tracking.TrackingState{tracking.TrackingStatePaused, tracking.TrackingStateStopped} {
		got, err := BuildOverlay(tracking.TrackedPlane{State: state, CenterPose: math.NewMat4Identity(), Polygon: square()})
		require.NoError(t, err)
		assert.Empty(t, got, state.String())
	}
}

func TestBuildOverlayEdgeCases(t *testing.T) {
	t.Parallel()

	got, err := BuildOverlay(tracking.TrackedPlane{CenterPose: math.NewMat4Identity()})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = BuildOverlay(tracking.TrackedPlane{CenterPose: math.NewMat4Identity(), Polygon: []float32{1, 2, 3}})
	assert.ErrorIs(t, err, core.ErrMalformedPolygon)
}

func TestBuilderReusesBuffer(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	first, err := b.Build(tracking.TrackedPlane{CenterPose: math.NewMat4Identity(), Polygon: square()})
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := b.Build(tracking.TrackedPlane{CenterPose: math.NewMat4Identity(), Polygon: []float32{0, 0, 1, 0, 0, 1}})
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Same(t, &first[0], &second[0])

	_, err = b.Build(tracking.TrackedPlane{CenterPose: math.NewMat4Identity(), Polygon: []float32{0}})
	assert.ErrorIs(t, err, core.ErrMalformedPolygon)
}

func TestFanIndices(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FanIndices(2))
	assert.Equal(t, []uint32{0, 1, 2}, FanIndices(3))
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, FanIndices(4))
}
