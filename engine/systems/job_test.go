package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidates(t *testing.T) {
	t.Parallel()

	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsCallbacks(t *testing.T) {
	t.Parallel()

	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	var wg sync.WaitGroup
	boom := errors.New("boom")
	for i := 0; i < 20; i++ {
		wg.Add(1)
		fail := i%4 == 0
		require.NoError(t, js.Submit(Job{
			Name: "work",
			Run: func() error {
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() {
				completed.Add(1)
				wg.Done()
			},
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
				wg.Done()
			},
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(15), completed.Load())
	assert.Equal(t, int32(5), failed.Load())
	require.NoError(t, js.Shutdown())
}

func TestShutdownDrainsQueue(t *testing.T) {
	t.Parallel()

	js, err := NewJobSystem(1, 16)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, js.Submit(Job{Run: func() error { ran.Add(1); return nil }}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(10), ran.Load())

	assert.ErrorIs(t, js.Submit(Job{Run: func() error { return nil }}), ErrJobSystemClosed)
	assert.ErrorIs(t, js.TrySubmit(Job{Run: func() error { return nil }}), ErrJobSystemClosed)
	assert.NoError(t, js.Shutdown())
}

func TestTrySubmitReportsFullQueue(t *testing.T) {
	t.Parallel()

	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, js.Submit(Job{Run: func() error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	// the worker is busy, so the single slot fills up
	require.NoError(t, js.TrySubmit(Job{Run: func() error { return nil }}))
	assert.ErrorIs(t, js.TrySubmit(Job{Run: func() error { return nil }}), core.ErrQueueFull)
	close(release)

	assert.ErrorIs(t, js.Submit(Job{}), ErrInvalidJob)
}
