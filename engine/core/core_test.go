package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsAverageAndFPS(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	refreshed := false
	for i := 0; i < int(AVG_COUNT)*2; i++ {
		if m.Update(1.0 / 30.0) {
			refreshed = true
		}
	}

	assert.True(t, refreshed)
	assert.InDelta(t, 1000.0/30.0, m.FrameTime(), 1e-6)
	assert.InDelta(t, 30, m.FPS(), 1)
}

func TestMetricsBeforeFirstWindow(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	assert.False(t, m.Update(0.016))
	fps, avg := m.Frame()
	assert.Zero(t, fps)
	assert.Zero(t, avg)
}

func TestClock(t *testing.T) {
	t.Parallel()

	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}

	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = now.Add(250 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 0.25, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 0.25, c.Elapsed(), 1e-9)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		"":        LogLevelInfo,
		"INFO":    LogLevelInfo,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestEventBus(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	var got []string
	record := func(name string, handled bool) FnOnEvent {
		return func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool {
			got = append(got, name+":"+data.Text)
			return handled
		}
	}

	first, second := "first", "second"
	require.True(t, bus.Register(EVENT_CODE_MODEL_READY, &first, record("first", false)))
	require.True(t, bus.Register(EVENT_CODE_MODEL_READY, &second, record("second", true)))
	assert.False(t, bus.Register(EVENT_CODE_MODEL_READY, &first, record("again", false)))
	assert.False(t, bus.Register(EVENT_CODE_MODEL_READY, &first, nil))

	assert.True(t, bus.Fire(EVENT_CODE_MODEL_READY, nil, EventContext{Text: "cube"}))
	assert.Equal(t, []string{"first:cube", "second:cube"}, got)

	assert.False(t, bus.Fire(EVENT_CODE_OBJECT_PLACED, nil, EventContext{}))

	require.True(t, bus.Unregister(EVENT_CODE_MODEL_READY, &second))
	assert.False(t, bus.Unregister(EVENT_CODE_MODEL_READY, &second))
	got = nil
	assert.False(t, bus.Fire(EVENT_CODE_MODEL_READY, nil, EventContext{Text: "tower"}))
	assert.Equal(t, []string{"first:tower"}, got)

	require.NoError(t, bus.Shutdown())
	assert.False(t, bus.Fire(EVENT_CODE_MODEL_READY, nil, EventContext{}))
}
