package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newManager(t *testing.T, dir string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { am.Shutdown() })
	return am
}

func TestDetermineAssetType(t *testing.T) {
	t.Parallel()

	tests := map[string]AssetType{
		"models/cube.toml":   AssetTypeModel,
		"scenes/demo.toml":   AssetTypeScene,
		"textures/wood.PNG":  AssetTypeImage,
		"textures/wood.webp": AssetTypeImage,
		"readme.md":          AssetTypeNone,
	}
	for path, expected := range tests {
		assert.Equal(t, expected, determineAssetType(path), path)
	}
}

func TestInitializeIndexesTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "models", "cube.toml"), "")
	writeFile(t, filepath.Join(dir, "scenes", "demo.toml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	am := newManager(t, dir)
	assert.Equal(t, 2, am.Len())
	assert.Equal(t, []string{"models/cube.toml"}, am.List(AssetTypeModel))

	info, ok := am.Info("scenes/demo.toml")
	require.True(t, ok)
	assert.Equal(t, AssetTypeScene, info.Type)
}

func TestInitializeRejectsMissingDir(t *testing.T) {
	t.Parallel()

	am, err := NewAssetManager()
	require.NoError(t, err)
	defer am.Shutdown()
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "missing")))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "models", "cube.toml"), "name = 'cube'")
	am := newManager(t, dir)

	data, err := am.Open("models/cube.toml")
	require.NoError(t, err)
	assert.Equal(t, "name = 'cube'", string(data))

	info, ok := am.Info("models/cube.toml")
	require.True(t, ok)
	assert.False(t, info.LastLoaded.IsZero())

	_, err = am.Open("models/missing.toml")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = am.Open("../outside.toml")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestOpenBeforeInitialize(t *testing.T) {
	t.Parallel()

	am, err := NewAssetManager()
	require.NoError(t, err)
	defer am.Shutdown()

	_, err = am.Open("models/cube.toml")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestWatcherTracksChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	am := newManager(t, dir)

	var mu sync.Mutex
	var events []AssetEvent
	am.OnChange(func(e AssetEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	path := filepath.Join(dir, "models", "late.toml")
	writeFile(t, path, "")
	assert.Eventually(t, func() bool {
		_, ok := am.Info("models/late.toml")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool {
		_, ok := am.Info("models/late.toml")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) > 0 && events[len(events)-1].Removed
	}, 5*time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	am := newManager(t, t.TempDir())
	assert.NoError(t, am.Shutdown())
	assert.NoError(t, am.Shutdown())
}
