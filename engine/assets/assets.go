package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/anima-ar/engine/core"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeModel
	AssetTypeImage
	AssetTypeScene
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeModel:
		return "model"
	case AssetTypeImage:
		return "image"
	case AssetTypeScene:
		return "scene"
	}
	return "none"
}

type AssetInfo struct {
	// Path relative to the assets root, slash separated.
	Path       string
	Type       AssetType
	LastLoaded time.Time
}

type AssetEvent struct {
	Info    AssetInfo
	Removed bool
}

/**
 * @brief Keeps an index of the files under an assets directory, kept fresh
 * by watching every sub-directory, and serves their contents.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	mutex   sync.RWMutex
	now     func() time.Time
	onEvent []func(AssetEvent)

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		now:      time.Now,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	s, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("assets dir %s: %w", assetsDir, err)
	}
	if !s.IsDir() {
		return fmt.Errorf("assets dir %s is not a directory: %w", assetsDir, core.ErrInvalidConfig)
	}
	am.root = root

	if err := am.watchRecursive(root, false); err != nil {
		return err
	}

	am.wg.Add(1)
	go am.start()

	core.LogInfo("indexed %d assets under %s", am.Len(), root)
	return nil
}

// OnChange registers fn to be called from the watcher goroutine whenever an
// indexed file is created, written or removed.
func (am *AssetManager) OnChange(fn func(AssetEvent)) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.onEvent = append(am.onEvent, fn)
}

/**
 * @brief Reads an asset. The path is relative to the assets root. Files
 * that exist on disk but were not indexed yet are indexed on the way.
 *
 * @return The file contents, or an error wrapping ErrAssetNotFound.
 */
func (am *AssetManager) Open(path string) ([]byte, error) {
	key, full, err := am.resolve(path)
	if err != nil {
		return nil, err
	}

	am.mutex.RLock()
	_, exists := am.assets[key]
	am.mutex.RUnlock()

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrAssetNotFound)
		}
		return nil, err
	}
	if !exists {
		am.handleFileEvent(full)
	}

	am.mutex.Lock()
	if asset, ok := am.assets[key]; ok {
		asset.LastLoaded = am.now()
		am.assets[key] = asset
	}
	am.mutex.Unlock()
	return data, nil
}

func (am *AssetManager) Info(path string) (AssetInfo, bool) {
	key, _, err := am.resolve(path)
	if err != nil {
		return AssetInfo{}, false
	}
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[key]
	return info, ok
}

// List returns the indexed paths of the given type.
func (am *AssetManager) List(assetType AssetType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	var out []string
	for key, info := range am.assets {
		if info.Type == assetType {
			out = append(out, key)
		}
	}
	return out
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

func (am *AssetManager) Root() string {
	return am.root
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	err := am.fsnotify.Close()
	am.wg.Wait()
	return err
}

func (am *AssetManager) resolve(path string) (key string, full string, err error) {
	if am.root == "" {
		return "", "", fmt.Errorf("asset manager is not initialized: %w", ErrAssetNotFound)
	}
	full = path
	if !filepath.IsAbs(full) {
		full = filepath.Join(am.root, path)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(am.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%s is outside the assets dir: %w", path, ErrAssetNotFound)
	}
	return filepath.ToSlash(rel), full, nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if info, ok := am.handleFileEvent(e.Name); ok {
					am.notify(AssetEvent{Info: info})
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				if info, ok := am.removeAsset(e.Name); ok {
					am.notify(AssetEvent{Info: info, Removed: true})
				}
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(err.Error())

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) notify(e AssetEvent) {
	am.mutex.RLock()
	listeners := am.onEvent
	am.mutex.RUnlock()
	for _, fn := range listeners {
		fn(e)
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) (AssetInfo, bool) {
	key, _, err := am.resolve(path)
	if err != nil {
		return AssetInfo{}, false
	}
	assetType := determineAssetType(key)
	if assetType == AssetTypeNone {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := AssetInfo{Path: key, Type: assetType, LastLoaded: am.assets[key].LastLoaded}
	am.assets[key] = info
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) (AssetInfo, bool) {
	key, _, err := am.resolve(path)
	if err != nil {
		return AssetInfo{}, false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info, ok := am.assets[key]
	delete(am.assets, key)
	return info, ok
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
		return AssetTypeImage
	case ".toml":
		if strings.Contains(path, "scenes/") {
			return AssetTypeScene
		}
		return AssetTypeModel
	default:
		return AssetTypeNone
	}
}
