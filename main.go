/*
This is the desktop viewer: it drives the AR engine with a replayed tracking
scene, an optional input window and a scripted gesture file.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spaghettifunk/anima-ar/engine"
	"github.com/spaghettifunk/anima-ar/engine/assets"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/platform"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/renderer/headless"
	"github.com/spaghettifunk/anima-ar/engine/tracking/replay"
	"github.com/spaghettifunk/anima-ar/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the application config")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until interrupted)")
	flag.Parse()

	if err := run(*configPath, *frames); err != nil {
		core.LogFatal("%s", err)
	}
}

func loadConfig(path string) (*engine.ApplicationConfig, error) {
	config, err := engine.LoadApplicationConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		core.LogWarn("config %s not found, using defaults", path)
		return engine.DefaultApplicationConfig(), nil
	}
	return config, err
}

func run(configPath string, frames uint64) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	level, err := core.ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	rendererType, err := renderer.ParseRendererType(config.Display.Renderer)
	if err != nil {
		return err
	}
	if rendererType != renderer.Headless {
		return errors.New("only the headless renderer ships with the viewer, got " + rendererType.String())
	}
	backend := headless.New()

	am, err := assets.NewAssetManager()
	if err != nil {
		return err
	}
	if err := am.Initialize(config.AssetsDir); err != nil {
		return err
	}
	defer am.Shutdown()

	factory := replay.NewFactory(filepath.Join(am.Root(), config.Tracking.ScenePath), config.Tracking.WatchScene)
	eng, err := engine.New(config, factory, backend, am)
	if err != nil {
		return err
	}
	defer eng.Shutdown()

	if config.ModelPath != "" {
		model := filepath.ToSlash(filepath.Clean(config.ModelPath))
		am.OnChange(func(e assets.AssetEvent) {
			if e.Removed || e.Info.Path != model {
				return
			}
			core.LogInfo("reloading %s", model)
			if err := eng.LoadModel(model); err != nil {
				core.LogWarn("failed to reload %s: %s", model, err)
			}
		})
	}
	eng.Events().Register(core.EVENT_CODE_MODEL_READY, backend, func(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
		core.LogInfo("model %s is on screen", data.Text)
		return false
	})

	var player *testbed.Player
	if config.Testbed.Script != "" {
		script, err := testbed.LoadScript(config.Testbed.Script)
		if err != nil {
			return err
		}
		player = testbed.NewPlayer(script)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	// start shutdown goroutine
	go func() {
		select {
		case <-sigCh:
			core.LogInfo("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := eng.Initialize(ctx); err != nil {
		return err
	}
	if err := eng.Resume(); err != nil {
		return err
	}

	var window *platform.Platform
	width, height := config.Display.Width, config.Display.Height
	if config.Display.Window {
		window = platform.New(eng)
		if err := window.Startup(config.Name, width, height); err != nil {
			return err
		}
		defer window.Shutdown()
	}

	if err := eng.OnSurfaceCreated(); err != nil {
		return err
	}
	rotation, err := config.Rotation()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / config.Display.TargetFPS))
	defer ticker.Stop()

	var drawn uint64
	for frames == 0 || drawn < frames {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if window != nil {
			if !window.PumpMessages() {
				return nil
			}
			width, height = window.Size()
		}
		if player != nil {
			player.Advance(drawn, eng)
		}

		report := eng.OnDrawFrame(width, height, rotation)
		if !report.Skipped {
			drawn++
		}
		if report.Err != nil {
			core.LogDebug("frame %d: %s", report.Number, report.Err)
		}
		backend.Reset()
	}

	placed := eng.Placement()
	core.LogInfo("drew %d frames, object %s, %d gestures dropped", drawn, placed.Phase, eng.DroppedGestures())
	return nil
}
