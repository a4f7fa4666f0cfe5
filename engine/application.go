package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima-ar/engine/core"
	"github.com/spaghettifunk/anima-ar/engine/math"
	"github.com/spaghettifunk/anima-ar/engine/placement"
	"github.com/spaghettifunk/anima-ar/engine/renderer"
	"github.com/spaghettifunk/anima-ar/engine/systems"
	"github.com/spaghettifunk/anima-ar/engine/tracking"
)

type DisplayConfig struct {
	// Surface size in pixels.
	Width  int32 `toml:"width"`
	Height int32 `toml:"height"`
	// Display rotation in degrees: 0, 90, 180 or 270.
	RotationDegrees int32   `toml:"rotation"`
	TargetFPS       float64 `toml:"target_fps"`
	// Open a desktop window that turns mouse and keyboard input into gestures.
	Window   bool   `toml:"window"`
	Renderer string `toml:"renderer"`
}

type TrackingConfig struct {
	NearClip float32 `toml:"near_clip"`
	FarClip  float32 `toml:"far_clip"`
	// Replay scene driving the tracking service.
	ScenePath  string `toml:"scene_path"`
	WatchScene bool   `toml:"watch_scene"`
}

type PlacementConfig struct {
	InitialScale float32    `toml:"initial_scale"`
	MinScale     float32    `toml:"min_scale"`
	RotationAxis [3]float32 `toml:"rotation_axis"`
	AllowClear   bool       `toml:"allow_clear"`
}

type InputConfig struct {
	QueueSize int `toml:"queue_size"`
}

type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type ModelConfig struct {
	AutoUpAxis          bool   `toml:"auto_up_axis"`
	MaxTextureDimension uint32 `toml:"max_texture_dimension"`
}

type TestbedConfig struct {
	// Scripted gestures replayed by the host shell.
	Script string `toml:"script"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name     string `toml:"name"`
	LogLevel string `toml:"log_level"`
	// Root of the asset index. Model and scene paths are relative to it.
	AssetsDir string `toml:"assets_dir"`
	// Model loaded at start; empty shows a unit cube.
	ModelPath string `toml:"model_path"`

	Display   DisplayConfig   `toml:"display"`
	Tracking  TrackingConfig  `toml:"tracking"`
	Placement PlacementConfig `toml:"placement"`
	Input     InputConfig     `toml:"input"`
	Jobs      JobsConfig      `toml:"jobs"`
	Model     ModelConfig     `toml:"model"`
	Testbed   TestbedConfig   `toml:"testbed"`
}

func DefaultApplicationConfig() *ApplicationConfig {
	session := tracking.DefaultSessionConfig()
	place := placement.DefaultConfig()
	return &ApplicationConfig{
		Name:      "anima-ar",
		LogLevel:  "info",
		AssetsDir: "assets",
		Display: DisplayConfig{
			Width:     1080,
			Height:    1920,
			TargetFPS: 30,
			Renderer:  renderer.Headless.String(),
		},
		Tracking: TrackingConfig{
			NearClip:  session.NearClip,
			FarClip:   session.FarClip,
			ScenePath: "scenes/demo.toml",
		},
		Placement: PlacementConfig{
			InitialScale: place.InitialScale,
			MinScale:     place.MinScale,
			RotationAxis: [3]float32{place.RotationAxis.X, place.RotationAxis.Y, place.RotationAxis.Z},
		},
		Input: InputConfig{QueueSize: 64},
		Jobs:  JobsConfig{Workers: 1, QueueSize: 4},
		Model: ModelConfig{AutoUpAxis: true, MaxTextureDimension: 2048},
	}
}

/**
 * @brief Decodes a TOML document over the defaults and validates the result.
 * Keys missing from the document keep their default value; unknown keys
 * are rejected.
 */
func ParseApplicationConfig(data []byte) (*ApplicationConfig, error) {
	config := DefaultApplicationConfig()
	decoder := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var derr *toml.DecodeError
		var serr *toml.StrictMissingError
		switch {
		case errors.As(err, &derr):
			row, col := derr.Position()
			return nil, fmt.Errorf("config %d:%d: %s: %w", row, col, derr.Error(), core.ErrInvalidConfig)
		case errors.As(err, &serr):
			return nil, fmt.Errorf("unknown config keys: %s: %w", serr.String(), core.ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseApplicationConfig(data)
}

func (c *ApplicationConfig) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), core.ErrInvalidConfig)
	}
	if _, err := core.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return invalid("display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if _, err := c.Rotation(); err != nil {
		return err
	}
	if c.Display.TargetFPS <= 0 {
		return invalid("target_fps must be positive, got %f", c.Display.TargetFPS)
	}
	if _, err := renderer.ParseRendererType(c.Display.Renderer); err != nil {
		return err
	}
	if c.Tracking.NearClip <= 0 || c.Tracking.FarClip <= c.Tracking.NearClip {
		return invalid("clip planes near=%f far=%f", c.Tracking.NearClip, c.Tracking.FarClip)
	}
	if c.Placement.InitialScale <= 0 || c.Placement.MinScale < 0 || c.Placement.InitialScale < c.Placement.MinScale {
		return invalid("placement scales initial=%f min=%f", c.Placement.InitialScale, c.Placement.MinScale)
	}
	if c.Input.QueueSize <= 0 {
		return invalid("input queue_size must be positive, got %d", c.Input.QueueSize)
	}
	if c.Jobs.Workers <= 0 || c.Jobs.QueueSize < 0 {
		return invalid("jobs workers=%d queue_size=%d", c.Jobs.Workers, c.Jobs.QueueSize)
	}
	return nil
}

// Rotation converts the configured degrees to a display rotation.
func (c *ApplicationConfig) Rotation() (tracking.DisplayRotation, error) {
	switch c.Display.RotationDegrees {
	case 0:
		return tracking.Rotation0, nil
	case 90:
		return tracking.Rotation90, nil
	case 180:
		return tracking.Rotation180, nil
	case 270:
		return tracking.Rotation270, nil
	}
	return tracking.Rotation0, fmt.Errorf("display rotation must be 0, 90, 180 or 270, got %d: %w", c.Display.RotationDegrees, core.ErrInvalidConfig)
}

func (c *ApplicationConfig) SessionConfig() tracking.SessionConfig {
	return tracking.SessionConfig{NearClip: c.Tracking.NearClip, FarClip: c.Tracking.FarClip}
}

func (c *ApplicationConfig) PlacementConfig() placement.Config {
	axis := c.Placement.RotationAxis
	return placement.Config{
		InitialScale: c.Placement.InitialScale,
		MinScale:     c.Placement.MinScale,
		RotationAxis: math.NewVec3(axis[0], axis[1], axis[2]),
		AllowClear:   c.Placement.AllowClear,
	}
}

func (c *ApplicationConfig) ModelSystemConfig() systems.ModelSystemConfig {
	return systems.ModelSystemConfig{
		AutoUpAxis:          c.Model.AutoUpAxis,
		MaxTextureDimension: c.Model.MaxTextureDimension,
	}
}
