package engineconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EngineConfigPath is the path to the engine config file, relative to the process working directory.
const EngineConfigPath = "config/engine.yaml"

var ErrInvalidConfig = errors.New("invalid engine config")

// Placement source names.
const (
	SourcePlane   = "plane"
	SourceSurface = "surface"
)

type Placement struct {
	Enabled     bool    `yaml:"enabled"`
	Source      string  `yaml:"source"`
	PlaneHeight float32 `yaml:"plane_height"`
}

type Pointer struct {
	DefaultDepth float32 `yaml:"default_depth"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type Window struct {
	Width     int32  `yaml:"width"`
	Height    int32  `yaml:"height"`
	TargetFPS int32  `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

type Camera struct {
	MoveSpeed   float32 `yaml:"move_speed"`
	RotateSpeed float32 `yaml:"rotate_speed"`
	ZoomSpeed   float32 `yaml:"zoom_speed"`
}

// Config holds engine and viewer preferences. Persisted across runs.
type Config struct {
	Placement   Placement `yaml:"placement"`
	Pointer     Pointer   `yaml:"pointer"`
	Log         Log       `yaml:"log"`
	Window      Window    `yaml:"window"`
	Camera      Camera    `yaml:"camera"`
	GridVisible bool      `yaml:"grid_visible"`
	ShowDebug   bool      `yaml:"show_debug"`
}

// Default returns the default config: ground-plane placement on, grid on, debug overlay off.
func Default() Config {
	return Config{
		Placement:   Placement{Enabled: true, Source: SourcePlane},
		Pointer:     Pointer{DefaultDepth: 1},
		Log:         Log{Level: "info"},
		Window:      Window{Width: 1280, Height: 720, TargetFPS: 60, Title: "Spatial Viewer"},
		Camera:      Camera{MoveSpeed: 5, RotateSpeed: 0.2, ZoomSpeed: 1},
		GridVisible: true,
	}
}

// Load reads path over the defaults, so keys absent from the file keep their default value.
// A missing file returns Default() and no error. An unreadable or invalid file returns
// Default() and the error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first out-of-range value, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Placement.Source != SourcePlane && c.Placement.Source != SourceSurface:
		return fmt.Errorf("%w: placement.source %q", ErrInvalidConfig, c.Placement.Source)
	case c.Pointer.DefaultDepth <= 0:
		return fmt.Errorf("%w: pointer.default_depth must be positive", ErrInvalidConfig)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Camera.MoveSpeed <= 0 || c.Camera.RotateSpeed <= 0 || c.Camera.ZoomSpeed <= 0:
		return fmt.Errorf("%w: camera speeds must be positive", ErrInvalidConfig)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
