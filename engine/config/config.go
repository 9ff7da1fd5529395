// Package config holds the engine's tunables: numeric tolerances, projection, viewport,
// backend choice and loop cadence. Files are YAML or TOML, and OXY4D_* environment variables
// override whatever the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Carmen-Shannon/oxy4d/engine/geometry"
	"github.com/Carmen-Shannon/oxy4d/engine/hypermath"
	"github.com/Carmen-Shannon/oxy4d/engine/projector"
	"github.com/Carmen-Shannon/oxy4d/engine/renderer"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("invalid config")
)

// Tolerances are the numeric epsilons of the math core.
type Tolerances struct {
	// Projection is the smallest magnitude a projection denominator may take.
	Projection float64 `yaml:"projection" toml:"projection"`

	// Rotor is the allowed drift of |rotor| from 1 before renormalization.
	Rotor float64 `yaml:"rotor" toml:"rotor"`
}

// Projection configures how 4D points are flattened.
type Projection struct {
	Mode     projector.Mode `yaml:"mode" toml:"mode"`
	Distance float64        `yaml:"distance" toml:"distance"`
}

// Viewport is the initial back-buffer size in pixels.
type Viewport struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// Scene selects the polytope the command line tools load.
type Scene struct {
	Polytope string  `yaml:"polytope" toml:"polytope"`
	Radius   float64 `yaml:"radius" toml:"radius"`
}

// Config is the complete engine configuration.
type Config struct {
	Tolerances Tolerances           `yaml:"tolerances" toml:"tolerances"`
	Projection Projection           `yaml:"projection" toml:"projection"`
	Viewport   Viewport             `yaml:"viewport" toml:"viewport"`
	Scene      Scene                `yaml:"scene" toml:"scene"`
	Backend    renderer.BackendType `yaml:"backend" toml:"backend"`
	FrameRate  float64              `yaml:"frame_rate" toml:"frame_rate"`
	LogLevel   string               `yaml:"log_level" toml:"log_level"`
}

// Default returns the built-in configuration.
//
// Returns:
//   - *Config: a perspective projection at distance 3, 800x600 on the webgl backend at 60 fps
func Default() *Config {
	return &Config{
		Tolerances: Tolerances{
			Projection: projector.DefaultEpsilon,
			Rotor:      hypermath.DefaultRotorEpsilon,
		},
		Projection: Projection{
			Mode:     projector.ModePerspective,
			Distance: projector.DefaultDistance,
		},
		Viewport:  Viewport{Width: 800, Height: 600},
		Scene:     Scene{Polytope: "tesseract", Radius: 1},
		Backend:   renderer.BackendTypeWebGL,
		FrameRate: 60,
		LogLevel:  "info",
	}
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults, then applies
// environment overrides. An empty path yields the defaults plus overrides.
//
// Parameters:
//   - path: the config file path, may be empty
//
// Returns:
//   - *Config: the resolved configuration, not yet validated
//   - error: an error if the file cannot be read or parsed, or an override is malformed
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(filepath.Ext(path), data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(ext string, data []byte) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys %v", undecoded)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes the configuration as YAML or TOML depending on the extension.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: an error if the format is unsupported or the file cannot be written
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks every field for a usable value.
//
// Returns:
//   - error: every problem joined, each wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !positive(c.Tolerances.Projection) {
		invalid("tolerances.projection must be positive, got %g", c.Tolerances.Projection)
	}
	if !positive(c.Tolerances.Rotor) {
		invalid("tolerances.rotor must be positive, got %g", c.Tolerances.Rotor)
	}
	if !c.Projection.Mode.Valid() {
		invalid("projection.mode %d", uint32(c.Projection.Mode))
	}
	if !positive(c.Projection.Distance) {
		invalid("projection.distance must be positive, got %g", c.Projection.Distance)
	}
	if err := renderer.CheckSize(c.Viewport.Width, c.Viewport.Height); err != nil {
		invalid("viewport: %v", err)
	}
	if _, err := geometry.ByName(c.Scene.Polytope, 1); err != nil {
		invalid("scene.polytope: %v", err)
	}
	if !positive(c.Scene.Radius) {
		invalid("scene.radius must be positive, got %g", c.Scene.Radius)
	}
	if _, err := c.Backend.MarshalText(); err != nil {
		invalid("backend: %v", err)
	}
	if !positive(c.FrameRate) {
		invalid("frame_rate must be positive, got %g", c.FrameRate)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		invalid("log_level: %v", err)
	}
	return errors.Join(errs...)
}

// positive rejects NaN and infinities along with non-positive values.
func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

// Projector returns the projection configuration the tolerances and projection settings describe.
func (c *Config) Projector() projector.Projector {
	return projector.Projector{
		Mode:     c.Projection.Mode,
		Distance: c.Projection.Distance,
		Epsilon:  c.Tolerances.Projection,
	}
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
