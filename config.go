package brine2d

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by Config.Backend.
const (
	BackendGPU       = "gpu"
	BackendImmediate = "immediate"
)

// DefaultMaxBatchVertices is the batch capacity used when Config leaves it
// zero: 10,000 quads.
const DefaultMaxBatchVertices = 60000

// Config selects and configures a renderer.
type Config struct {
	// Backend is "gpu" (batched) or "immediate" (software).
	Backend string `yaml:"backend"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// ClearColor fills the surface at the first flush of each frame.
	ClearColor Color `yaml:"clear_color"`

	// MaxBatchVertices bounds a single draw call. Rounded down to a
	// multiple of 6 (one quad).
	MaxBatchVertices int `yaml:"max_batch_vertices"`

	// PostProcessing renders the scene into an off-screen target that is
	// composited onto the surface at EndFrame.
	PostProcessing bool `yaml:"post_processing"`

	// DefaultFilter is used by textures the renderer creates internally
	// (render targets, the white pixel).
	DefaultFilter Filter `yaml:"default_filter"`

	Font FontConfig `yaml:"font"`
	Log  LogConfig  `yaml:"log"`
}

// FontConfig describes the default font atlas.
type FontConfig struct {
	// Path to a TTF/OTF file. Empty uses the embedded Go Regular font.
	Path    string  `yaml:"path"`
	Size    float32 `yaml:"size"`
	Filter  Filter  `yaml:"filter"`
	Charset string  `yaml:"charset"` // empty means printable ASCII
}

// LogConfig configures log output of the command line tools.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns a 1280x720 GPU configuration.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendGPU,
		Width:            1280,
		Height:           720,
		ClearColor:       Black,
		MaxBatchVertices: DefaultMaxBatchVertices,
		DefaultFilter:    FilterLinear,
		Font: FontConfig{
			Size:   16,
			Filter: FilterLinear,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// BatchCapacity returns MaxBatchVertices rounded down to whole quads.
func (c Config) BatchCapacity() int {
	return c.MaxBatchVertices - c.MaxBatchVertices%6
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Backend == "":
		return fmt.Errorf("%w: backend is empty", ErrInvalidConfig)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.BatchCapacity() < 6:
		return fmt.Errorf("%w: max_batch_vertices %d holds no quad", ErrInvalidConfig, c.MaxBatchVertices)
	case c.Font.Size < 0:
		return fmt.Errorf("%w: font size %v", ErrInvalidConfig, c.Font.Size)
	}
	return nil
}

// ParseConfig decodes YAML over DefaultConfig, so omitted keys keep their
// defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("brine2d: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. A missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			Logger().Debug("brine2d: config file not found, using defaults", "path", path)
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("brine2d: read config: %w", err)
	}
	return ParseConfig(data)
}

// Marshal encodes c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
