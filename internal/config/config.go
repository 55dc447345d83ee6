// Package config loads mudra configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/logging"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// MaxPixelRatio caps the render surface pixel ratio.
const MaxPixelRatio = 1.5

// Config is the complete application configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Server    ServerConfig    `yaml:"server"`
	Camera    CameraConfig    `yaml:"camera"`
	Detector  DetectorConfig  `yaml:"detector"`
	Particles ParticlesConfig `yaml:"particles"`
	Render    RenderConfig    `yaml:"render"`
	Logging   logging.Config  `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	WebDir string `yaml:"web_dir"`
}

// CameraConfig configures webcam capture.
type CameraConfig struct {
	DeviceID int `yaml:"device_id"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
}

// DetectorConfig configures hand landmark inference.
type DetectorConfig struct {
	FPS                    int     `yaml:"fps"`
	MaxHands               int     `yaml:"max_hands"`
	ModelComplexity        int     `yaml:"model_complexity"`
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MinTrackingConfidence  float64 `yaml:"min_tracking_confidence"`
}

// ParticlesConfig configures the particle field.
type ParticlesConfig struct {
	// Count trades visual density against frame-rate headroom.
	Count      int     `yaml:"count"`
	Seed       int64   `yaml:"seed"`
	Size       float64 `yaml:"size"`
	PointScale float64 `yaml:"point_scale"`
	Workers    int     `yaml:"workers"`
}

// RenderConfig configures the render loop and output surface.
type RenderConfig struct {
	FPS        int     `yaml:"fps"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PixelRatio float64 `yaml:"pixel_ratio"`
	Window     bool    `yaml:"window"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DataDir: defaultDataDir(),
		Server: ServerConfig{
			Addr: ":8080",
		},
		Camera: CameraConfig{
			DeviceID: 0,
			Width:    480,
			Height:   360,
		},
		Detector: DetectorConfig{
			FPS:                    30,
			MaxHands:               1,
			ModelComplexity:        0,
			MinDetectionConfidence: 0.5,
			MinTrackingConfidence:  0.5,
		},
		Particles: ParticlesConfig{
			Count:      10000,
			Seed:       0,
			Size:       0.025,
			PointScale: 200,
			Workers:    0,
		},
		Render: RenderConfig{
			FPS:        60,
			Width:      960,
			Height:     540,
			PixelRatio: 1,
		},
		Logging: logging.Config{
			Level:    "info",
			Encoding: "console",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// Load reads the YAML file at path over the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	switch {
	case c.Particles.Count <= 0:
		return fmt.Errorf("%w: particles.count must be positive, got %d", ErrInvalid, c.Particles.Count)
	case c.Particles.Size <= 0:
		return fmt.Errorf("%w: particles.size must be positive, got %g", ErrInvalid, c.Particles.Size)
	case c.Particles.PointScale <= 0:
		return fmt.Errorf("%w: particles.point_scale must be positive, got %g", ErrInvalid, c.Particles.PointScale)
	case c.Particles.Workers < 0:
		return fmt.Errorf("%w: particles.workers must not be negative", ErrInvalid)
	case c.Render.FPS <= 0:
		return fmt.Errorf("%w: render.fps must be positive, got %d", ErrInvalid, c.Render.FPS)
	case c.Render.Width <= 0 || c.Render.Height <= 0:
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	case c.Render.PixelRatio <= 0:
		return fmt.Errorf("%w: render.pixel_ratio must be positive", ErrInvalid)
	case c.Detector.FPS <= 0:
		return fmt.Errorf("%w: detector.fps must be positive, got %d", ErrInvalid, c.Detector.FPS)
	case c.Detector.MaxHands != 1:
		return fmt.Errorf("%w: only one tracked hand is supported, got %d", ErrInvalid, c.Detector.MaxHands)
	case c.Detector.ModelComplexity < 0 || c.Detector.ModelComplexity > 1:
		return fmt.Errorf("%w: detector.model_complexity must be 0 or 1", ErrInvalid)
	case !unit(c.Detector.MinDetectionConfidence) || !unit(c.Detector.MinTrackingConfidence):
		return fmt.Errorf("%w: detector confidences must be within [0,1]", ErrInvalid)
	}

	if c.Render.PixelRatio > MaxPixelRatio {
		c.Render.PixelRatio = MaxPixelRatio
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
