// Package config loads runtime settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "SNAPFILTER_CONFIG"
	EnvLogLevel   = "LOG_LEVEL"
	EnvCamera     = "SNAPFILTER_CAMERA"
	EnvChain      = "SNAPFILTER_CHAIN"
)

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Camera   CameraConfig  `yaml:"camera"`
	Session  SessionConfig `yaml:"session"`
	Export   ExportConfig  `yaml:"export"`
}

type CameraConfig struct {
	DeviceID     int `yaml:"device_id"`
	WarmupFrames int `yaml:"warmup_frames"`
	// Width and Height request a capture size; 0 keeps the device default.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type SessionConfig struct {
	ChainFilters bool `yaml:"chain_filters"`
}

type ExportConfig struct {
	Format      string `yaml:"format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Camera: CameraConfig{
			DeviceID:     0,
			WarmupFrames: 5,
		},
		Session: SessionConfig{
			ChainFilters: true,
		},
		Export: ExportConfig{
			Format:      "png",
			JPEGQuality: 95,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv is Load with the path taken from SNAPFILTER_CONFIG.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}

	if v, ok := lookup(EnvCamera); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer device id, got %q", EnvCamera, v)
		}
		c.Camera.DeviceID = id
	}

	if v, ok := lookup(EnvChain); ok && v != "" {
		chain, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s must be a boolean, got %q", EnvChain, v)
		}
		c.Session.ChainFilters = chain
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "off", "disabled":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	if c.Camera.DeviceID < 0 {
		errs = append(errs, fmt.Errorf("camera.device_id must be >= 0, got %d", c.Camera.DeviceID))
	}

	if c.Camera.WarmupFrames < 0 || c.Camera.WarmupFrames > 120 {
		errs = append(errs, fmt.Errorf("camera.warmup_frames must be between 0 and 120, got %d", c.Camera.WarmupFrames))
	}

	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		errs = append(errs, fmt.Errorf("camera size must not be negative, got %dx%d", c.Camera.Width, c.Camera.Height))
	}

	switch NormalizeFormat(c.Export.Format) {
	case "png", "jpeg", "bmp", "tiff":
	default:
		errs = append(errs, fmt.Errorf("export.format must be png, jpeg, bmp or tiff, got %q", c.Export.Format))
	}

	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("export.jpeg_quality must be between 1 and 100, got %d", c.Export.JPEGQuality))
	}

	return errors.Join(errs...)
}

// NormalizeFormat maps extensions and aliases to encoder names.
func NormalizeFormat(format string) string {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	switch f {
	case "jpg", "jpeg":
		return "jpeg"
	case "tif", "tiff":
		return "tiff"
	default:
		return f
	}
}
