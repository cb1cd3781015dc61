// Package config loads imgconv settings from a YAML file.
//
// The file is named by the --config flag or the IMGCONV_CONFIG
// environment variable. There is no discovery: without either, the
// built-in defaults apply.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fumiama/imgconv"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "IMGCONV_CONFIG"

// Config is the converter configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	JPEG JPEGConfig `yaml:"jpeg"`
	BMP  BMPConfig  `yaml:"bmp"`
}

// JPEGConfig configures the JPEG encoder.
type JPEGConfig struct {
	// Quality is the encoder quality in [1, 100].
	Quality int `yaml:"quality"`
}

// BMPConfig configures decoding limits. The ceiling applies to every
// input format, not only BMP.
type BMPConfig struct {
	// MaxPixels is the largest width*height accepted on load.
	MaxPixels int `yaml:"max_pixels"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		JPEG:     JPEGConfig{Quality: imgconv.DefaultJPEGQuality},
		BMP:      BMPConfig{MaxPixels: imgconv.DefaultMaxPixels},
	}
}

// Load reads the file named by path, or by IMGCONV_CONFIG when path is
// empty. With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads path on top of the defaults and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.JPEG.Quality < 1 || c.JPEG.Quality > 100 {
		return fmt.Errorf("jpeg.quality must be in [1, 100], got %d", c.JPEG.Quality)
	}
	if c.BMP.MaxPixels <= 0 {
		return fmt.Errorf("bmp.max_pixels must be positive, got %d", c.BMP.MaxPixels)
	}
	return nil
}

// Options returns the converter options described by c.
func (c *Config) Options() imgconv.Options {
	return imgconv.Options{
		JPEGQuality: c.JPEG.Quality,
		MaxPixels:   c.BMP.MaxPixels,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
