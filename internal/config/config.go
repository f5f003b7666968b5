// Package config loads the optional hl7lens YAML configuration file shared by
// the CLI and the web adapter. Command line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that points at a config file.
const EnvPath = "HL7LENS_CONFIG"

// DefaultMaxBodyBytes bounds HTTP request bodies when unset.
const DefaultMaxBodyBytes = 1 << 20

// DefaultListen is the web adapter listen address when unset.
const DefaultListen = ":8080"

// ColorMode selects when terminal output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a color mode name. Empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return ColorMode(s), nil
	}
	return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Config is the on-disk configuration.
type Config struct {
	// Listen is the web adapter address.
	Listen string `yaml:"listen"`

	// Definitions lists extra definition files or directories merged into
	// the embedded registry, in order.
	Definitions []string `yaml:"definitions"`

	// EventLog is the capture log path. Empty disables capture.
	EventLog string `yaml:"event_log"`

	// Advertise enables mDNS advertisement of the web adapter.
	Advertise bool `yaml:"advertise"`

	// InstanceName overrides the advertised mDNS instance name.
	InstanceName string `yaml:"instance_name"`

	Color ColorMode `yaml:"color"`

	// MaxBodyBytes bounds HTTP request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:       DefaultListen,
		Color:        ColorAuto,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Load reads the file at path over the defaults. Relative definition paths
// are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, d := range cfg.Definitions {
		if !filepath.IsAbs(d) {
			cfg.Definitions[i] = filepath.Join(base, d)
		}
	}
	if cfg.EventLog != "" && !filepath.IsAbs(cfg.EventLog) {
		cfg.EventLog = filepath.Join(base, cfg.EventLog)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path, or the file named by EnvPath when path is empty.
// With neither set it returns Default.
func Resolve(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks field values and fills zero values with defaults.
func (c *Config) Validate() error {
	mode, err := ParseColorMode(string(c.Color))
	if err != nil {
		return err
	}
	c.Color = mode

	if c.MaxBodyBytes < 0 {
		return errors.New("max_body_bytes must not be negative")
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	return nil
}
