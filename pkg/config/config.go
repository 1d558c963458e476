// Package config loads tweetwash configuration from YAML and resolves the
// allow-list keep paths from their various sources, including a hot-reloaded
// keep file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tweetwash/tweetwash/pkg/domain"
)

// Config is the root YAML configuration.
type Config struct {
	Fields    FieldsConfig    `yaml:"fields"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// FieldsConfig controls which tweet fields survive sanitising.
type FieldsConfig struct {
	// Keep lists dotted field paths directly in the config file.
	Keep []string `yaml:"keep"`
	// KeepFile points at a file of entries (comma/space/newline separated,
	// '#' comments). Ignored when Keep is non-empty.
	KeepFile string `yaml:"keep_file"`
	// ExcludeMedia removes entities.media from whichever list is used.
	ExcludeMedia bool `yaml:"exclude_media"`
	// Watch rebuilds the allow-list when KeepFile changes on disk.
	Watch bool `yaml:"watch"`
}

// LoggingConfig mirrors pkg/logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig controls optional tracing and metrics exposure.
type TelemetryConfig struct {
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- File path is configured at startup
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("%w: unknown log level %q", domain.ErrConfigInvalid, c.Logging.Level)
	}
	if c.Fields.Watch && c.Fields.KeepFile == "" {
		return fmt.Errorf("%w: fields.watch requires fields.keep_file", domain.ErrConfigInvalid)
	}
	return nil
}

// ResolveKeepPaths determines the effective keep list: the inline Keep list
// wins over KeepFile, which wins over the built-in defaults. The
// exclude-media toggle applies to the result regardless of source.
func (c *Config) ResolveKeepPaths() ([]string, error) {
	paths := c.Fields.Keep

	if len(paths) == 0 && c.Fields.KeepFile != "" {
		// #nosec G304 -- File path is configured at startup
		data, err := os.ReadFile(c.Fields.KeepFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read keep file: %w", err)
		}
		paths = domain.ParseFieldList(string(data))
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrFieldListEmpty, c.Fields.KeepFile)
		}
	}

	if len(paths) == 0 {
		paths = domain.DefaultFields
	}
	if c.Fields.ExcludeMedia {
		paths = domain.ExcludeMedia(paths)
	}
	return paths, nil
}
