// SPDX-License-Identifier: Apache-2.0

// Package config loads projectio settings from defaults, an optional YAML
// file, PROJECTIO_* environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
)

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultMaxManifestBytes  = 10 * 1024 * 1024
	DefaultClassifierVariant = VariantDTrees
	DefaultNeighbours        = 5
)

// Classifier variant keys.
const (
	VariantDTrees   = "dtrees"
	VariantKNearest = "knearest"
)

// EnvPrefix is the prefix of environment variables read into the config.
const EnvPrefix = "PROJECTIO_"

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
}

// LoaderConfig tunes manifest loading.
type LoaderConfig struct {
	MaxManifestBytes int64 `koanf:"max_manifest_bytes"`
}

// Classifier selects and parameterizes the classifier variant.
type Classifier struct {
	Variant string `koanf:"variant"`
	K       int    `koanf:"k"` // neighbours for the knearest variant
}

// Config holds all projectio settings.
type Config struct {
	Log        LogConfig    `koanf:"log"`
	Loader     LoaderConfig `koanf:"loader"`
	Classifier Classifier   `koanf:"classifier"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Loader: LoaderConfig{
			MaxManifestBytes: DefaultMaxManifestBytes,
		},
		Classifier: Classifier{
			Variant: DefaultClassifierVariant,
			K:       DefaultNeighbours,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format %q: must be json or console", c.Log.Format)
	}
	if c.Loader.MaxManifestBytes <= 0 {
		return fmt.Errorf("loader.max_manifest_bytes must be positive, got %d", c.Loader.MaxManifestBytes)
	}
	switch strings.ToLower(c.Classifier.Variant) {
	case VariantDTrees, VariantKNearest:
	case "":
		return fmt.Errorf("classifier.variant is required")
	default:
		return fmt.Errorf("invalid classifier.variant %q: must be %s or %s", c.Classifier.Variant, VariantDTrees, VariantKNearest)
	}
	if c.Classifier.K < 1 {
		return fmt.Errorf("classifier.k must be positive, got %d", c.Classifier.K)
	}
	return nil
}
