package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file and unmarshals it into the specified type.
// T must be a struct type that can be unmarshaled from YAML.
func LoadConfig[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg T
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// LoadHarnessConfig reads a harness YAML configuration file, applies defaults,
// and validates it.
func LoadHarnessConfig(path string) (*Harness, error) {
	logger := log.With().Str("component", "config-loader").Logger()

	cfg, err := LoadConfig[Harness](path)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("harness configuration validation failed: %w", err)
	}

	logger.Info().
		Str("target", cfg.TargetURL).
		Str("class_key", cfg.ClassKey).
		Int("guest_count", cfg.GuestCount).
		Msg("loaded harness configuration")

	return cfg, nil
}
