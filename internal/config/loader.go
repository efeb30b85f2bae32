package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML): PODIUM_CONFIG if set, else podium/config.yaml under
//     the XDG config search path when present
//  3. env (prefix PODIUM_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	path := os.Getenv("PODIUM_CONFIG")
	if path == "" {
		// Missing default file is fine; an explicit PODIUM_CONFIG is not.
		if found, err := xdg.SearchConfigFile("podium/config.yaml"); err == nil {
			path = found
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PODIUM_ADDR, PODIUM_MAX_ITERATIONS, ...
	// Map env keys like PODIUM_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PODIUM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "podium_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy.
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Tolerance <= 0:
		return fmt.Errorf("%w: tolerance must be positive", ErrInvalidConfig)
	case c.MaxIterations < 0:
		return fmt.Errorf("%w: max_iterations must not be negative", ErrInvalidConfig)
	case c.Engine != "reference" && c.Engine != "matrix":
		return fmt.Errorf("%w: engine must be \"reference\" or \"matrix\"", ErrInvalidConfig)
	case c.ResultsFormat != "tsv" && c.ResultsFormat != "csv":
		return fmt.Errorf("%w: results_format must be \"tsv\" or \"csv\"", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
