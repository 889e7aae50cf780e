package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/framepipe/internal/pipeline"
)

// fileConfig mirrors the TOML layout: pipeline settings live under the
// [pipeline] table.
type fileConfig struct {
	Pipeline pipeline.Config `toml:"pipeline"`
}

// LoadPipelineConfig reads pipeline settings from a TOML file, layered over
// the defaults. An empty path returns the defaults; a missing or invalid
// file is an error so callers never run on half-applied settings.
func LoadPipelineConfig(path string) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	raw := fileConfig{Pipeline: cfg}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := raw.Pipeline.Validate(); err != nil {
		return cfg, err
	}
	return raw.Pipeline, nil
}
