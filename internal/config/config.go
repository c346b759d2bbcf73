// Package config handles scenetool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/scenepack/internal/state"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all scenetool settings.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Search     SearchConfig     `yaml:"search"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PipelineConfig controls how scenes are written.
type PipelineConfig struct {
	Output            string `yaml:"output"`              // empty: overwrite the input scene
	Version           uint8  `yaml:"version"`             // stamped on output; 0 keeps the input's
	InitialBufferSize int    `yaml:"initial_buffer_size"` // builder capacity in bytes
}

// SearchConfig holds asset lookup settings.
type SearchConfig struct {
	Locations  []string `yaml:"locations"`   // a "/**" suffix searches recursively
	EmbedFiles []string `yaml:"embed_files"` // path regexps, embedded before extensions run
}

// ExtensionsConfig selects which registered extensions run and with what.
type ExtensionsConfig struct {
	Enabled        []string `yaml:"enabled"`
	ScriptInputs   []string `yaml:"script_inputs"` // each extension runs once per input
	MaterialPolicy string   `yaml:"material_policy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InitialBufferSize: 1 << 16,
		},
		Search: SearchConfig{
			Locations: []string{"."},
		},
		Extensions: ExtensionsConfig{
			Enabled:        []string{"gltf-material"},
			MaterialPolicy: string(state.PolicyReplace),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	if _, err := state.ParsePolicy(c.Extensions.MaterialPolicy); err != nil {
		return fmt.Errorf("%w: material_policy: %v", ErrInvalidConfig, err)
	}
	if c.Pipeline.InitialBufferSize < 0 {
		return fmt.Errorf("%w: negative initial_buffer_size", ErrInvalidConfig)
	}
	return nil
}
