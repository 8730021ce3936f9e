// Package config holds process-wide constants and the YAML-loaded
// verifier configuration file (verifier.yaml), grounded on
// funvibe-funxy's internal/config (Version/IsTestMode globals) and
// internal/ext.Config (YAML dependency/binding config, FindConfig
// upward directory search).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Version is the current verifier core version, set at build time via
// -ldflags the same way funvibe-funxy's config.Version is.
var Version = "0.1.0"

// IsTestMode indicates the process is running under a test harness;
// set once at startup, mirroring funvibe-funxy's IsTestMode global.
var IsTestMode = false

const configFileName = "verifier.yaml"

// Config is the top-level verifier.yaml document.
type Config struct {
	// Solver selects the backend: "stub" (in-process, bounded) or
	// "grpc" (out-of-process SMT service).
	Solver string `yaml:"solver"`

	// GRPCTarget is the dial target when Solver == "grpc".
	GRPCTarget string `yaml:"grpc_target,omitempty"`

	// Horn switches the driver to Horn-clause invariant synthesis
	// instead of path-based verification (spec.md §4.5/§4.6).
	Horn bool `yaml:"horn,omitempty"`

	// CachePath is a location for the SQLite verdict cache. It is parsed
	// only; no driver or entry point opens a cache from it.
	CachePath string `yaml:"cache_path,omitempty"`

	// StubBound is parsed only; internal/solver/stub always searches its
	// fixed Bound domain.
	StubBound int `yaml:"stub_bound,omitempty"`
}

func (c *Config) setDefaults() {
	if c.Solver == "" {
		c.Solver = "stub"
	}
}

func (c *Config) validate(path string) error {
	switch c.Solver {
	case "stub", "grpc":
	default:
		return fmt.Errorf("%s: unknown solver backend %q", path, c.Solver)
	}
	if c.Solver == "grpc" && c.GRPCTarget == "" {
		return fmt.Errorf("%s: grpc_target is required when solver is \"grpc\"", path)
	}
	return nil
}

// Load reads and parses a verifier.yaml file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses verifier.yaml content from bytes; path is used only for
// error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with every field at its default, for callers
// that never find a verifier.yaml.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Find searches for verifier.yaml starting at dir and walking up to
// parent directories, the same upward search funvibe-funxy's
// ext.FindConfig performs for funxy.yaml. Returns "" with a nil error
// if no config file is found anywhere above dir.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolving directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
