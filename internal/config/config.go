// Package config loads typeforge.yaml, the project configuration that
// names the generation provider, search limits and result store.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level typeforge.yaml configuration.
type Config struct {
	// Language selects the marker syntax and type adapter ("typescript",
	// "python", ...). Defaults to DefaultLanguage.
	Language string `yaml:"language,omitempty"`

	// Provider configures the generation backend. Optional; without it
	// fill runs degrade gracefully and report per-hole failures.
	Provider *Provider `yaml:"provider,omitempty"`

	// Search bounds the inhabitation solver.
	Search Search `yaml:"search,omitempty"`

	// Fill bounds the per-hole generation loop.
	Fill Fill `yaml:"fill,omitempty"`

	// Store is the path of the sqlite database recording fill runs.
	// Empty disables persistence.
	Store string `yaml:"store,omitempty"`
}

// Provider describes how to reach the generation backend.
type Provider struct {
	// Kind is "http" or "grpc".
	Kind string `yaml:"kind"`

	// Endpoint is the backend address: a URL for http, host:port for grpc.
	Endpoint string `yaml:"endpoint"`

	// Proto is the .proto file describing the grpc service. Required for
	// grpc, ignored for http.
	Proto string `yaml:"proto,omitempty"`

	// Method is the grpc method path in "package.Service/Method" form.
	Method string `yaml:"method,omitempty"`
}

// Search bounds path search.
type Search struct {
	// MaxDepth caps the number of operations in a synthesized access path.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Fill bounds hole filling.
type Fill struct {
	// MaxAttempts caps generation retries per hole.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// MaxTokens caps one completion.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Temperature is the sampling temperature. Zero means the default;
	// constrained decoding rarely wants high values.
	Temperature float64 `yaml:"temperature,omitempty"`
}

// Load reads and parses a typeforge.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses typeforge.yaml content from bytes. Unknown keys are
// rejected so a typo like "provder:" fails loudly instead of being
// silently dropped. The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find searches for typeforge.yaml starting from dir and walking up to
// parent directories. Returns the path if found, or empty string and nil
// error if no config exists anywhere up the tree.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// Default returns the configuration used when no typeforge.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.Provider != nil {
		switch c.Provider.Kind {
		case ProviderHTTP:
			if c.Provider.Endpoint == "" {
				return fmt.Errorf("%s: provider.endpoint is required", path)
			}
		case ProviderGRPC:
			if c.Provider.Endpoint == "" {
				return fmt.Errorf("%s: provider.endpoint is required", path)
			}
			if c.Provider.Proto == "" {
				return fmt.Errorf("%s: provider.proto is required for grpc", path)
			}
			if c.Provider.Method == "" {
				return fmt.Errorf("%s: provider.method is required for grpc", path)
			}
		case "":
			return fmt.Errorf("%s: provider.kind is required", path)
		default:
			return fmt.Errorf("%s: unknown provider kind %q (want %q or %q)",
				path, c.Provider.Kind, ProviderHTTP, ProviderGRPC)
		}
	}

	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("%s: search.max_depth must not be negative", path)
	}
	if c.Fill.MaxAttempts < 0 {
		return fmt.Errorf("%s: fill.max_attempts must not be negative", path)
	}
	if c.Fill.Temperature < 0 {
		return fmt.Errorf("%s: fill.temperature must not be negative", path)
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.Search.MaxDepth == 0 {
		c.Search.MaxDepth = DefaultMaxDepth
	}
	if c.Fill.MaxAttempts == 0 {
		c.Fill.MaxAttempts = DefaultMaxAttempts
	}
	if c.Fill.MaxTokens == 0 {
		c.Fill.MaxTokens = DefaultMaxTokens
	}
	if c.Fill.Temperature == 0 {
		c.Fill.Temperature = DefaultTemperature
	}
}
