package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if len(cfg.Sources) == 0 {
		errs = append(errs, errors.New("sources: at least one catalog source is required"))
	}
	seen := make(map[string]struct{}, len(cfg.Sources))
	defaults := 0
	for i, src := range cfg.Sources {
		if src.Name == "" {
			errs = append(errs, fmt.Errorf("sources[%d]: name is required", i))
		}
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("sources[%d] (%s): url is required", i, src.Name))
		}
		if _, dup := seen[src.Name]; dup {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate source name %q", i, src.Name))
		}
		seen[src.Name] = struct{}{}
		if src.Default {
			defaults++
		}
		if src.TimeoutSeconds < 0 {
			errs = append(errs, fmt.Errorf("sources[%d] (%s): timeout_seconds must not be negative", i, src.Name))
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("sources: %d sources marked default, at most one allowed", defaults))
	}

	if cfg.SearchAPI.URL == "" && cfg.SearchAPI.APIKey != "" {
		errs = append(errs, errors.New("search_api: api_key set without url"))
	}
	if cfg.SearchAPI.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("search_api: timeout_seconds must not be negative"))
	}

	backendNames := make(map[string]struct{}, len(cfg.Backends))
	for i, b := range cfg.Backends {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("backends[%d]: name is required", i))
		}
		if b.URL == "" {
			errs = append(errs, fmt.Errorf("backends[%d] (%s): url is required", i, b.Name))
		}
		if _, dup := backendNames[b.Name]; dup {
			errs = append(errs, fmt.Errorf("backends[%d]: duplicate backend name %q", i, b.Name))
		}
		backendNames[b.Name] = struct{}{}
		switch b.Transport {
		case "", "http", "sse", "stdio":
		default:
			errs = append(errs, fmt.Errorf("backends[%d] (%s): transport %q is invalid; valid values: http, sse, stdio", i, b.Name, b.Transport))
		}
	}

	return errors.Join(errs...)
}
