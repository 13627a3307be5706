// Package config provides the YAML configuration schema and loader for the
// storybook-mcp server.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l onto the slog level scale. Unknown or empty levels map
// to info.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure, typically loaded from a YAML
// file via [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Sources   []SourceConfig  `yaml:"sources"`
	SearchAPI SearchAPIConfig `yaml:"search_api"`
	Backends  []BackendConfig `yaml:"backends"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP transport listens on
	// (e.g., ":8080"). Unused when serving over stdio.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogJSON switches the log handler from text to JSON output.
	LogJSON bool `yaml:"log_json"`
}

// SourceConfig describes one named Storybook catalog endpoint.
type SourceConfig struct {
	// Name identifies the source in tool calls and CLI flags.
	Name string `yaml:"name"`

	// URL is the catalog JSON endpoint.
	URL string `yaml:"url"`

	// Headers are sent with every fetch (e.g., authentication).
	Headers map[string]string `yaml:"headers"`

	// Default marks this source as the one used when a call names none.
	Default bool `yaml:"default"`

	// TimeoutSeconds bounds each fetch. Zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// SearchAPIConfig configures the external documentation search endpoint.
// When URL is empty the searchDocs tool is not registered.
type SearchAPIConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// BackendConfig describes a remote MCP server whose tools are federated
// under a name prefix.
type BackendConfig struct {
	Name       string            `yaml:"name"`
	URL        string            `yaml:"url"`
	Transport  string            `yaml:"transport"`
	Headers    map[string]string `yaml:"headers"`
	MaxRetries int               `yaml:"max_retries"`
}

// Default returns the configuration used when no config file is given:
// a single public Storybook demo source and text logging at info level.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Sources: []SourceConfig{{
			Name:           "default",
			URL:            "https://storybook.example.com/components.json",
			Default:        true,
			TimeoutSeconds: 15,
		}},
	}
}
