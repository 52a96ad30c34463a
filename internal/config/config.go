// Package config loads the fragmentloader configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
)

// CurrentVersion is the only configuration schema version understood by Load.
const CurrentVersion = "1"

// Config is the on-disk configuration used by the CLI.
type Config struct {
	Version string        `yaml:"version"`
	Page    PageConfig    `yaml:"page"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PageConfig mirrors the loader's page options.
type PageConfig struct {
	URL              string `yaml:"url"`       // Host page URL; relative base paths resolve against it
	BasePath         string `yaml:"base_path"` // Directory (or URL prefix) holding header.html, footer.html, shared-styles.css
	ActiveNav        string `yaml:"active_nav"`
	ToolName         string `yaml:"tool_name"`
	LoadHeader       *bool  `yaml:"load_header"`
	LoadFooter       *bool  `yaml:"load_footer"`
	LoadSharedStyles *bool  `yaml:"load_shared_styles"`
	HeaderTarget     string `yaml:"header_target"`
	FooterTarget     string `yaml:"footer_target"`
}

// FetchConfig controls how fragments are retrieved.
type FetchConfig struct {
	Timeout      time.Duration    `yaml:"timeout"`
	MaxBytes     int64            `yaml:"max_bytes"`
	MaxRetries   int              `yaml:"max_retries"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff"`
	InitialDelay time.Duration    `yaml:"initial_delay"`
	MaxDelay     time.Duration    `yaml:"max_delay"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").WithCause(err).Build()
	}
	return Parse(data)
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return finish(Default())
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return Load(configPath)
}

// Parse decodes YAML configuration content. Environment variables in the
// content are expanded before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to unmarshal config").WithCause(err).Build()
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)).Build()
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnv(cfg)
	normalize(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	example := Default()
	example.Page.URL = "https://tools.example.com/tools/index.html"
	example.Page.ActiveNav = "tools"

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.FileSystemError("failed to write config file").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
