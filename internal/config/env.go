package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variables overriding page settings.
const (
	EnvPageURL   = "FRAGMENTLOADER_PAGE_URL"
	EnvBasePath  = "FRAGMENTLOADER_BASE_PATH"
	EnvActiveNav = "FRAGMENTLOADER_ACTIVE_NAV"
	EnvToolName  = "FRAGMENTLOADER_TOOL_NAME"
	EnvLogLevel  = "FRAGMENTLOADER_LOG_LEVEL"
	EnvLogFormat = "FRAGMENTLOADER_LOG_FORMAT"
)

// LoadEnvFile loads variables from .env, then .env.local, without overriding
// variables already present in the process environment. It returns the files
// that were loaded.
func LoadEnvFile() ([]string, error) {
	var loaded []string
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, err
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}

// ApplyEnv overlays FRAGMENTLOADER_* variables onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvPageURL); v != "" {
		cfg.Page.URL = v
	}
	if v := os.Getenv(EnvBasePath); v != "" {
		cfg.Page.BasePath = v
	}
	if v := os.Getenv(EnvActiveNav); v != "" {
		cfg.Page.ActiveNav = v
	}
	if v := os.Getenv(EnvToolName); v != "" {
		cfg.Page.ToolName = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = LogLevel(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = LogFormat(v)
	}
}
