package config

import (
	"strings"
	"time"
)

// Defaults shared with the fragment loader's zero-value handling.
const (
	DefaultBasePath     = "../components/"
	DefaultActiveNav    = "home"
	DefaultHeaderTarget = "header-container"
	DefaultFooterTarget = "footer-container"
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMetricsAddr  = ":9090"
	DefaultMetricsPath  = "/metrics"
)

func normalize(cfg *Config) {
	cfg.Page.ActiveNav = strings.ToLower(strings.TrimSpace(cfg.Page.ActiveNav))
	cfg.Page.BasePath = strings.TrimSpace(cfg.Page.BasePath)
	if cfg.Fetch.RetryBackoff != "" {
		cfg.Fetch.RetryBackoff = NormalizeRetryBackoff(string(cfg.Fetch.RetryBackoff))
	}
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
}

func applyDefaults(cfg *Config) {
	p := &cfg.Page
	if p.BasePath == "" {
		p.BasePath = DefaultBasePath
	}
	if p.ActiveNav == "" {
		p.ActiveNav = DefaultActiveNav
	}
	if p.LoadHeader == nil {
		p.LoadHeader = boolPtr(true)
	}
	if p.LoadFooter == nil {
		p.LoadFooter = boolPtr(true)
	}
	if p.LoadSharedStyles == nil {
		p.LoadSharedStyles = boolPtr(true)
	}
	if p.HeaderTarget == "" {
		p.HeaderTarget = DefaultHeaderTarget
	}
	if p.FooterTarget == "" {
		p.FooterTarget = DefaultFooterTarget
	}

	f := &cfg.Fetch
	if f.Timeout <= 0 {
		f.Timeout = DefaultTimeout
	}
	if f.MaxBytes <= 0 {
		f.MaxBytes = DefaultMaxBytes
	}
	if f.MaxRetries < 0 {
		f.MaxRetries = 0
	}
	if f.RetryBackoff == "" {
		f.RetryBackoff = RetryBackoffLinear
	}
	if f.InitialDelay <= 0 {
		f.InitialDelay = time.Second
	}
	if f.MaxDelay <= 0 {
		f.MaxDelay = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = DefaultMetricsAddr
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

func boolPtr(b bool) *bool { return &b }
