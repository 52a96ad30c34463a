package config

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/fragmentloader/internal/foundation"
)

var configValidator = foundation.NewValidatorChain(
	foundation.Check("page.url", "absolute_url", "must be an absolute URL", func(c *Config) bool {
		if c.Page.URL == "" {
			return true
		}
		u, err := url.Parse(c.Page.URL)
		return err == nil && u.IsAbs()
	}),
	foundation.Check("page.header_target", "element_id", "must not contain whitespace", func(c *Config) bool {
		return !strings.ContainsAny(c.Page.HeaderTarget, " \t\n")
	}),
	foundation.Check("page.footer_target", "element_id", "must not contain whitespace", func(c *Config) bool {
		return !strings.ContainsAny(c.Page.FooterTarget, " \t\n")
	}),
	foundation.Check("page.footer_target", "distinct", "header and footer targets must differ", func(c *Config) bool {
		return !enabled(c.Page.LoadHeader) || !enabled(c.Page.LoadFooter) || c.Page.HeaderTarget != c.Page.FooterTarget
	}),
	foundation.Check("fetch.initial_delay", "ordering", "must not exceed fetch.max_delay", func(c *Config) bool {
		return c.Fetch.InitialDelay <= c.Fetch.MaxDelay
	}),
	foundation.Check("metrics.path", "prefix", "must start with /", func(c *Config) bool {
		return !c.Metrics.Enabled || strings.HasPrefix(c.Metrics.Path, "/")
	}),
)

// Validate checks a defaulted configuration and reports every violation in
// one classified validation error.
func Validate(cfg *Config) error {
	return configValidator.Validate(cfg).ToError()
}

func enabled(v *bool) bool { return v == nil || *v }
