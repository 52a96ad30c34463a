package fragment

import "git.home.luguber.info/inful/fragmentloader/internal/foundation/normalization"

// Component names with post-load processing. Any other name is fetched and
// inserted as-is.
const (
	ComponentHeader = "header"
	ComponentFooter = "footer"
)

// Defaults applied to zero-valued options.
const (
	DefaultBasePath     = "../components/"
	DefaultActiveNav    = "home"
	DefaultHeaderTarget = "header-container"
	DefaultFooterTarget = "footer-container"

	sharedStylesheet = "shared-styles.css"
	fragmentExt      = ".html"
)

// Options configures a single component load.
type Options struct {
	// BasePath is the directory or URL prefix holding the fragment files.
	BasePath string
	// ActiveNav selects the navigation item to highlight (home, tools,
	// categories, featured, about).
	ActiveNav string
	// CustomLinks is accepted and passed to the link-rewriting hook, which
	// currently leaves the fragment unchanged.
	CustomLinks any
	// ToolName replaces the text of the header's tool-detail anchor when set.
	ToolName string
}

func (o Options) withDefaults() Options {
	if o.BasePath == "" {
		o.BasePath = DefaultBasePath
	}
	if o.ActiveNav == "" {
		o.ActiveNav = DefaultActiveNav
	}
	return o
}

// PageConfig configures InitPage. Nil toggles default to true.
type PageConfig struct {
	Options

	LoadHeader       *bool
	LoadFooter       *bool
	LoadSharedStyles *bool

	HeaderTarget string
	FooterTarget string
}

// Bool returns a pointer to v, for PageConfig toggles.
func Bool(v bool) *bool { return &v }

func enabled(v *bool) bool { return v == nil || *v }

func (c PageConfig) withDefaults() PageConfig {
	c.Options = c.Options.withDefaults()
	if c.HeaderTarget == "" {
		c.HeaderTarget = DefaultHeaderTarget
	}
	if c.FooterTarget == "" {
		c.FooterTarget = DefaultFooterTarget
	}
	return c
}

// navLabels maps ActiveNav keys to the visible label of their nav anchor.
var navLabels = normalization.NewNormalizer(map[string]string{
	"home":       "首页",
	"tools":      "所有工具",
	"categories": "分类",
	"featured":   "精选",
	"about":      "关于",
}, "")

// NavLabel returns the nav anchor label for an ActiveNav key.
func NavLabel(key string) (string, bool) {
	return navLabels.Lookup(key)
}

// NavKeys lists the recognised ActiveNav keys.
func NavKeys() []string {
	return navLabels.ValidKeys()
}
