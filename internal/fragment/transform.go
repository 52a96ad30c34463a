package fragment

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/fragmentloader/internal/dom"
)

const (
	activeClass = "active"
	// toolDetailLabel is the placeholder text of the header anchor that
	// receives Options.ToolName.
	toolDetailLabel = "工具详情"
)

// TransformFunc rewrites a parsed fragment before it is inserted. The nodes
// are detached from the host document.
type TransformFunc func(nodes []*html.Node, opts Options) ([]*html.Node, error)

// markActiveNav clears every "active" class in the fragment and adds it to
// the first anchor whose label matches activeNav. Unknown keys only clear.
func markActiveNav(nodes []*html.Node, activeNav string) {
	for _, root := range nodes {
		dom.Walk(root, func(n *html.Node) bool {
			if n.Type == html.ElementNode {
				dom.RemoveClass(n, activeClass)
			}
			return true
		})
	}

	label, ok := NavLabel(activeNav)
	if !ok {
		return
	}
	if a := firstAnchorWithText(nodes, label); a != nil {
		dom.AddClass(a, activeClass)
	}
}

// injectToolName replaces the text of the tool-detail anchor with toolName.
func injectToolName(nodes []*html.Node, toolName string) {
	if toolName == "" {
		return
	}
	if a := firstAnchorWithText(nodes, toolDetailLabel); a != nil {
		dom.SetTextContent(a, toolName)
	}
}

// processCustomLinks is the link-rewriting hook for Options.CustomLinks.
// No rewriting is defined yet; the fragment passes through unchanged.
func processCustomLinks(nodes []*html.Node, _ any) []*html.Node {
	return nodes
}

func firstAnchorWithText(nodes []*html.Node, text string) *html.Node {
	want := anchorText(text)
	var found *html.Node
	for _, root := range nodes {
		dom.Walk(root, func(n *html.Node) bool {
			if dom.IsElement(n, atom.A) && anchorText(dom.TextContent(n)) == want {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

func anchorText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
