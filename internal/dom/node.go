package dom

import (
	"bytes"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attr returns the value of the named attribute, or "" when absent.
func Attr(n *html.Node, key string) string {
	v, _ := LookupAttr(n, key)
	return v
}

// LookupAttr returns the attribute value and whether it is present.
func LookupAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes every occurrence of an attribute.
func RemoveAttr(n *html.Node, key string) {
	n.Attr = slices.DeleteFunc(n.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == key
	})
}

// Classes returns the element's class tokens.
func Classes(n *html.Node) []string {
	return strings.Fields(Attr(n, "class"))
}

// HasClass reports whether the element carries the class token.
func HasClass(n *html.Node, class string) bool {
	return slices.Contains(Classes(n), class)
}

// AddClass appends a class token if missing.
func AddClass(n *html.Node, class string) {
	classes := Classes(n)
	if slices.Contains(classes, class) {
		return
	}
	SetAttr(n, "class", strings.Join(append(classes, class), " "))
}

// RemoveClass drops a class token. An element left without classes loses
// its class attribute entirely.
func RemoveClass(n *html.Node, class string) {
	if _, ok := LookupAttr(n, "class"); !ok {
		return
	}
	classes := slices.DeleteFunc(Classes(n), func(c string) bool { return c == class })
	if len(classes) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(classes, " "))
}

// TextContent concatenates every descendant text node.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(TextContent(c))
	}
	return text.String()
}

// SetTextContent replaces every child of n with a single text node.
func SetTextContent(n *html.Node, text string) {
	RemoveChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Walk visits n and its descendants in document order until visit returns false.
func Walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// IsElement reports whether n is an element with the given tag.
func IsElement(n *html.Node, tag atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == tag
}

// NewElement creates a detached element, optionally with an id.
func NewElement(tag atom.Atom, id string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String()}
	if id != "" {
		SetAttr(n, "id", id)
	}
	return n
}

// ParseFragment parses markup as the children of a <div>, returning detached nodes.
func ParseFragment(markup string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(markup), NewElement(atom.Div, ""))
}

// RenderNodes serialises a node list back to markup.
func RenderNodes(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) (string, error) {
	var nodes []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		nodes = append(nodes, c)
	}
	return RenderNodes(nodes)
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && Attr(n, "id") == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func findFirst(root *html.Node, tag atom.Atom) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if IsElement(n, tag) {
			found = n
			return false
		}
		return true
	})
	return found
}
