package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position selects where EnsureElement inserts a new element inside <body>.
type Position int

const (
	// BodyStart inserts as the first child of <body>.
	BodyStart Position = iota
	// BodyEnd appends as the last child of <body>.
	BodyEnd
)

// Document is a host page. The zero value is not usable; use New or Parse.
type Document struct {
	mu        sync.Mutex
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	bound     map[string]bool

	viewport Viewport
	notifier Notifier
}

// Option configures a Document.
type Option func(*Document)

// WithViewport installs the scroll surface used by in-page navigation.
func WithViewport(v Viewport) Option {
	return func(d *Document) { d.viewport = v }
}

// WithNotifier installs the sink for user-facing notices.
func WithNotifier(n Notifier) Option {
	return func(d *Document) { d.notifier = n }
}

// New returns an empty page (<html><head></head><body></body></html>).
func New(opts ...Option) *Document {
	d, err := Parse(strings.NewReader(""), opts...)
	if err != nil {
		// html.Parse only fails on reader errors.
		panic(err)
	}
	return d
}

// Parse builds a Document from host page markup.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse host page: %w", err)
	}
	d := &Document{
		root:      root,
		listeners: map[*html.Node]map[string][]Listener{},
		bound:     map[string]bool{},
		viewport:  NewStaticViewport(nil),
		notifier:  LogNotifier{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(markup string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(markup), opts...)
}

// Viewport returns the document's scroll surface.
func (d *Document) Viewport() Viewport { return d.viewport }

// Notifier returns the document's notice sink.
func (d *Document) Notifier() Notifier { return d.notifier }

// Root returns the document node, the ancestor of every element.
func (d *Document) Root() *html.Node { return d.root }

// GetElementByID returns the first element with the id, or nil.
func (d *Document) GetElementByID(id string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findByID(d.root, id)
}

// Head returns the <head> element.
func (d *Document) Head() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findFirst(d.root, atom.Head)
}

// Body returns the <body> element.
func (d *Document) Body() *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return findFirst(d.root, atom.Body)
}

// ReplaceChildren swaps the children of the element with the id for nodes,
// which must be detached. It returns the element, or nil (and leaves the
// document untouched) when no element has that id.
func (d *Document) ReplaceChildren(id string, nodes []*html.Node) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	target := findByID(d.root, id)
	if target == nil {
		return nil
	}
	RemoveChildren(target)
	for _, n := range nodes {
		target.AppendChild(n)
	}
	return target
}

// SetTextByID sets the text content of the element with the id. It reports
// whether the element exists.
func (d *Document) SetTextByID(id, text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	target := findByID(d.root, id)
	if target == nil {
		return false
	}
	SetTextContent(target, text)
	return true
}

// EnsureElement creates an empty element with the id at pos unless an
// element with that id already exists. It reports whether one was created.
func (d *Document) EnsureElement(tag atom.Atom, id string, pos Position) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if findByID(d.root, id) != nil {
		return false
	}
	body := findFirst(d.root, atom.Body)
	if body == nil {
		return false
	}
	el := NewElement(tag, id)
	if pos == BodyStart && body.FirstChild != nil {
		body.InsertBefore(el, body.FirstChild)
	} else {
		body.AppendChild(el)
	}
	return true
}

// EnsureStylesheet appends <link rel="stylesheet" href=href> to <head>
// unless a <link> whose href contains marker is already present. It reports
// whether a link was appended.
func (d *Document) EnsureStylesheet(href, marker string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	exists := false
	Walk(d.root, func(n *html.Node) bool {
		if IsElement(n, atom.Link) && strings.Contains(Attr(n, "href"), marker) {
			exists = true
			return false
		}
		return true
	})
	if exists {
		return false
	}
	head := findFirst(d.root, atom.Head)
	if head == nil {
		return false
	}
	link := NewElement(atom.Link, "")
	SetAttr(link, "rel", "stylesheet")
	SetAttr(link, "href", href)
	head.AppendChild(link)
	return true
}

// QuerySelector returns the first element matching a CSS selector, or nil.
func (d *Document) QuerySelector(selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return cascadia.Query(d.root, sel), nil
}

// QuerySelectorAll returns every element matching a CSS selector.
func (d *Document) QuerySelectorAll(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return cascadia.QueryAll(d.root, sel), nil
}

// InnerHTMLByID renders the children of the element with the id.
func (d *Document) InnerHTMLByID(id string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	target := findByID(d.root, id)
	if target == nil {
		return "", false
	}
	out, err := InnerHTML(target)
	if err != nil {
		return "", false
	}
	return out, true
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the whole document, returning "" on error.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

// Closest returns n or its nearest ancestor element matching sel, or nil.
func Closest(n *html.Node, sel cascadia.Matcher) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && sel.Match(n) {
			return n
		}
	}
	return nil
}

// Closest is the package-level Closest run under the document lock, for
// listeners walking ancestors while loads may be splicing the tree.
func (d *Document) Closest(n *html.Node, sel cascadia.Matcher) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Closest(n, sel)
}

// Attr reads an attribute of n under the document lock.
func (d *Document) Attr(n *html.Node, key string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Attr(n, key)
}
