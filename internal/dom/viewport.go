package dom

import (
	"log/slog"
	"sync"

	"golang.org/x/net/html"
)

// ScrollBehavior mirrors the CSSOM scroll behavior values.
type ScrollBehavior string

const (
	ScrollAuto   ScrollBehavior = "auto"
	ScrollSmooth ScrollBehavior = "smooth"
)

// Viewport is the scrollable window onto the document.
type Viewport interface {
	// ScrollY is the current vertical scroll offset.
	ScrollY() int
	// ElementTop is the element's top edge relative to the viewport top.
	ElementTop(n *html.Node) int
	// ScrollTo scrolls so that document offset top is at the viewport top.
	ScrollTo(top int, behavior ScrollBehavior)
}

// ScrollRecord is one ScrollTo call observed by a StaticViewport.
type ScrollRecord struct {
	Top      int
	Behavior ScrollBehavior
}

// StaticViewport is a Viewport without layout: element positions come from
// a fixed table of document offsets keyed by element id.
type StaticViewport struct {
	mu      sync.Mutex
	offsets map[string]int
	scrollY int
	history []ScrollRecord
}

// NewStaticViewport returns a viewport scrolled to the top. Elements missing
// from offsets sit at document offset 0.
func NewStaticViewport(offsets map[string]int) *StaticViewport {
	return &StaticViewport{offsets: offsets}
}

func (v *StaticViewport) ScrollY() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollY
}

func (v *StaticViewport) ElementTop(n *html.Node) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offsets[Attr(n, "id")] - v.scrollY
}

func (v *StaticViewport) ScrollTo(top int, behavior ScrollBehavior) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollY = top
	v.history = append(v.history, ScrollRecord{Top: top, Behavior: behavior})
}

// History returns every ScrollTo call so far.
func (v *StaticViewport) History() []ScrollRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]ScrollRecord(nil), v.history...)
}

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(string)

func (f NotifierFunc) Notify(message string) { f(message) }

// LogNotifier writes notices to the default slog logger.
type LogNotifier struct{}

func (LogNotifier) Notify(message string) {
	slog.Info("User notice", "message", message)
}
