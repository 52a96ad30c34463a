package dom

import "golang.org/x/net/html"

// Event is a dispatched DOM event.
type Event struct {
	Type          string
	Target        *html.Node
	CurrentTarget *html.Node

	defaultPrevented bool
	stopped          bool
}

// PreventDefault suppresses the default action (e.g. following a link).
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// StopPropagation stops the event from reaching further ancestors.
func (e *Event) StopPropagation() { e.stopped = true }

// Listener handles an event.
type Listener func(*Event)

// AddEventListener registers l for events of type typ on n. Registering
// twice attaches two listeners, as in a browser.
func (d *Document) AddEventListener(n *html.Node, typ string, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	byType := d.listeners[n]
	if byType == nil {
		byType = map[string][]Listener{}
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], l)
}

// AddEventListenerOnce registers l like AddEventListener unless a listener
// was already registered under key on this document. It reports whether l
// was added.
func (d *Document) AddEventListenerOnce(key string, n *html.Node, typ string, l Listener) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound[key] {
		return false
	}
	d.bound[key] = true
	byType := d.listeners[n]
	if byType == nil {
		byType = map[string][]Listener{}
		d.listeners[n] = byType
	}
	byType[typ] = append(byType[typ], l)
	return true
}

// ListenerCount returns the number of listeners of type typ on n.
func (d *Document) ListenerCount(n *html.Node, typ string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[n][typ])
}

// Dispatch fires an event at target and bubbles it through its ancestors.
// Listeners run without the document lock held so they may use the Document.
func (d *Document) Dispatch(target *html.Node, typ string) *Event {
	type hop struct {
		node      *html.Node
		listeners []Listener
	}

	d.mu.Lock()
	var path []hop
	for n := target; n != nil; n = n.Parent {
		if ls := d.listeners[n][typ]; len(ls) > 0 {
			path = append(path, hop{node: n, listeners: append([]Listener(nil), ls...)})
		}
	}
	d.mu.Unlock()

	ev := &Event{Type: typ, Target: target}
	for _, h := range path {
		ev.CurrentTarget = h.node
		for _, l := range h.listeners {
			l(ev)
		}
		if ev.stopped {
			break
		}
	}
	return ev
}

// Click dispatches a click event.
func (d *Document) Click(target *html.Node) *Event {
	return d.Dispatch(target, "click")
}
