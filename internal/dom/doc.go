// Package dom models the host page a fragment is spliced into.
//
// A Document wraps a golang.org/x/net/html node tree and serialises every
// read and write through one mutex, so concurrent component loads never
// interleave their DOM mutations. Browser facilities the loader depends on
// are reduced to small hooks: click listeners with bubbling (Dispatch),
// a Viewport for scroll position and a Notifier for user-facing notices.
package dom
