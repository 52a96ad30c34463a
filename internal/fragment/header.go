package fragment

import (
	"strings"

	"github.com/andybalholm/cascadia"

	"git.home.luguber.info/inful/fragmentloader/internal/dom"
)

// Notices shown by the placeholder account buttons.
const (
	LoginNotice    = "登录功能即将上线"
	RegisterNotice = "注册功能即将上线"
)

// ScrollOffset is the sticky header height kept above in-page scroll targets.
const ScrollOffset = 80

var (
	loginSelector        = cascadia.MustCompile(".login-btn, #loginBtn")
	registerSelector     = cascadia.MustCompile(".register-btn, #registerBtn")
	inPageAnchorSelector = cascadia.MustCompile(`a[href^="#"]`)
)

// headerClickKey marks the header click listener on a Document.
const headerClickKey = "fragment.header.click"

// bindHeaderEvents attaches the delegated click handler to the document
// root so it covers account buttons and in-page anchors anywhere on the
// page. A document is bound at most once no matter how often the header is
// reloaded, by this or any other Loader.
func (l *Loader) bindHeaderEvents() {
	l.doc.AddEventListenerOnce(headerClickKey, l.doc.Root(), "click", l.handleHeaderClick)
}

func (l *Loader) handleHeaderClick(ev *dom.Event) {
	switch {
	case l.doc.Closest(ev.Target, loginSelector) != nil:
		ev.PreventDefault()
		l.doc.Notifier().Notify(LoginNotice)
	case l.doc.Closest(ev.Target, registerSelector) != nil:
		ev.PreventDefault()
		l.doc.Notifier().Notify(RegisterNotice)
	default:
		anchor := l.doc.Closest(ev.Target, inPageAnchorSelector)
		if anchor == nil {
			return
		}
		href := l.doc.Attr(anchor, "href")
		if href == "#" {
			return
		}
		ev.PreventDefault()
		dest := l.doc.GetElementByID(strings.TrimPrefix(href, "#"))
		if dest == nil {
			return
		}
		vp := l.doc.Viewport()
		vp.ScrollTo(vp.ElementTop(dest)+vp.ScrollY()-ScrollOffset, dom.ScrollSmooth)
	}
}
