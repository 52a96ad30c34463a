package fragment

import (
	"context"
	"time"

	"git.home.luguber.info/inful/fragmentloader/internal/logfields"
	"git.home.luguber.info/inful/fragmentloader/internal/observability"
)

// ensureSharedStyles links the shared stylesheet into <head> once. When a
// link is added the stylesheet is probed in the background so load failures
// show up in the log; Wait blocks until probes finish.
func (l *Loader) ensureSharedStyles(ctx context.Context, basePath string) bool {
	href := basePath + sharedStylesheet
	if !l.doc.EnsureStylesheet(href, sharedStylesheet) {
		return false
	}
	l.recorder.IncStylesheetInjected()

	location := l.resolve(href)
	probeCtx := context.WithoutCancel(ctx)
	l.probes.Add(1)
	go func() {
		defer l.probes.Done()
		start := time.Now()
		if _, err := l.fetcher.Fetch(probeCtx, location); err != nil {
			observability.WarnContext(probeCtx, "Shared stylesheet failed to load",
				logfields.URL(location), logfields.Error(err))
			return
		}
		observability.DebugContext(probeCtx, "Shared stylesheet loaded",
			logfields.URL(location), logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}()
	return true
}

// Wait blocks until every background stylesheet probe has finished.
func (l *Loader) Wait() {
	l.probes.Wait()
}
