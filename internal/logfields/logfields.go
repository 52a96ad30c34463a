// Package logfields holds the canonical slog attribute keys used across fragmentloader.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPageLoadID = "page_load_id"
	KeyComponent  = "component"
	KeyTarget     = "target"
	KeyURL        = "url"
	KeyStatus     = "status"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyCategory   = "category"
	KeyPath       = "path"
	KeyEvent      = "event"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func PageLoadID(id string) slog.Attr   { return slog.String(KeyPageLoadID, id) }
func Component(name string) slog.Attr  { return slog.String(KeyComponent, name) }
func Target(id string) slog.Attr       { return slog.String(KeyTarget, id) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Attempt(n int) slog.Attr          { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Category(c string) slog.Attr      { return slog.String(KeyCategory, c) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Event(name string) slog.Attr      { return slog.String(KeyEvent, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
