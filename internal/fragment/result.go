package fragment

// Result is the outcome of one component load started by InitPage.
type Result struct {
	Component string
	Target    string
	// Err is nil on success, otherwise a classified fetch, target or
	// transform error.
	Err error
}

// OK reports whether the component was inserted.
func (r Result) OK() bool { return r.Err == nil }

// AllOK reports whether every result succeeded.
func AllOK(results []Result) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}
