package metrics

import "time"

// ResultLabel enumerates load result categories for counters.
type ResultLabel string

const (
	ResultSuccess       ResultLabel = "success"
	ResultFetchError    ResultLabel = "fetch_error"
	ResultMissingTarget ResultLabel = "missing_target"
	ResultTransform     ResultLabel = "transform_error"
	ResultCanceled      ResultLabel = "canceled"
)

// Recorder defines observability hooks for fragment loads.
type Recorder interface {
	ObserveFetchDuration(component string, d time.Duration, success bool)
	IncLoadResult(component string, result ResultLabel)
	IncFetchRetry(component string)
	IncStylesheetInjected()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncLoadResult(string, ResultLabel)                {}
func (NoopRecorder) IncFetchRetry(string)                             {}
func (NoopRecorder) IncStylesheetInjected()                           {}
