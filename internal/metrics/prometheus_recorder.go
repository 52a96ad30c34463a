package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration *prom.HistogramVec
	loadResults   *prom.CounterVec
	fetchRetries  *prom.CounterVec
	stylesheets   prom.Counter
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fragmentloader",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fragment fetches including body read",
			Buckets:   prom.DefBuckets,
		}, []string{"component", "result"}),
		loadResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fragmentloader",
			Name:      "load_results_total",
			Help:      "Component load outcomes",
		}, []string{"component", "result"}),
		fetchRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fragmentloader",
			Name:      "fetch_retries_total",
			Help:      "Fragment fetch retries after transient failures",
		}, []string{"component"}),
		stylesheets: prom.NewCounter(prom.CounterOpts{
			Namespace: "fragmentloader",
			Name:      "stylesheet_injections_total",
			Help:      "Shared stylesheet links appended to a document head",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.loadResults, pr.fetchRetries, pr.stylesheets)
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(component string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(component, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncLoadResult(component string, result ResultLabel) {
	if p == nil {
		return
	}
	p.loadResults.WithLabelValues(component, string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry(component string) {
	if p == nil {
		return
	}
	p.fetchRetries.WithLabelValues(component).Inc()
}

func (p *PrometheusRecorder) IncStylesheetInjected() {
	if p == nil {
		return
	}
	p.stylesheets.Inc()
}
