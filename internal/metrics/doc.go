// Package metrics provides observability hooks for fragment loading.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	loader := fragment.NewLoader(doc) // NoopRecorder
//	loader = fragment.NewLoader(doc, fragment.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the registry it is given;
// HTTPHandler exposes that registry for scraping.
package metrics
