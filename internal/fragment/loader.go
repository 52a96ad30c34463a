package fragment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/fragmentloader/internal/dom"
	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
	"git.home.luguber.info/inful/fragmentloader/internal/logfields"
	"git.home.luguber.info/inful/fragmentloader/internal/metrics"
	"git.home.luguber.info/inful/fragmentloader/internal/observability"
	"git.home.luguber.info/inful/fragmentloader/internal/retry"
)

// Loader fetches fragments and splices them into one host document.
// It is safe for concurrent use.
type Loader struct {
	doc        *dom.Document
	fetcher    Fetcher
	httpClient *http.Client
	maxBytes   int64
	recorder   metrics.Recorder
	policy     retry.Policy
	pageURL    *url.URL
	transforms map[string][]TransformFunc

	probes sync.WaitGroup
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) LoaderOption {
	return func(l *Loader) { l.fetcher = f }
}

// WithHTTPClient sets the client used by the default HTTP fetcher.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.httpClient = c }
}

// WithMaxBytes caps fragment bodies read by the default HTTP fetcher.
func WithMaxBytes(n int64) LoaderOption {
	return func(l *Loader) { l.maxBytes = n }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithRetryPolicy sets the policy for transient fetch failures.
func WithRetryPolicy(p retry.Policy) LoaderOption {
	return func(l *Loader) { l.policy = p }
}

// WithPageURL sets the host page URL that relative base paths resolve against.
func WithPageURL(u *url.URL) LoaderOption {
	return func(l *Loader) { l.pageURL = u }
}

// WithTransform appends a rewrite step for the named component. Steps run
// after the built-in header processing, in registration order.
func WithTransform(component string, fn TransformFunc) LoaderOption {
	return func(l *Loader) {
		l.transforms[component] = append(l.transforms[component], fn)
	}
}

// NewLoader returns a Loader for doc.
func NewLoader(doc *dom.Document, opts ...LoaderOption) *Loader {
	l := &Loader{
		doc:        doc,
		recorder:   metrics.NoopRecorder{},
		policy:     retry.DefaultPolicy(),
		transforms: map[string][]TransformFunc{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewHTTPFetcher(l.httpClient, l.maxBytes)
	}
	return l
}

// Document returns the host document.
func (l *Loader) Document() *dom.Document { return l.doc }

// LoadComponent fetches "{BasePath}{name}.html", processes it and replaces
// the children of the element with id targetID.
//
// The header gets its navigation marked and tool name injected, then its
// click handling bound; the footer gets its tool counter reset. On error the
// target keeps its previous children and the returned error is a classified
// fetch, target or transform error.
func (l *Loader) LoadComponent(ctx context.Context, name, targetID string, opts Options) (err error) {
	opts = opts.withDefaults()
	ctx = observability.WithComponent(ctx, name, targetID)
	location := l.resolve(opts.BasePath + name + fragmentExt)
	start := time.Now()

	defer func() {
		l.recorder.IncLoadResult(name, resultLabel(err))
		if err != nil {
			observability.ErrorContext(ctx, "Failed to load component",
				logfields.URL(location),
				logfields.Category(string(ferrors.GetCategory(err))),
				logfields.Error(err))
			return
		}
		observability.DebugContext(ctx, "Loaded component",
			logfields.URL(location),
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}()

	body, err := l.fetch(ctx, name, location)
	if err != nil {
		return err
	}

	nodes, err := l.transform(name, string(body), opts)
	if err != nil {
		return err
	}

	target := l.doc.ReplaceChildren(targetID, nodes)
	if target == nil {
		return ferrors.MissingTargetError(name, targetID).WithContext(ferrors.ContextURL, location)
	}

	switch name {
	case ComponentHeader:
		l.bindHeaderEvents()
	case ComponentFooter:
		l.updateToolCount()
	}
	return nil
}

// InitPage links the shared stylesheet, creates missing placeholder
// containers and loads the enabled components concurrently. It waits for
// every load and returns one Result per load, header first. It never fails;
// inspect the results.
func (l *Loader) InitPage(ctx context.Context, cfg PageConfig) []Result {
	cfg = cfg.withDefaults()
	ctx = observability.WithPageLoadID(ctx, uuid.NewString())

	if enabled(cfg.LoadSharedStyles) {
		l.ensureSharedStyles(ctx, cfg.BasePath)
	}

	var jobs []Result
	if enabled(cfg.LoadHeader) {
		if l.doc.EnsureElement(atom.Div, cfg.HeaderTarget, dom.BodyStart) {
			observability.DebugContext(ctx, "Created header container", logfields.Target(cfg.HeaderTarget))
		}
		jobs = append(jobs, Result{Component: ComponentHeader, Target: cfg.HeaderTarget})
	}
	if enabled(cfg.LoadFooter) {
		if l.doc.EnsureElement(atom.Div, cfg.FooterTarget, dom.BodyEnd) {
			observability.DebugContext(ctx, "Created footer container", logfields.Target(cfg.FooterTarget))
		}
		jobs = append(jobs, Result{Component: ComponentFooter, Target: cfg.FooterTarget})
	}

	results := make([]Result, len(jobs))
	// Load errors travel in Result; the closures never fail the group.
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			job.Err = l.LoadComponent(ctx, job.Component, job.Target, cfg.Options)
			results[i] = job
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	observability.InfoContext(ctx, "Page initialized",
		slog.Int("components", len(results)),
		slog.Int("failed", failed))
	return results
}

func (l *Loader) fetch(ctx context.Context, name, location string) ([]byte, error) {
	var body []byte
	start := time.Now()
	err := l.policy.Do(ctx, func(ctx context.Context) error {
		data, err := l.fetcher.Fetch(ctx, location)
		if err != nil {
			return classifyFetchError(name, location, err)
		}
		body = data
		return nil
	}, ferrors.CanRetry, func(attempt int, err error) {
		l.recorder.IncFetchRetry(name)
		observability.WarnContext(ctx, "Retrying fragment fetch",
			logfields.Attempt(attempt),
			logfields.URL(location),
			logfields.Error(err))
	})
	l.recorder.ObserveFetchDuration(name, time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// transform parses markup and runs the component's rewrite steps on the
// detached tree. Panics become transform errors.
func (l *Loader) transform(name, markup string, opts Options) (nodes []*html.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = ferrors.TransformError(name, fmt.Errorf("panic: %v", r))
		}
	}()

	nodes, err = dom.ParseFragment(markup)
	if err != nil {
		return nil, ferrors.TransformError(name, err)
	}

	if name == ComponentHeader {
		markActiveNav(nodes, opts.ActiveNav)
		injectToolName(nodes, opts.ToolName)
		if opts.CustomLinks != nil {
			nodes = processCustomLinks(nodes, opts.CustomLinks)
		}
	}

	for _, fn := range l.transforms[name] {
		nodes, err = fn(nodes, opts)
		if err != nil {
			return nil, ferrors.TransformError(name, err)
		}
	}
	return nodes, nil
}

// resolve joins a relative location onto the page URL, if one is set.
func (l *Loader) resolve(location string) string {
	if l.pageURL == nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return l.pageURL.ResolveReference(ref).String()
}

func classifyFetchError(name, location string, err error) error {
	if ce, ok := ferrors.AsClassified(err); ok && ce.IsCategory(ferrors.CategoryFetch) {
		return ce.WithContext(ferrors.ContextComponent, name)
	}
	b := ferrors.FetchError(name, "fetch failed").
		WithCause(err).
		WithContext(ferrors.ContextURL, location)
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		b = b.Retryable()
	}
	return b.Build()
}

func resultLabel(err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ResultCanceled
	case ferrors.IsMissingTarget(err):
		return metrics.ResultMissingTarget
	case ferrors.IsTransformError(err):
		return metrics.ResultTransform
	default:
		return metrics.ResultFetchError
	}
}
