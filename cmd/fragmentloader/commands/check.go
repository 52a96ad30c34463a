package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/fragmentloader/internal/config"
	"git.home.luguber.info/inful/fragmentloader/internal/dom"
	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
	"git.home.luguber.info/inful/fragmentloader/internal/fragment"
	"git.home.luguber.info/inful/fragmentloader/internal/logfields"
	"git.home.luguber.info/inful/fragmentloader/internal/metrics"
	"git.home.luguber.info/inful/fragmentloader/internal/retry"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Page        string `short:"p" name:"page" required:"" type:"existingfile" help:"Host page HTML file."`
	PageURL     string `name:"page-url" help:"URL the page is served from; relative base paths resolve against it."`
	BasePath    string `name:"base-path" help:"Directory or URL prefix holding header.html, footer.html and shared-styles.css."`
	ActiveNav   string `name:"active-nav" help:"Navigation item to highlight (home, tools, categories, featured, about)."`
	ToolName    string `name:"tool-name" help:"Text for the header's tool-detail link."`
	NoHeader    bool   `name:"no-header" help:"Do not load the header."`
	NoFooter    bool   `name:"no-footer" help:"Do not load the footer."`
	NoStyles    bool   `name:"no-styles" help:"Do not link the shared stylesheet."`
	Dump        bool   `name:"dump" help:"Print the assembled page to stdout."`
	Watch       string `name:"watch" type:"existingdir" help:"Re-run the check whenever files under this directory change."`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address while running."`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	c.applyFlags(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if addr := c.metricsAddr(cfg); addr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		stop := serveMetrics(addr, cfg.Metrics.Path, reg)
		defer stop()
	}

	run := func() error {
		return c.checkOnce(ctx, cfg, recorder, os.Stdout)
	}
	if c.Watch == "" {
		return run()
	}
	return watchAndRun(ctx, c.Watch, run)
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func (c *CheckCmd) applyFlags(cfg *config.Config) {
	if c.PageURL != "" {
		cfg.Page.URL = c.PageURL
	}
	if c.BasePath != "" {
		cfg.Page.BasePath = c.BasePath
	}
	if c.ActiveNav != "" {
		cfg.Page.ActiveNav = c.ActiveNav
	}
	if c.ToolName != "" {
		cfg.Page.ToolName = c.ToolName
	}
	if c.NoHeader {
		cfg.Page.LoadHeader = fragment.Bool(false)
	}
	if c.NoFooter {
		cfg.Page.LoadFooter = fragment.Bool(false)
	}
	if c.NoStyles {
		cfg.Page.LoadSharedStyles = fragment.Bool(false)
	}
}

func (c *CheckCmd) metricsAddr(cfg *config.Config) string {
	if c.MetricsAddr != "" {
		return c.MetricsAddr
	}
	if cfg.Metrics.Enabled {
		return cfg.Metrics.Addr
	}
	return ""
}

// checkOnce assembles the page once, writes the report to w and returns the
// first component failure.
func (c *CheckCmd) checkOnce(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, w io.Writer) error {
	data, err := os.ReadFile(c.Page)
	if err != nil {
		return ferrors.FileSystemError("failed to read host page").WithCause(err).WithContext("path", c.Page).Build()
	}
	doc, err := dom.Parse(bytes.NewReader(data))
	if err != nil {
		return ferrors.ValidationError("invalid host page").WithCause(err).WithContext("path", c.Page).Build()
	}

	loader, err := newLoader(doc, cfg, c.Page, recorder)
	if err != nil {
		return err
	}
	results := loader.InitPage(ctx, pageConfig(cfg))
	loader.Wait()

	writeReport(w, results)
	if c.Dump {
		if err := doc.Render(w); err != nil {
			return ferrors.InternalError("failed to render page").WithCause(err).Build()
		}
		_, _ = fmt.Fprintln(w)
	}

	for _, r := range results {
		if !r.OK() {
			return r.Err
		}
	}
	return nil
}

func pageConfig(cfg *config.Config) fragment.PageConfig {
	return fragment.PageConfig{
		Options: fragment.Options{
			BasePath:  cfg.Page.BasePath,
			ActiveNav: cfg.Page.ActiveNav,
			ToolName:  cfg.Page.ToolName,
		},
		LoadHeader:       cfg.Page.LoadHeader,
		LoadFooter:       cfg.Page.LoadFooter,
		LoadSharedStyles: cfg.Page.LoadSharedStyles,
		HeaderTarget:     cfg.Page.HeaderTarget,
		FooterTarget:     cfg.Page.FooterTarget,
	}
}

// newLoader picks the fetcher: HTTP when the page URL or base path is a web
// address, otherwise files relative to the host page's directory.
func newLoader(doc *dom.Document, cfg *config.Config, pagePath string, recorder metrics.Recorder) (*fragment.Loader, error) {
	opts := []fragment.LoaderOption{
		fragment.WithRecorder(recorder),
		fragment.WithRetryPolicy(retry.FromConfig(cfg.Fetch)),
	}

	switch {
	case cfg.Page.URL != "":
		pageURL, err := url.Parse(cfg.Page.URL)
		if err != nil {
			return nil, ferrors.ConfigError("invalid page url").WithCause(err).Build()
		}
		opts = append(opts,
			fragment.WithPageURL(pageURL),
			fragment.WithHTTPClient(fragment.NewHTTPClient(cfg.Fetch.Timeout)),
			fragment.WithMaxBytes(cfg.Fetch.MaxBytes))
	case isWebURL(cfg.Page.BasePath):
		opts = append(opts,
			fragment.WithHTTPClient(fragment.NewHTTPClient(cfg.Fetch.Timeout)),
			fragment.WithMaxBytes(cfg.Fetch.MaxBytes))
	default:
		pageDir, err := filepath.Abs(filepath.Dir(pagePath))
		if err != nil {
			return nil, ferrors.FileSystemError("failed to resolve page directory").WithCause(err).Build()
		}
		opts = append(opts, fragment.WithFetcher(localFetcher(pageDir)))
	}
	return fragment.NewLoader(doc, opts...), nil
}

// localFetcher reads fragment locations as paths relative to pageDir.
func localFetcher(pageDir string) fragment.Fetcher {
	files := fragment.NewFSFetcher(os.DirFS(string(filepath.Separator)))
	return fragment.FetcherFunc(func(ctx context.Context, location string) ([]byte, error) {
		p := filepath.FromSlash(location)
		if !filepath.IsAbs(p) {
			p = filepath.Join(pageDir, p)
		}
		return files.Fetch(ctx, filepath.ToSlash(p))
	})
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func writeReport(w io.Writer, results []fragment.Result) {
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "FAILED: " + r.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "%-8s #%-20s %s\n", r.Component, r.Target, status)
	}
}

// serveMetrics exposes reg on addr+path until the returned stop func runs.
func serveMetrics(addr, path string, reg *prom.Registry) func() {
	if path == "" {
		path = config.DefaultMetricsPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", logfields.URL("http://"+addr+path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("Metrics server shutdown error", logfields.Error(err))
		}
	}
}
