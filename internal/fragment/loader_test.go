package fragment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/fragmentloader/internal/config"
	"git.home.luguber.info/inful/fragmentloader/internal/dom"
	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
	"git.home.luguber.info/inful/fragmentloader/internal/metrics"
	"git.home.luguber.info/inful/fragmentloader/internal/retry"
)

const wantHeader = `<nav class="navbar">` +
	`<a href="/" class="nav-link">首页</a>` +
	`<a href="/tools" class="nav-link active">所有工具</a>` +
	`<a href="#" class="nav-link">Base64 Encoder</a>` +
	`<a href="#faq" class="nav-link">FAQ</a>` +
	`<a href="#" class="nav-link">Top</a>` +
	`<button class="login-btn">登录</button>` +
	`<button id="registerBtn"><span>注册</span></button>` +
	`</nav>`

func TestLoadComponent_Header(t *testing.T) {
	doc := parsePage(t, `<body><div id="header-container"><p>loading</p></div></body>`)
	rec := newCountingRecorder()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())), WithRecorder(rec))

	err := l.LoadComponent(context.Background(), ComponentHeader, "header-container", Options{
		BasePath:  testBasePath,
		ActiveNav: "tools",
		ToolName:  "Base64 Encoder",
	})
	require.NoError(t, err)
	require.Equal(t, wantHeader, innerHTML(t, doc, "header-container"))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultSuccess}, rec.resultsFor(ComponentHeader))
}

func TestLoadComponent_HeaderDefaultsToHome(t *testing.T) {
	doc := parsePage(t, `<body><div id="nav"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	require.NoError(t, l.LoadComponent(context.Background(), ComponentHeader, "nav", Options{BasePath: testBasePath}))

	out := innerHTML(t, doc, "nav")
	require.Contains(t, out, `<a href="/" class="nav-link active">首页</a>`)
	require.Contains(t, out, `<a href="#" class="nav-link">工具详情</a>`)
}

func TestLoadComponent_Footer(t *testing.T) {
	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	require.NoError(t, l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: testBasePath}))
	require.Equal(t, `<footer><p>共 <span id="toolCount">0</span> 个工具</p></footer>`, innerHTML(t, doc, "footer-container"))
}

func TestLoadComponent_OtherNameInsertedVerbatim(t *testing.T) {
	fsys := componentsFS()
	fsys["components/sidebar.html"] = &fstest.MapFile{Data: []byte(`<aside><a class="active">首页</a></aside>`)}
	doc := parsePage(t, `<body><div id="side"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(fsys)))

	require.NoError(t, l.LoadComponent(context.Background(), "sidebar", "side", Options{BasePath: testBasePath, ActiveNav: "tools"}))
	require.Equal(t, `<aside><a class="active">首页</a></aside>`, innerHTML(t, doc, "side"))
}

func TestLoadComponent_FetchFailureLeavesTarget(t *testing.T) {
	doc := parsePage(t, `<body><div id="header-container"><p>fallback</p></div></body>`)
	rec := newCountingRecorder()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(fstest.MapFS{})), WithRecorder(rec))

	err := l.LoadComponent(context.Background(), ComponentHeader, "header-container", Options{BasePath: testBasePath})
	require.Error(t, err)
	require.True(t, ferrors.IsFetchError(err))
	require.Equal(t, `<p>fallback</p>`, innerHTML(t, doc, "header-container"))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultFetchError}, rec.resultsFor(ComponentHeader))

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	component, _ := ce.Context().GetString(ferrors.ContextComponent)
	require.Equal(t, ComponentHeader, component)
}

func TestLoadComponent_HTTPStatusLeavesTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(srv.Close)

	doc := parsePage(t, `<body><div id="footer-container">old</div></body>`)
	l := NewLoader(doc, WithHTTPClient(srv.Client()))

	err := l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: srv.URL + "/components/"})
	require.True(t, ferrors.IsFetchError(err))
	require.Equal(t, "old", innerHTML(t, doc, "footer-container"))
}

func TestLoadComponent_MissingTarget(t *testing.T) {
	tests := []struct {
		name    string
		fetcher Fetcher
		check   func(error) bool
	}{
		{"fetch succeeds", NewFSFetcher(componentsFS()), ferrors.IsMissingTarget},
		{"fetch fails", NewFSFetcher(fstest.MapFS{}), ferrors.IsFetchError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parsePage(t, `<body><main id="content">body</main></body>`)
			before := doc.String()
			l := NewLoader(doc, WithFetcher(tt.fetcher))

			err := l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: testBasePath})
			require.Error(t, err)
			require.True(t, tt.check(err))
			require.Equal(t, before, doc.String())
		})
	}
}

func TestLoadComponent_TransformPanicLeavesTarget(t *testing.T) {
	doc := parsePage(t, `<body><div id="footer-container"><p>prior</p></div></body>`)
	rec := newCountingRecorder()
	l := NewLoader(doc,
		WithFetcher(NewFSFetcher(componentsFS())),
		WithRecorder(rec),
		WithTransform(ComponentFooter, func([]*html.Node, Options) ([]*html.Node, error) {
			panic("boom")
		}),
	)

	err := l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: testBasePath})
	require.Error(t, err)
	require.True(t, ferrors.IsTransformError(err))
	require.Contains(t, err.Error(), "panic: boom")
	require.Equal(t, `<p>prior</p>`, innerHTML(t, doc, "footer-container"))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultTransform}, rec.resultsFor(ComponentFooter))
}

func TestLoadComponent_TransformError(t *testing.T) {
	doc := parsePage(t, `<body><div id="header-container"></div></body>`)
	cause := errors.New("bad markup")
	l := NewLoader(doc,
		WithFetcher(NewFSFetcher(componentsFS())),
		WithTransform(ComponentHeader, func([]*html.Node, Options) ([]*html.Node, error) {
			return nil, cause
		}),
	)

	err := l.LoadComponent(context.Background(), ComponentHeader, "header-container", Options{BasePath: testBasePath})
	require.ErrorIs(t, err, cause)
	require.True(t, ferrors.IsTransformError(err))
}

func TestLoadComponent_CustomTransformRuns(t *testing.T) {
	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	l := NewLoader(doc,
		WithFetcher(NewFSFetcher(componentsFS())),
		WithTransform(ComponentFooter, func(nodes []*html.Node, _ Options) ([]*html.Node, error) {
			return append(nodes, &html.Node{Type: html.TextNode, Data: "!"}), nil
		}),
	)

	require.NoError(t, l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: testBasePath}))
	require.True(t, strings.HasSuffix(innerHTML(t, doc, "footer-container"), "</footer>!"))
}

func TestLoadComponent_CustomLinksIsNoOp(t *testing.T) {
	doc := parsePage(t, `<body><div id="h"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	err := l.LoadComponent(context.Background(), ComponentHeader, "h", Options{
		BasePath:    testBasePath,
		ActiveNav:   "tools",
		ToolName:    "Base64 Encoder",
		CustomLinks: map[string]string{"/tools": "/elsewhere"},
	})
	require.NoError(t, err)
	require.Equal(t, wantHeader, innerHTML(t, doc, "h"))
}

func TestLoadComponent_Canceled(t *testing.T) {
	doc := parsePage(t, `<body><div id="header-container">keep</div></body>`)
	rec := newCountingRecorder()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())), WithRecorder(rec))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.LoadComponent(ctx, ComponentHeader, "header-container", Options{BasePath: testBasePath})
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, ferrors.IsFetchError(err))
	require.Equal(t, "keep", innerHTML(t, doc, "header-container"))
	require.Equal(t, []metrics.ResultLabel{metrics.ResultCanceled}, rec.resultsFor(ComponentHeader))
}

func TestLoadComponent_UnclassifiedFetcherError(t *testing.T) {
	doc := parsePage(t, `<body><div id="f"></div></body>`)
	l := NewLoader(doc, WithFetcher(FetcherFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("disk on fire")
	})))

	err := l.LoadComponent(context.Background(), ComponentFooter, "f", Options{BasePath: testBasePath})
	require.True(t, ferrors.IsFetchError(err))
	require.Contains(t, err.Error(), "disk on fire")
}

func TestLoadComponent_ResolvesAgainstPageURL(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(footerFixture))
	}))
	t.Cleanup(srv.Close)

	page, err := url.Parse(srv.URL + "/tools/base64/index.html")
	require.NoError(t, err)

	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	l := NewLoader(doc, WithHTTPClient(srv.Client()), WithPageURL(page))

	require.NoError(t, l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{}))
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"/tools/components/footer.html"}, paths)
}

func TestLoadComponent_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(footerFixture))
	}))
	t.Cleanup(srv.Close)

	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	rec := newCountingRecorder()
	l := NewLoader(doc,
		WithHTTPClient(srv.Client()),
		WithRecorder(rec),
		WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)),
	)

	require.NoError(t, l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: srv.URL + "/"}))
	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, 2, rec.retries[ComponentFooter])
}

func TestLoadComponent_RetryExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	l := NewLoader(doc,
		WithHTTPClient(srv.Client()),
		WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 1)),
	)

	err := l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: srv.URL + "/"})
	require.True(t, ferrors.IsFetchError(err))
	require.EqualValues(t, 2, calls.Load())
}

func TestLoadComponent_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(parsePage(t, `<body><div id="f"></div></body>`), WithHTTPClient(srv.Client()))

	require.Error(t, l.LoadComponent(context.Background(), ComponentFooter, "f", Options{BasePath: srv.URL + "/"}))
	require.EqualValues(t, 1, calls.Load())
}

func TestLoadComponent_PrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	doc := parsePage(t, `<body><div id="footer-container"></div></body>`)
	l := NewLoader(doc,
		WithFetcher(NewFSFetcher(componentsFS())),
		WithRecorder(metrics.NewPrometheusRecorder(reg)),
	)

	require.NoError(t, l.LoadComponent(context.Background(), ComponentFooter, "footer-container", Options{BasePath: testBasePath}))
	require.Error(t, l.LoadComponent(context.Background(), ComponentFooter, "missing", Options{BasePath: testBasePath}))

	expected := `
# HELP fragmentloader_load_results_total Component load outcomes
# TYPE fragmentloader_load_results_total counter
fragmentloader_load_results_total{component="footer",result="missing_target"} 1
fragmentloader_load_results_total{component="footer",result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fragmentloader_load_results_total"))
}

func TestLoadComponent_Concurrent(t *testing.T) {
	doc := parsePage(t, `<body><div id="a"></div><div id="b"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	errs := make(chan error, 2)
	go func() { errs <- l.LoadComponent(context.Background(), ComponentHeader, "a", Options{BasePath: testBasePath}) }()
	go func() { errs <- l.LoadComponent(context.Background(), ComponentFooter, "b", Options{BasePath: testBasePath}) }()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	require.Contains(t, innerHTML(t, doc, "a"), "<nav")
	require.Contains(t, innerHTML(t, doc, "b"), "<footer>")
}

func TestInitPage_EmptyBody(t *testing.T) {
	doc := dom.New()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	results := l.InitPage(context.Background(), PageConfig{
		Options:    Options{BasePath: testBasePath},
		LoadHeader: Bool(true),
		LoadFooter: Bool(true),
	})
	l.Wait()

	require.Len(t, results, 2)
	require.Equal(t, Result{Component: ComponentHeader, Target: DefaultHeaderTarget}, results[0])
	require.Equal(t, Result{Component: ComponentFooter, Target: DefaultFooterTarget}, results[1])
	require.True(t, AllOK(results))

	body := doc.Body()
	require.Equal(t, DefaultHeaderTarget, dom.Attr(body.FirstChild, "id"))
	require.Equal(t, DefaultFooterTarget, dom.Attr(body.LastChild, "id"))

	out := doc.String()
	require.Equal(t, 1, strings.Count(out, `id="header-container"`))
	require.Equal(t, 1, strings.Count(out, `id="footer-container"`))
	require.Equal(t, 1, strings.Count(out, `href="components/shared-styles.css"`))
}

func TestInitPage_UsesExistingContainers(t *testing.T) {
	doc := parsePage(t, `<body><main>content</main><div id="top"></div><div id="bottom"></div></body>`)
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	results := l.InitPage(context.Background(), PageConfig{
		Options:          Options{BasePath: testBasePath},
		HeaderTarget:     "top",
		FooterTarget:     "bottom",
		LoadSharedStyles: Bool(false),
	})

	require.True(t, AllOK(results))
	require.Equal(t, "main", doc.Body().FirstChild.Data)
	require.Contains(t, innerHTML(t, doc, "top"), "<nav")
	require.Contains(t, innerHTML(t, doc, "bottom"), "<footer>")
	require.NotContains(t, doc.String(), "<link")
}

func TestInitPage_SharedStylesOnce(t *testing.T) {
	doc := dom.New()
	rec := newCountingRecorder()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())), WithRecorder(rec))

	cfg := PageConfig{
		Options:          Options{BasePath: testBasePath},
		LoadHeader:       Bool(false),
		LoadFooter:       Bool(false),
		LoadSharedStyles: Bool(true),
	}
	require.Empty(t, l.InitPage(context.Background(), cfg))
	require.Empty(t, l.InitPage(context.Background(), cfg))
	l.Wait()

	links, err := doc.QuerySelectorAll(`link[rel="stylesheet"]`)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, 1, rec.stylesheets)
}

func TestInitPage_StylesheetProbeFailureIsNotFatal(t *testing.T) {
	fsys := componentsFS()
	delete(fsys, "components/shared-styles.css")
	l := NewLoader(dom.New(), WithFetcher(NewFSFetcher(fsys)))

	results := l.InitPage(context.Background(), PageConfig{Options: Options{BasePath: testBasePath}})
	l.Wait()

	require.True(t, AllOK(results))
}

func TestInitPage_PartialFailure(t *testing.T) {
	fsys := componentsFS()
	delete(fsys, "components/footer.html")
	doc := dom.New()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(fsys)))

	results := l.InitPage(context.Background(), PageConfig{Options: Options{BasePath: testBasePath}})
	l.Wait()

	require.Len(t, results, 2)
	require.True(t, results[0].OK())
	require.False(t, results[1].OK())
	require.True(t, ferrors.IsFetchError(results[1].Err))
	require.False(t, AllOK(results))
	require.Equal(t, "", innerHTML(t, doc, DefaultFooterTarget))
}

func TestInitPage_Disabled(t *testing.T) {
	doc := dom.New()
	l := NewLoader(doc, WithFetcher(NewFSFetcher(componentsFS())))

	results := l.InitPage(context.Background(), PageConfig{
		Options:          Options{BasePath: testBasePath},
		LoadHeader:       Bool(false),
		LoadFooter:       Bool(true),
		LoadSharedStyles: Bool(false),
	})

	require.Len(t, results, 1)
	require.Equal(t, ComponentFooter, results[0].Component)
	require.Nil(t, doc.GetElementByID(DefaultHeaderTarget))
}
