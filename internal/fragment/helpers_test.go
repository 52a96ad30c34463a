package fragment

import (
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fragmentloader/internal/dom"
	"git.home.luguber.info/inful/fragmentloader/internal/metrics"
)

const (
	testBasePath = "components/"

	headerFixture = `<nav class="navbar">` +
		`<a href="/" class="nav-link active">首页</a>` +
		`<a href="/tools" class="nav-link">所有工具</a>` +
		`<a href="#" class="nav-link">工具详情</a>` +
		`<a href="#faq" class="nav-link">FAQ</a>` +
		`<a href="#" class="nav-link">Top</a>` +
		`<button class="login-btn">登录</button>` +
		`<button id="registerBtn"><span>注册</span></button>` +
		`</nav>`

	footerFixture = `<footer><p>共 <span id="toolCount">128</span> 个工具</p></footer>`
)

func componentsFS() fstest.MapFS {
	return fstest.MapFS{
		"components/header.html":       {Data: []byte(headerFixture)},
		"components/footer.html":       {Data: []byte(footerFixture)},
		"components/shared-styles.css": {Data: []byte("body{margin:0}")},
	}
}

func parsePage(t *testing.T, markup string, opts ...dom.Option) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup, opts...)
	require.NoError(t, err)
	return doc
}

func innerHTML(t *testing.T, doc *dom.Document, id string) string {
	t.Helper()
	out, ok := doc.InnerHTMLByID(id)
	require.True(t, ok, "element #%s missing", id)
	return out
}

type notices struct {
	mu  sync.Mutex
	got []string
}

func (n *notices) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, message)
}

func (n *notices) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.got...)
}

type countingRecorder struct {
	mu          sync.Mutex
	results     map[string][]metrics.ResultLabel
	retries     map[string]int
	fetches     int
	stylesheets int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{results: map[string][]metrics.ResultLabel{}, retries: map[string]int{}}
}

func (r *countingRecorder) ObserveFetchDuration(string, time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
}

func (r *countingRecorder) IncLoadResult(component string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[component] = append(r.results[component], result)
}

func (r *countingRecorder) IncFetchRetry(component string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries[component]++
}

func (r *countingRecorder) IncStylesheetInjected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stylesheets++
}

func (r *countingRecorder) resultsFor(component string) []metrics.ResultLabel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.ResultLabel(nil), r.results[component]...)
}
