package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/fragmentloader/internal/foundation/errors"
)

// Fetch limits.
const (
	DefaultFetchTimeout  = 10 * time.Second
	DefaultMaxFetchBytes = 5 * 1024 * 1024
	maxRedirects         = 5
)

// Fetcher retrieves the raw bytes at a fragment location.
//
// Failures should be classified fetch errors (see foundation/errors); the
// loader classifies anything else itself.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// NewHTTPClient creates an HTTP client that refuses cross-host redirects.
// A non-positive timeout selects DefaultFetchTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// HTTPFetcher fetches fragments with GET requests.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher returns a fetcher using client (NewHTTPClient(0) when nil)
// that rejects bodies larger than maxBytes (DefaultMaxFetchBytes when <= 0).
func NewHTTPFetcher(client *http.Client, maxBytes int64) *HTTPFetcher {
	if client == nil {
		client = NewHTTPClient(0)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}
	return &HTTPFetcher{client: client, maxBytes: maxBytes}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return nil, fetchFailure("build request", location).WithCause(err).Build()
	}

	resp, err := f.client.Do(req)
	if err != nil {
		b := fetchFailure("request failed", location).WithCause(err)
		if ctx.Err() == nil {
			b = b.Retryable()
		}
		return nil, b.Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b := fetchFailure(fmt.Sprintf("HTTP %d", resp.StatusCode), location).
			WithContext(ferrors.ContextStatus, resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Retryable()
		}
		return nil, b.Build()
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fetchFailure("read response", location).WithCause(err).Retryable().Build()
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fetchFailure("response too large", location).
			WithContext("max_bytes", f.maxBytes).
			Build()
	}
	return data, nil
}

// FSFetcher reads fragments from a filesystem, e.g. os.DirFS over a
// components directory. Locations are slash-separated paths; a leading "/"
// or "./" is ignored.
type FSFetcher struct {
	fsys fs.FS
}

// NewFSFetcher returns a fetcher reading from fsys.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

func (f *FSFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchFailure("canceled", location).WithCause(err).Build()
	}
	name := path.Clean(strings.TrimPrefix(location, "/"))
	if !fs.ValidPath(name) {
		return nil, fetchFailure("invalid fragment path", location).Build()
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		b := fetchFailure("read fragment", location).WithCause(err)
		if errors.Is(err, fs.ErrNotExist) {
			b = b.WithContext(ferrors.ContextStatus, http.StatusNotFound)
		}
		return nil, b.Build()
	}
	return data, nil
}

func fetchFailure(message, location string) *ferrors.ErrorBuilder {
	return ferrors.NewError(ferrors.CategoryFetch, message).WithContext(ferrors.ContextURL, location)
}
