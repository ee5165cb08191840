package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/resilience"
)

// Source opens named files relative to the feed root.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// SourceOptions tunes HTTP sources. Directory sources ignore it.
type SourceOptions struct {
	Client   *http.Client
	Timeout  time.Duration
	Rate     float64
	Executor *resilience.Executor
}

// NewSource returns an HTTPSource for http(s) locations and a DirSource for
// anything else, including file:// URLs.
func NewSource(location string, opts SourceOptions) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("feed: empty source location")
	}
	if strings.HasPrefix(location, "file://") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse source %q: %w", location, err)
		}
		return NewDirSource(u.Path), nil
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, opts)
	}
	return NewDirSource(location), nil
}

// DirSource reads files from a local directory tree.
type DirSource struct {
	root string
}

// NewDirSource roots a DirSource at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{root: dir}
}

// Open implements Source.
func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, err
	}
	return file, nil
}

// HTTPSource fetches files below a base URL, rate limited and retried.
type HTTPSource struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
	exec    *resilience.Executor
}

// NewHTTPSource builds an HTTPSource rooted at base.
func NewHTTPSource(base string, opts SourceOptions) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse source %q: %w", base, err)
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	exec := opts.Executor
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &HTTPSource{
		base:    u,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		exec:    exec,
	}, nil
}

type statusError struct {
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s (%s)", e.url, e.status, http.StatusText(e.status), e.body)
}

// Open implements Source. The body is buffered so a retried attempt never
// hands back a half-read stream.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	target := *s.base
	target.Path = path.Join(s.base.Path, name)
	rawURL := target.String()

	var body []byte
	err := s.exec.Execute(ctx, "feed:"+s.base.Host, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		data, err := s.get(ctx, rawURL)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, classify)
	if err != nil {
		logger.Get().Warn("fetch failed",
			zap.String("operation", "feed.open"),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (s *HTTPSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{url: rawURL, status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
	return io.ReadAll(resp.Body)
}

func classify(err error) resilience.Classification {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return resilience.Classification{}
	}
	var se *statusError
	if errors.As(err, &se) {
		retry := se.status >= 500 || se.status == http.StatusTooManyRequests
		return resilience.Classification{Retryable: retry, RecordFailure: retry}
	}
	// Transport errors and timeouts.
	return resilience.Classification{Retryable: true, RecordFailure: true}
}
