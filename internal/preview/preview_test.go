package preview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/resilience"
)

func TestLinks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, pdf, html string
	}{
		{"https://arxiv.org/abs/2401.00001", "https://arxiv.org/pdf/2401.00001", "https://arxiv.org/html/2401.00001"},
		{"https://example.com/paper", "https://example.com/paper", "https://example.com/paper"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := PDFLink(tc.in); got != tc.pdf {
			t.Errorf("PDFLink(%q) = %q, want %q", tc.in, got, tc.pdf)
		}
		if got := HTMLLink(tc.in); got != tc.html {
			t.Errorf("HTMLLink(%q) = %q, want %q", tc.in, got, tc.html)
		}
	}
}

func testPaper(base, id string) feed.Paper {
	return feed.Paper{ID: id, Date: "2024-01-02", URL: base + "/abs/" + id}
}

func quickExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
}

func newTestStore(t *testing.T, client *http.Client) *pdfStore {
	t.Helper()
	return &pdfStore{dir: t.TempDir(), ttl: time.Hour, client: client, exec: quickExecutor()}
}

func expire(t *testing.T, path string) {
	t.Helper()
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestStoreReusesFreshEntry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/pdf/2401.00001" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("%PDF-1.4\nHello"))
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t, server.Client())
	p := testPaper(server.URL, "2401.00001")
	ctx := context.Background()

	path, err := store.path(ctx, p, PDFLink(p.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if want := filepath.Join(store.dir, "2024-01-02", "2401.00001.pdf"); path != want {
		t.Fatalf("expected entry %s, got %s", want, path)
	}
	if _, err := store.path(ctx, p, PDFLink(p.URL)); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single download, got %d", hits.Load())
	}
}

func TestStoreRevalidatesExpiredEntry(t *testing.T) {
	var conditional atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v2"` {
			conditional.Store(true)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Etag", `"v2"`)
		_, _ = w.Write([]byte("%PDF-1.4\nUpdated"))
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t, server.Client())
	p := testPaper(server.URL, "2201.00001")
	ctx := context.Background()

	path, err := store.path(ctx, p, PDFLink(p.URL))
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}
	expire(t, path)
	if _, err := store.path(ctx, p, PDFLink(p.URL)); err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if !conditional.Load() {
		t.Fatal("expected a conditional request for the expired entry")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if time.Since(info.ModTime()) > time.Hour {
		t.Fatal("revalidated entry should be fresh again")
	}
}

func TestStoreResumesInterruptedDownload(t *testing.T) {
	var attempts atomic.Int32
	var rangeHeader, ifRange atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Etag", `"resume"`)
		if attempts.Add(1) == 1 {
			// Promise more than is sent so the client sees a cut body.
			w.Header().Set("Content-Length", "11")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("hello "))
			return
		}
		rangeHeader.Store(r.Header.Get("Range"))
		ifRange.Store(r.Header.Get("If-Range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("world"))
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t, server.Client())
	p := testPaper(server.URL, "2301.00001")
	e := store.entryFor(p)

	path, err := store.path(context.Background(), p, PDFLink(p.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("resume failed, got %q", data)
	}
	if got := rangeHeader.Load(); got != fmt.Sprintf("bytes=%d-", len("hello ")) {
		t.Fatalf("expected range header, got %v", got)
	}
	if got := ifRange.Load(); got != `"resume"` {
		t.Fatalf("expected If-Range with the stored etag, got %v", got)
	}
	if _, err := os.Stat(e.part); !os.IsNotExist(err) {
		t.Fatalf("partial file should be gone, err=%v", err)
	}
}

func TestStoreReportsFailureInsteadOfExpiredCopy(t *testing.T) {
	var fail atomic.Bool
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4\nOld"))
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t, server.Client())
	p := testPaper(server.URL, "2401.00002")
	path, err := store.path(context.Background(), p, PDFLink(p.URL))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	expire(t, path)

	fail.Store(true)
	hits.Store(0)
	_, err = store.path(context.Background(), p, PDFLink(p.URL))
	var se *statusError
	if !errors.As(err, &se) || se.status != http.StatusBadGateway {
		t.Fatalf("expected the 502 to surface, got %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected the executor to retry 3 times, got %d", hits.Load())
	}
}

func TestStoreDoesNotRetryMissingPDF(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	store := newTestStore(t, server.Client())
	p := testPaper(server.URL, "2401.09999")
	if _, err := store.path(context.Background(), p, PDFLink(p.URL)); err == nil {
		t.Fatal("expected an error for a missing pdf")
	}
	if hits.Load() != 1 {
		t.Fatalf("404 should not be retried, got %d requests", hits.Load())
	}
}

func TestEntryName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		paper feed.Paper
		want  string
	}{
		{feed.Paper{ID: "2401.00001", Date: "2024-01-02"}, "2024-01-02/2401.00001"},
		{feed.Paper{ID: "cs/0112017", Date: "2001-12-10"}, "2001-12-10/cs-0112017"},
		{feed.Paper{ID: "../../etc", Date: "2024-01-02"}, "2024-01-02/----etc"},
		{feed.Paper{ID: "2401.00003"}, "undated/2401.00003"},
	}
	for _, tc := range cases {
		if got := EntryName(tc.paper); got != tc.want {
			t.Errorf("EntryName(%+v) = %q, want %q", tc.paper, got, tc.want)
		}
	}
	hashed := EntryName(feed.Paper{Date: "2024-01-02", URL: "https://example.com/x"})
	if !strings.HasPrefix(hashed, "2024-01-02/") || len(hashed) != len("2024-01-02/")+40 {
		t.Fatalf("expected a sha1 name, got %q", hashed)
	}
}

func TestFetcherClipsExtractedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	t.Cleanup(server.Close)

	f, err := NewFetcher(Options{Dir: t.TempDir(), Client: server.Client(), Executor: quickExecutor()})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	f.extract = func(string) (string, error) { return "Deep learning for robots", nil }

	got, err := f.Text(context.Background(), testPaper(server.URL, "2401.00003"), 13)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if got != "Deep learning…" {
		t.Fatalf("unexpected preview %q", got)
	}
	if _, err := f.Text(context.Background(), feed.Paper{Date: "2024-01-02"}, 10); err == nil {
		t.Fatal("expected error for a paper without a link")
	}
}
