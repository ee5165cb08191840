package arxiv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/csheth/dailyfeed/internal/resilience"
)

func TestExtractIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"abs url", "http://arxiv.org/abs/2101.00001v1", "2101.00001"},
		{"pdf url", "https://arxiv.org/pdf/2205.12345.pdf", "2205.12345"},
		{"old style", "http://arxiv.org/abs/cs/0112017v2", "cs/0112017"},
		{"prefixed", "arXiv:2101.00001", "2101.00001"},
		{"bare versioned", "2308.01234v2", "2308.01234"},
		{"bare pdf suffix", "2308.01234v2.pdf", "2308.01234"},
		{"invalid", "https://example.com/foo bar", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := extractIdentifier(tt.in); got != tt.want {
				t.Fatalf("extractIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQueryPairsEveryCategory(t *testing.T) {
	t.Parallel()

	got := Query([]string{"cs.CV", "cs.RO"})
	want := "(cat:cs.CV AND cat:cs.LG) OR (cat:cs.CV AND cat:cs.AI) OR " +
		"(cat:cs.RO AND cat:cs.LG) OR (cat:cs.RO AND cat:cs.AI)"
	if got != want {
		t.Fatalf("Query = %q, want %q", got, want)
	}
}

type atomEntry struct {
	id        string
	published string
	primary   string
	others    []string
}

func atomFeed(entries ...atomEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
`)
	for _, e := range entries {
		fmt.Fprintf(&b, `<entry>
  <id>http://arxiv.org/abs/%[1]sv2</id>
  <published>%[2]s</published>
  <title>Paper
    %[1]s</title>
  <summary>  An abstract
  over two lines.  </summary>
  <author><name>Ada Lovelace</name></author>
  <author><name> Alan  Turing </name></author>
  <link href="http://arxiv.org/abs/%[1]sv2" rel="alternate" type="text/html"/>
  <link title="pdf" href="http://arxiv.org/pdf/%[1]sv2" rel="related" type="application/pdf"/>
  <arxiv:primary_category term="%[3]s" scheme="http://arxiv.org/schemas/atom"/>
`, e.id, e.published, e.primary)
		for _, c := range append([]string{e.primary}, e.others...) {
			fmt.Fprintf(&b, "  <category term=%q scheme=\"http://arxiv.org/schemas/atom\"/>\n", c)
		}
		b.WriteString("</entry>\n")
	}
	b.WriteString("</feed>\n")
	return b.String()
}

func quickExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
}

func newTestClient(t *testing.T, endpoint string, pageSize int) *Client {
	t.Helper()
	client, err := NewClient(Options{
		Endpoint: endpoint,
		Executor: quickExecutor(),
		PageSize: pageSize,
		Interval: -1,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSearchDecodesEntries(t *testing.T) {
	t.Parallel()

	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.Query())
		fmt.Fprint(w, atomFeed(atomEntry{id: "2401.00001", published: "2024-01-02T10:00:00Z", primary: "cs.RO", others: []string{"cs.AI"}}))
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv.URL, 10).Search(context.Background(), "cat:cs.RO", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	got := entries[0]
	if want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC); !got.Published.Equal(want) {
		t.Fatalf("published = %v, want %v", got.Published, want)
	}
	got.Published = time.Time{}
	want := Entry{
		ID:         "2401.00001",
		Title:      "Paper 2401.00001",
		Abstract:   "An abstract over two lines.",
		Authors:    []string{"Ada Lovelace", "Alan Turing"},
		Categories: []string{"cs.RO", "cs.AI"},
		AbsURL:     "https://arxiv.org/abs/2401.00001",
		PDFURL:     "http://arxiv.org/pdf/2401.00001",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entry = %+v\nwant    %+v", got, want)
	}

	params := query.Load().(url.Values)
	for key, value := range map[string]string{
		"search_query": "cat:cs.RO",
		"sortBy":       "submittedDate",
		"sortOrder":    "descending",
		"start":        "0",
		"max_results":  "10",
	} {
		if got := params[key]; len(got) != 1 || got[0] != value {
			t.Fatalf("param %s = %v, want %q", key, got, value)
		}
	}
}

func TestSearchPagesUntilShortPage(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		starts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		mu.Lock()
		starts = append(starts, start)
		mu.Unlock()
		n, _ := strconv.Atoi(start)
		var entries []atomEntry
		// Five entries in total, two per page.
		for i := n; i < n+2 && i < 5; i++ {
			entries = append(entries, atomEntry{id: fmt.Sprintf("2401.0000%d", i), published: "2024-01-02T10:00:00Z", primary: "cs.AI"})
		}
		fmt.Fprint(w, atomFeed(entries...))
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv.URL, 2).Search(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	mu.Lock()
	defer mu.Unlock()
	if want := []string{"0", "2", "4"}; !reflect.DeepEqual(starts, want) {
		t.Fatalf("starts = %v, want %v", starts, want)
	}
}

func TestSearchStopsWhenCallbackDeclines(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, atomFeed(
			atomEntry{id: "2401.00001", published: "2024-01-02T10:00:00Z", primary: "cs.AI"},
			atomEntry{id: "2401.00002", published: "2024-01-01T10:00:00Z", primary: "cs.AI"},
		))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 2).Search(context.Background(), "q", func(last Entry) bool {
		return last.Published.Format("2006-01-02") >= "2024-01-02"
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, atomFeed())
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv.URL, 10).Search(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d entries, want none", len(entries))
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
}

func TestSearchDoesNotRetryBadRequest(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 10).Search(context.Background(), "q", nil)
	var se *statusError
	if !errors.As(err, &se) || se.status != http.StatusBadRequest {
		t.Fatalf("err = %v, want a 400 status error", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("requests = %d, want 1", got)
	}
}

func TestDecodeSkipsUnparseableEntries(t *testing.T) {
	t.Parallel()

	entries, err := decodeEntries(strings.NewReader(atomFeed(
		atomEntry{id: "2401.00001", published: "2024-01-02T10:00:00Z", primary: "cs.AI"},
		atomEntry{id: "2401.00002", published: "yesterday", primary: "cs.AI"},
	)))
	if err != nil {
		t.Fatalf("decodeEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "2401.00001" {
		t.Fatalf("entries = %+v, want only 2401.00001", entries)
	}
}
