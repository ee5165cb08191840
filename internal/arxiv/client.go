// Package arxiv harvests one day's submissions from the arXiv query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/resilience"
)

const (
	// DefaultEndpoint is the public query API.
	DefaultEndpoint = "https://export.arxiv.org/api/query"
	// DefaultInterval is the pause arXiv asks clients to keep between calls.
	DefaultInterval = 3 * time.Second

	defaultPageSize   = 100
	defaultMaxResults = 1000
)

// CrossCategories are paired with every configured category when building a
// query, so only AI and ML papers come back.
var CrossCategories = []string{"cs.LG", "cs.AI"}

// Entry is one submission as listed by the API.
type Entry struct {
	ID         string
	Title      string
	Abstract   string
	Authors    []string
	Categories []string
	Published  time.Time
	AbsURL     string
	PDFURL     string
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	HTTPClient *http.Client
	Executor   *resilience.Executor
	// PageSize is the max_results of one request.
	PageSize int
	// MaxResults caps the entries read for one query.
	MaxResults int
	// Interval is the minimum gap between requests. Negative disables it.
	Interval time.Duration
}

// Client pages through search results under retry and a request rate limit.
type Client struct {
	endpoint   *url.URL
	client     *http.Client
	exec       *resilience.Executor
	limiter    *rate.Limiter
	pageSize   int
	maxResults int
}

var (
	idRegexp             = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/([0-9a-z./\-]+?)(?:v\d+)?$`)
	bareID               = regexp.MustCompile(`^[0-9a-z./\-]+$`)
	versionSuffix        = regexp.MustCompile(`v\d+$`)
	extraneousWhitespace = regexp.MustCompile(`\s+`)
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse arxiv endpoint %q: %w", endpoint, err)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	exec := opts.Executor
	if exec == nil {
		exec = resilience.NewExecutor(resilience.DefaultConfig())
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Client{
		endpoint:   u,
		client:     client,
		exec:       exec,
		limiter:    rate.NewLimiter(limit, 1),
		pageSize:   pageSize,
		maxResults: maxResults,
	}, nil
}

// Query pairs each category with CrossCategories, eg.
// (cat:cs.CV AND cat:cs.LG) OR (cat:cs.CV AND cat:cs.AI).
func Query(categories []string) string {
	var clauses []string
	for _, category := range categories {
		for _, cross := range CrossCategories {
			clauses = append(clauses, fmt.Sprintf("(cat:%s AND cat:%s)", category, cross))
		}
	}
	return strings.Join(clauses, " OR ")
}

// Search lists entries for query, newest submission first. Paging stops when
// a page comes back short, MaxResults is reached, or more reports false for
// the last entry of a page.
func (c *Client) Search(ctx context.Context, query string, more func(Entry) bool) ([]Entry, error) {
	var out []Entry
	for start := 0; start < c.maxResults; start += c.pageSize {
		size := c.pageSize
		if remaining := c.maxResults - start; remaining < size {
			size = remaining
		}
		page, err := c.page(ctx, query, start, size)
		if err != nil {
			return out, err
		}
		out = append(out, page...)
		logger.Get().Debug("arxiv page read",
			zap.Int("start", start),
			zap.Int("entries", len(page)),
		)
		if len(page) < size {
			break
		}
		if more != nil && !more(page[len(page)-1]) {
			break
		}
	}
	return out, nil
}

func (c *Client) page(ctx context.Context, query string, start, size int) ([]Entry, error) {
	target := *c.endpoint
	params := target.Query()
	params.Set("search_query", query)
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(size))
	target.RawQuery = params.Encode()
	rawURL := target.String()

	var entries []Entry
	err := c.exec.Execute(ctx, "arxiv.search", func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := c.get(ctx, rawURL)
		if err != nil {
			return err
		}
		entries = page
		return nil
	}, classify)
	if err != nil {
		logger.Get().Warn("arxiv search failed",
			zap.String("operation", "arxiv.search"),
			zap.Int("start", start),
			zap.Error(err),
		)
		return nil, err
	}
	return entries, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("arxiv API error: %d %s (%s)", e.status, http.StatusText(e.status), e.body)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return decodeEntries(resp.Body)
}

func classify(err error) resilience.Classification {
	if errors.Is(err, context.Canceled) {
		return resilience.Classification{}
	}
	var se *statusError
	if errors.As(err, &se) {
		retry := se.status >= 500 || se.status == http.StatusTooManyRequests
		return resilience.Classification{Retryable: retry, RecordFailure: retry}
	}
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return resilience.Classification{}
	}
	return resilience.Classification{Retryable: true, RecordFailure: true}
}

type apiFeed struct {
	Entries []apiEntry `xml:"entry"`
}

type apiEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	Authors    []apiAuthor   `xml:"author"`
	Categories []apiCategory `xml:"category"`
	Primary    apiCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	Links      []apiLink     `xml:"link"`
}

type apiAuthor struct {
	Name string `xml:"name"`
}

type apiCategory struct {
	Term string `xml:"term,attr"`
}

type apiLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
}

func decodeEntries(r io.Reader) ([]Entry, error) {
	var feed apiFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode arxiv response: %w", err)
	}
	entries := make([]Entry, 0, len(feed.Entries))
	for _, raw := range feed.Entries {
		entry, ok := raw.toEntry()
		if !ok {
			logger.Get().Warn("arxiv entry skipped", zap.String("id", raw.ID))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e apiEntry) toEntry() (Entry, bool) {
	id := extractIdentifier(e.ID)
	if id == "" {
		return Entry{}, false
	}
	published, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published))
	if err != nil {
		return Entry{}, false
	}

	authors := make([]string, 0, len(e.Authors))
	for _, a := range e.Authors {
		if name := normalizeWhitespace(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	// The primary category leads so the browser groups by it.
	primary := strings.TrimSpace(e.Primary.Term)
	categories := make([]string, 0, len(e.Categories)+1)
	if primary != "" {
		categories = append(categories, primary)
	}
	for _, cat := range e.Categories {
		term := strings.TrimSpace(cat.Term)
		if term != "" && term != primary {
			categories = append(categories, term)
		}
	}

	pdfURL := "https://arxiv.org/pdf/" + id
	for _, link := range e.Links {
		if link.Title == "pdf" && link.Href != "" {
			pdfURL = versionSuffix.ReplaceAllString(link.Href, "")
		}
	}

	return Entry{
		ID:         id,
		Title:      normalizeWhitespace(e.Title),
		Abstract:   normalizeWhitespace(e.Summary),
		Authors:    authors,
		Categories: categories,
		Published:  published.UTC(),
		AbsURL:     "https://arxiv.org/abs/" + id,
		PDFURL:     pdfURL,
	}, true
}

// extractIdentifier returns the versionless id of an abs or pdf URL, or of a
// bare identifier.
func extractIdentifier(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if len(input) > 4 && strings.EqualFold(input[len(input)-4:], ".pdf") {
		input = input[:len(input)-4]
	}
	if matches := idRegexp.FindStringSubmatch(input); len(matches) > 1 {
		return matches[1]
	}
	if len(input) >= len("arxiv:") && strings.EqualFold(input[:len("arxiv:")], "arxiv:") {
		input = input[len("arxiv:"):]
	}
	input = versionSuffix.ReplaceAllString(strings.TrimSpace(input), "")
	if bareID.MatchString(input) {
		return input
	}
	return ""
}

func normalizeWhitespace(s string) string {
	return extraneousWhitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
