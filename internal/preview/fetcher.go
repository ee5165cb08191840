package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/resilience"
)

var whitespace = regexp.MustCompile(`\s+`)

// Fetcher downloads a record's PDF into the store and extracts its text.
type Fetcher struct {
	store   *pdfStore
	extract func(path string) (string, error)
}

// Options configures a Fetcher. Downloads go through Executor when set.
type Options struct {
	Dir      string
	TTL      time.Duration
	Client   *http.Client
	Executor *resilience.Executor
}

// NewFetcher creates the store directory and returns a Fetcher.
func NewFetcher(opts Options) (*Fetcher, error) {
	dir := opts.Dir
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "dailyfeed", "preview")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview store: %w", err)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		store:   &pdfStore{dir: dir, ttl: ttl, client: client, exec: opts.Executor},
		extract: extractText,
	}, nil
}

// Text returns up to limit runes of whitespace-normalised text from p's PDF.
// A limit of zero or less means no clipping.
func (f *Fetcher) Text(ctx context.Context, p feed.Paper, limit int) (string, error) {
	pdfURL := strings.TrimSpace(PDFLink(p.URL))
	if pdfURL == "" {
		return "", fmt.Errorf("preview: paper has no link")
	}
	path, err := f.store.path(ctx, p, pdfURL)
	if err != nil {
		return "", fmt.Errorf("fetch pdf: %w", err)
	}
	text, err := f.extract(path)
	if err != nil {
		return "", err
	}
	return Clip(text, limit), nil
}

func extractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, content); err != nil {
		return "", err
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(b.String(), " ")), nil
}

// Clip shortens text to limit runes, marking the cut with an ellipsis.
func Clip(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
