package preview

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/resilience"
)

const (
	// DefaultTTL is how long a downloaded PDF is used before it is revalidated.
	DefaultTTL = 24 * time.Hour
	// DefaultTimeout bounds one preview, download and extraction included.
	DefaultTimeout = 2 * time.Minute
)

var errNoEntry = errors.New("preview: server answered 304 without a stored copy")

// pdfStore keeps one PDF per feed record under dir/<date>/<id>.pdf. Expired
// entries are revalidated with a conditional GET, and an interrupted
// download resumes from its .part file on the next attempt.
type pdfStore struct {
	dir    string
	ttl    time.Duration
	client *http.Client
	exec   *resilience.Executor
}

type storeEntry struct {
	pdf  string
	part string
	meta string
}

// validators are the response headers needed for revalidation and resume.
type validators struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

type statusError struct {
	url    string
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("pdf download %s: HTTP %d", e.url, e.status)
	}
	return fmt.Sprintf("pdf download %s: HTTP %d (%s)", e.url, e.status, e.body)
}

// EntryName is the store-relative name of p's PDF: its date, then its id.
// Records without an id are named after a hash of their link.
func EntryName(p feed.Paper) string {
	date := strings.TrimSpace(p.Date)
	if date == "" {
		date = "undated"
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		sum := sha1.Sum([]byte(p.URL))
		id = hex.EncodeToString(sum[:])
	}
	id = strings.NewReplacer("/", "-", `\`, "-", ":", "-", "..", "-").Replace(id)
	return date + "/" + id
}

func (s *pdfStore) entryFor(p feed.Paper) storeEntry {
	base := filepath.Join(s.dir, filepath.FromSlash(EntryName(p)))
	return storeEntry{pdf: base + ".pdf", part: base + ".part", meta: base + ".json"}
}

// path returns the local copy of p's PDF, downloading or revalidating it
// when it is missing or expired. Failures are returned as is.
func (s *pdfStore) path(ctx context.Context, p feed.Paper, pdfURL string) (string, error) {
	e := s.entryFor(p)
	info, err := os.Stat(e.pdf)
	stored := err == nil && info.Size() > 0
	if stored && time.Since(info.ModTime()) < s.ttl {
		return e.pdf, nil
	}
	if err := os.MkdirAll(filepath.Dir(e.pdf), 0o755); err != nil {
		return "", fmt.Errorf("create preview dir: %w", err)
	}

	call := func(ctx context.Context) error {
		return s.download(ctx, pdfURL, e, stored)
	}
	if s.exec != nil {
		err = s.exec.Execute(ctx, "preview.pdf", call, classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		logger.Get().Warn("pdf unavailable",
			zap.String("operation", "preview.fetch"),
			zap.String("entry", EntryName(p)),
			zap.String("url", pdfURL),
			zap.Error(err),
		)
		return "", err
	}
	return e.pdf, nil
}

func (s *pdfStore) download(ctx context.Context, pdfURL string, e storeEntry, stored bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return err
	}
	v := readValidators(e.meta)
	if stored {
		setIf(req, "If-None-Match", v.ETag)
		setIf(req, "If-Modified-Since", v.LastModified)
	}
	var offset int64
	if info, err := os.Stat(e.part); err == nil && info.Size() > 0 {
		offset = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		if v.ETag != "" {
			req.Header.Set("If-Range", v.ETag)
		} else {
			setIf(req, "If-Range", v.LastModified)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !stored {
			return errNoEntry
		}
		now := time.Now()
		return os.Chtimes(e.pdf, now, now)
	case http.StatusOK:
		offset = 0
	case http.StatusPartialContent:
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{url: pdfURL, status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	// Validators go to disk first so a resumed download can send If-Range.
	if err := writeValidators(e.meta, validators{
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}); err != nil {
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(e.part, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("pdf download %s interrupted: %w", pdfURL, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(e.part, e.pdf)
}

func setIf(req *http.Request, header, value string) {
	if value != "" {
		req.Header.Set(header, value)
	}
}

func classify(err error) resilience.Classification {
	if errors.Is(err, context.Canceled) || errors.Is(err, errNoEntry) {
		return resilience.Classification{}
	}
	var se *statusError
	if errors.As(err, &se) {
		retry := se.status >= 500 || se.status == http.StatusTooManyRequests
		return resilience.Classification{Retryable: retry, RecordFailure: retry}
	}
	return resilience.Classification{Retryable: true, RecordFailure: true}
}

func readValidators(path string) validators {
	var v validators
	data, err := os.ReadFile(path)
	if err != nil {
		return v
	}
	_ = json.Unmarshal(data, &v)
	return v
}

func writeValidators(path string, v validators) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
