// Package stats fetches public repository counters for the header.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/resilience"
)

// Placeholder is shown whenever the counters are unavailable.
const Placeholder = "★ – ⑂ –"

const defaultBaseURL = "https://api.github.com"

// Stats holds a repository's star and fork counts.
type Stats struct {
	Stars int `json:"stargazers_count"`
	Forks int `json:"forks_count"`
}

func (s Stats) String() string {
	return fmt.Sprintf("★ %d ⑂ %d", s.Stars, s.Forks)
}

// Client queries the GitHub REST API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Executor   *resilience.Executor
}

// NewClient returns a Client with a short timeout.
func NewClient(exec *resilience.Executor) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Executor:   exec,
	}
}

// Fetch returns the counters for repo ("owner/name").
func (c *Client) Fetch(ctx context.Context, repo string) (Stats, error) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	if strings.Count(repo, "/") != 1 {
		return Stats{}, fmt.Errorf("stats: repository %q is not owner/name", repo)
	}
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	url := strings.TrimRight(base, "/") + "/repos/" + repo

	var out Stats
	call := func(ctx context.Context) error {
		s, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		out = s
		return nil
	}
	var err error
	if c.Executor != nil {
		err = c.Executor.Execute(ctx, "stats", call, nil)
	} else {
		err = call(ctx)
	}
	if err != nil {
		logger.Get().Warn("stats unavailable",
			zap.String("operation", "stats.fetch"),
			zap.String("url", url),
			zap.Error(err),
		)
		return Stats{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, url string) (Stats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Stats{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Stats{}, fmt.Errorf("github API error: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
	var s Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return s, nil
}

// Label renders s, or the placeholder when err is set.
func Label(s Stats, err error) string {
	if err != nil {
		return Placeholder
	}
	return s.String()
}
