package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDecodesCounters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/feed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stargazers_count": 1234, "forks_count": 56, "name": "feed"}`))
	}))
	t.Cleanup(server.Close)

	client := &Client{BaseURL: server.URL, HTTPClient: server.Client()}
	s, err := client.Fetch(context.Background(), "owner/feed")
	require.NoError(t, err)
	assert.Equal(t, Stats{Stars: 1234, Forks: 56}, s)
	assert.Equal(t, "★ 1234 ⑂ 56", s.String())
	assert.Equal(t, "★ 1234 ⑂ 56", Label(s, nil))
}

func TestFetchFailureDegradesToPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"API rate limit exceeded"}`, http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	client := &Client{BaseURL: server.URL, HTTPClient: server.Client()}
	s, err := client.Fetch(context.Background(), "owner/feed")
	require.Error(t, err)
	assert.Equal(t, Placeholder, Label(s, err))
}

func TestFetchRejectsMalformedRepo(t *testing.T) {
	client := NewClient(nil)
	for _, repo := range []string{"", "single", "a/b/c"} {
		_, err := client.Fetch(context.Background(), repo)
		assert.Error(t, err, repo)
	}
	assert.Equal(t, Placeholder, Label(Stats{Stars: 1}, errors.New("x")))
}
