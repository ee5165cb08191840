package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/dailyfeed/internal/export"
)

const arxivPage = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
<entry>
  <id>http://arxiv.org/abs/2401.05555v1</id>
  <published>2024-01-02T18:00:00Z</published>
  <title>Legged Robots Learn
    to Climb</title>
  <summary>We teach a quadruped to climb stairs.</summary>
  <author><name>Lin Park</name></author>
  <arxiv:primary_category term="cs.RO"/>
  <category term="cs.RO"/>
  <category term="cs.LG"/>
</entry>
<entry>
  <id>http://arxiv.org/abs/2401.04444v1</id>
  <published>2024-01-01T18:00:00Z</published>
  <title>Yesterday's Paper</title>
  <summary>Older.</summary>
  <author><name>Sam Reed</name></author>
  <arxiv:primary_category term="cs.CV"/>
  <category term="cs.CV"/>
  <category term="cs.AI"/>
</entry>
</feed>
`

func arxivServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, arxivPage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchWritesBrowsableFeed(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	srv := arxivServer(t)
	out := t.TempDir()

	stdout, _, err := run(t, cfg, "--arxiv-api", srv.URL, "fetch",
		"--date", "2024-01-02", "--out", out, "--interval", "0")
	require.NoError(t, err)
	target := filepath.Join(out, "data", "2024-01-02_AI_enhanced_English.jsonl")
	assert.Equal(t, "wrote 1 papers to "+target+"\n", stdout)

	manifest, err := os.ReadFile(filepath.Join(out, "assets", "file-list.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02_AI_enhanced_English.jsonl\n", string(manifest))

	dates, _, err := run(t, cfg, "--data-url", out, "dates")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02\n", dates)

	exported, _, err := run(t, cfg, "--data-url", out, "export", "--date", "2024-01-02", "--format", "json", "--no-saved")
	require.NoError(t, err)
	var records []export.Record
	require.NoError(t, json.Unmarshal([]byte(exported), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Legged Robots Learn to Climb", records[0].Title)
	assert.Equal(t, "We teach a quadruped to climb stairs.", records[0].Summary)
}

func TestFetchTwiceKeepsOneManifestLine(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	srv := arxivServer(t)
	out := t.TempDir()

	for i := 0; i < 2; i++ {
		_, _, err := run(t, cfg, "--arxiv-api", srv.URL, "fetch",
			"--date", "2024-01-02", "--out", out, "--interval", "0")
		require.NoError(t, err)
	}
	manifest, err := os.ReadFile(filepath.Join(out, "assets", "file-list.txt"))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02_AI_enhanced_English.jsonl\n", string(manifest))
}

func TestFetchDefaultsToLocalDataURL(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	srv := arxivServer(t)
	out := t.TempDir()

	_, _, err := run(t, cfg, "--arxiv-api", srv.URL, "--data-url", "file://"+out, "fetch",
		"--date", "2024-01-02", "--interval", "0")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "data", "2024-01-02_AI_enhanced_English.jsonl"))
}

func TestFetchErrors(t *testing.T) {
	cfg, _ := writeTestConfig(t)
	t.Setenv("OLLAMA_MODEL", "")

	_, _, err := run(t, cfg, "fetch", "--date", "2024/01/02", "--out", t.TempDir())
	assert.ErrorContains(t, err, "invalid --date")

	_, _, err = run(t, cfg, "--data-url", "https://example.com/feed", "fetch", "--date", "2024-01-02")
	assert.ErrorContains(t, err, "pass --out")

	_, _, err = run(t, cfg, "fetch", "--date", "2024-01-02", "--out", t.TempDir(), "--enhance")
	assert.ErrorContains(t, err, "--enhance needs a model")
}
