package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories, cfg.Categories)
	assert.Equal(t, "Chinese", cfg.Language)
	assert.Equal(t, "assets/file-list.txt", cfg.ManifestPath)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 3*time.Minute, cfg.LLMTimeout)
	assert.Equal(t, "https://export.arxiv.org/api/query", cfg.ArxivAPI)
}

func TestReadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dailyfeed.yaml")
	content := "data_url: /srv/feed\nlanguage: English\ncategories:\n  - cs.AI\n  - cs.CL\nfetch_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	SetDefaults(v)
	used, err := ReadFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/feed", cfg.DataURL)
	assert.Equal(t, "English", cfg.Language)
	assert.Equal(t, []string{"cs.AI", "cs.CL"}, cfg.Categories)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
}

func TestReadFileMissingExplicitFails(t *testing.T) {
	v := viper.New()
	_, err := ReadFile(v, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestCategoriesFromCommaSeparatedValue(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set(KeyCategories, []string{"cs.AI, cs.LG", " cs.RO "})

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"cs.AI", "cs.LG", "cs.RO"}, cfg.Categories)
}

func TestValidate(t *testing.T) {
	base := Config{DataURL: "x", Language: "Chinese", Categories: []string{"cs.AI"}}
	require.NoError(t, base.Validate())

	cases := map[string]Config{
		"no categories": {DataURL: "x", Language: "Chinese"},
		"duplicate":     {DataURL: "x", Language: "Chinese", Categories: []string{"cs.AI", "cs.AI"}},
		"reserved":      {DataURL: "x", Language: "Chinese", Categories: []string{"all"}},
		"no data url":   {Language: "Chinese", Categories: []string{"cs.AI"}},
		"no language":   {DataURL: "x", Categories: []string{"cs.AI"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}
}
