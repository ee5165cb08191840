// Package config resolves runtime settings from flags, a YAML file and
// DAILYFEED_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "DAILYFEED"

	KeyDataURL          = "data_url"
	KeyManifestPath     = "manifest_path"
	KeyDataDir          = "data_dir"
	KeyLanguage         = "language"
	KeyCategories       = "categories"
	KeyPrefsPath        = "prefs_path"
	KeyStatsRepo        = "stats_repo"
	KeyFetchTimeout     = "fetch_timeout"
	KeyFetchRate        = "fetch_rate"
	KeyFetchConcurrency = "fetch_concurrency"
	KeyLogFile          = "log_file"
	KeyLogLevel         = "log_level"
	KeyLLMModel         = "llm_model"
	KeyLLMEndpoint      = "llm_endpoint"
	KeyLLMTimeout       = "llm_timeout"
	KeyArxivAPI         = "arxiv_api"
	KeyCacheDir         = "cache_dir"
)

// DefaultCategories is the allow-list used when no configuration supplies one.
var DefaultCategories = []string{"cs.CV", "cs.CL", "cs.AI", "cs.LG", "cs.RO"}

// Config carries every setting the browser and the CLI subcommands need.
type Config struct {
	DataURL          string
	ManifestPath     string
	DataDir          string
	Language         string
	Categories       []string
	PrefsPath        string
	StatsRepo        string
	FetchTimeout     time.Duration
	FetchRate        float64
	FetchConcurrency int
	LogFile          string
	LogLevel         string
	LLMModel         string
	LLMEndpoint      string
	LLMTimeout       time.Duration
	ArxivAPI         string
	CacheDir         string
}

// SetDefaults registers the baseline values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDataURL, "https://dw-dengwei.github.io/daily-arXiv-ai-enhanced")
	v.SetDefault(KeyManifestPath, "assets/file-list.txt")
	v.SetDefault(KeyDataDir, "data")
	v.SetDefault(KeyLanguage, "Chinese")
	v.SetDefault(KeyCategories, DefaultCategories)
	v.SetDefault(KeyPrefsPath, filepath.Join(userDir(os.UserConfigDir), "dailyfeed", "prefs.json"))
	v.SetDefault(KeyStatsRepo, "dw-dengwei/daily-arXiv-ai-enhanced")
	v.SetDefault(KeyFetchTimeout, 30*time.Second)
	v.SetDefault(KeyFetchRate, 5.0)
	v.SetDefault(KeyFetchConcurrency, 4)
	v.SetDefault(KeyLogFile, filepath.Join(userDir(os.UserCacheDir), "dailyfeed", "dailyfeed.log"))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLLMModel, "")
	v.SetDefault(KeyLLMEndpoint, "")
	v.SetDefault(KeyLLMTimeout, 3*time.Minute)
	v.SetDefault(KeyArxivAPI, "https://export.arxiv.org/api/query")
	v.SetDefault(KeyCacheDir, filepath.Join(userDir(os.UserCacheDir), "dailyfeed"))
}

// ReadFile points v at an explicit config file, or searches the working
// directory and ~/.config/dailyfeed. A missing file is not an error.
func ReadFile(v *viper.Viper, explicit string) (string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("dailyfeed")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dailyfeed"))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && explicit == "" {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load snapshots v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DataURL:          strings.TrimSpace(v.GetString(KeyDataURL)),
		ManifestPath:     strings.TrimSpace(v.GetString(KeyManifestPath)),
		DataDir:          strings.TrimSpace(v.GetString(KeyDataDir)),
		Language:         strings.TrimSpace(v.GetString(KeyLanguage)),
		Categories:       normalizeList(v.GetStringSlice(KeyCategories)),
		PrefsPath:        v.GetString(KeyPrefsPath),
		StatsRepo:        strings.TrimSpace(v.GetString(KeyStatsRepo)),
		FetchTimeout:     v.GetDuration(KeyFetchTimeout),
		FetchRate:        v.GetFloat64(KeyFetchRate),
		FetchConcurrency: v.GetInt(KeyFetchConcurrency),
		LogFile:          v.GetString(KeyLogFile),
		LogLevel:         v.GetString(KeyLogLevel),
		LLMModel:         strings.TrimSpace(v.GetString(KeyLLMModel)),
		LLMEndpoint:      strings.TrimSpace(v.GetString(KeyLLMEndpoint)),
		LLMTimeout:       v.GetDuration(KeyLLMTimeout),
		ArxivAPI:         strings.TrimSpace(v.GetString(KeyArxivAPI)),
		CacheDir:         v.GetString(KeyCacheDir),
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 3 * time.Minute
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the loader relies on.
func (c Config) Validate() error {
	if c.DataURL == "" {
		return errors.New("data_url must be set")
	}
	if c.Language == "" {
		return errors.New("language must be set")
	}
	if len(c.Categories) == 0 {
		return errors.New("categories must list at least one category")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, category := range c.Categories {
		if strings.EqualFold(category, "all") {
			return fmt.Errorf("category %q is reserved", category)
		}
		if seen[category] {
			return fmt.Errorf("duplicate category %q", category)
		}
		seen[category] = true
	}
	return nil
}

// normalizeList accepts both YAML lists and comma-separated env values.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func userDir(lookup func() (string, error)) string {
	dir, err := lookup()
	if err != nil || dir == "" {
		return os.TempDir()
	}
	return dir
}
