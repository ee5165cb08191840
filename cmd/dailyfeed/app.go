package main

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/config"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/llm"
	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/prefs"
	"github.com/csheth/dailyfeed/internal/preview"
	"github.com/csheth/dailyfeed/internal/resilience"
	"github.com/csheth/dailyfeed/internal/stats"
	"github.com/csheth/dailyfeed/internal/tui"
)

// app is the set of collaborators built from one configuration.
type app struct {
	cfg     config.Config
	exec    *resilience.Executor
	catalog *feed.Catalog
	loader  *feed.Loader
	prefs   *prefs.Store
}

func newApp(cfg config.Config) (*app, error) {
	exec := resilience.NewExecutor(resilience.DefaultConfig())
	src, err := feed.NewSource(cfg.DataURL, feed.SourceOptions{
		Client:   &http.Client{Timeout: cfg.FetchTimeout},
		Timeout:  cfg.FetchTimeout,
		Rate:     cfg.FetchRate,
		Executor: exec,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		exec:    exec,
		catalog: feed.NewCatalog(src, cfg.ManifestPath, cfg.Language),
		loader: feed.NewLoader(src, feed.LoaderOptions{
			DataDir:     cfg.DataDir,
			Language:    cfg.Language,
			Categories:  cfg.Categories,
			Concurrency: cfg.FetchConcurrency,
		}),
		prefs: prefs.NewStore(cfg.PrefsPath),
	}, nil
}

// controller builds a session seeded with the saved keywords and authors.
func (a *app) controller() *browse.Controller {
	return browse.New(a.cfg.Categories, a.prefs.Load(prefs.KeywordsKey), a.prefs.Load(prefs.AuthorsKey))
}

func (a *app) tuiConfig() tui.Config {
	log := logger.Get()
	cfg := tui.Config{
		Catalog:    a.catalog,
		Loader:     a.loader,
		Controller: a.controller(),
		Stats:      stats.NewClient(a.exec),
		StatsRepo:  a.cfg.StatsRepo,
		Language:   a.cfg.Language,
		JobTimeout: a.cfg.FetchTimeout,
		// PDFs are large and generations are slow; neither is bounded by
		// the fetch timeout.
		PreviewTimeout: preview.DefaultTimeout,
		EnhanceTimeout: a.cfg.LLMTimeout,
	}

	fetcher, err := preview.NewFetcher(preview.Options{
		Dir:      filepath.Join(a.cfg.CacheDir, "preview"),
		TTL:      preview.DefaultTTL,
		Executor: a.exec,
	})
	if err != nil {
		log.Warn("pdf preview disabled", zap.Error(err))
	} else {
		cfg.Preview = fetcher
	}

	client, err := llm.NewFromEnv(llm.Config{
		Model:    a.cfg.LLMModel,
		Endpoint: a.cfg.LLMEndpoint,
		Timeout:  a.cfg.LLMTimeout,
	})
	switch {
	case errors.Is(err, llm.ErrDisabled):
		log.Debug("ai summaries disabled: no model configured")
	case err != nil:
		log.Warn("ai summaries disabled", zap.Error(err))
	default:
		cfg.LLM = client
		log.Info("ai summaries enabled", zap.String("client", client.Name()))
	}
	return cfg
}

func (a *app) describe() string {
	return fmt.Sprintf("%s (%s)", a.cfg.DataURL, a.cfg.Language)
}
