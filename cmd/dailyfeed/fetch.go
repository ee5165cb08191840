package main

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/arxiv"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/llm"
	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/resilience"
)

type fetchOptions struct {
	date     string
	out      string
	enhance  bool
	interval time.Duration
}

func newFetchCmd(c *cli) *cobra.Command {
	opts := fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Harvest one day of arXiv submissions into a local feed",
		Long: `fetch lists the papers first published on --date in the configured
categories (each paired with cs.LG or cs.AI), writes them as
<data_dir>/<date>_AI_enhanced_<language>.jsonl below --out and adds the file
to the manifest, so the browser can open the directory as its data_url.

With --enhance every record is summarised by the configured Ollama model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.date, "date", "", "publication date (YYYY-MM-DD, default yesterday UTC)")
	flags.StringVar(&opts.out, "out", "", "feed directory to write (default: data_url when it is local)")
	flags.BoolVar(&opts.enhance, "enhance", false, "add AI summaries through the configured model")
	flags.DurationVar(&opts.interval, "interval", arxiv.DefaultInterval, "minimum gap between arXiv API calls")
	return cmd
}

func (c *cli) runFetch(cmd *cobra.Command, opts fetchOptions) error {
	date := opts.date
	if date == "" {
		date = time.Now().UTC().AddDate(0, 0, -1).Format(feed.DateLayout)
	}
	if _, err := time.Parse(feed.DateLayout, date); err != nil {
		return fmt.Errorf("invalid --date %q: %w", date, err)
	}
	out, err := fetchDir(opts.out, c.cfg.DataURL)
	if err != nil {
		return err
	}

	var model llm.Client
	if opts.enhance {
		model, err = llm.NewFromEnv(llm.Config{
			Model:    c.cfg.LLMModel,
			Endpoint: c.cfg.LLMEndpoint,
			Timeout:  c.cfg.LLMTimeout,
		})
		if errors.Is(err, llm.ErrDisabled) {
			return errors.New("--enhance needs a model: set --llm-model or OLLAMA_MODEL")
		}
		if err != nil {
			return err
		}
	}

	interval := opts.interval
	if interval <= 0 {
		interval = -1
	}
	client, err := arxiv.NewClient(arxiv.Options{
		Endpoint: c.cfg.ArxivAPI,
		Executor: resilience.NewExecutor(resilience.DefaultConfig()),
		Interval: interval,
	})
	if err != nil {
		return err
	}
	harvester := arxiv.NewHarvester(client, arxiv.HarvesterOptions{
		LLM:         model,
		Language:    c.cfg.Language,
		Concurrency: c.cfg.FetchConcurrency,
	})

	papers, stats, err := harvester.Harvest(cmd.Context(), date, c.cfg.Categories)
	if err != nil {
		return err
	}

	name := feed.DataFile(date, c.cfg.Language)
	target := filepath.Join(out, filepath.FromSlash(c.cfg.DataDir), name)
	if err := feed.WriteBatchFile(target, papers); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	manifest := filepath.Join(out, filepath.FromSlash(c.cfg.ManifestPath))
	added, err := feed.AddToManifest(manifest, name)
	if err != nil {
		return err
	}
	logger.Get().Info("feed written",
		zap.String("path", target),
		zap.Bool("manifestUpdated", added),
	)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "wrote %d papers to %s\n", stats.Kept, target)
	if opts.enhance {
		fmt.Fprintf(w, "enhanced %d, failed %d\n", stats.Enhanced, stats.EnhanceFailed)
	}
	return nil
}

// fetchDir picks where fetch writes. Remote feeds need an explicit --out.
func fetchDir(out, dataURL string) (string, error) {
	if out != "" {
		return out, nil
	}
	switch {
	case strings.HasPrefix(dataURL, "http://"), strings.HasPrefix(dataURL, "https://"):
		return "", fmt.Errorf("data_url %s is remote: pass --out to choose a local directory", dataURL)
	case strings.HasPrefix(dataURL, "file://"):
		u, err := url.Parse(dataURL)
		if err != nil {
			return "", fmt.Errorf("parse data_url %q: %w", dataURL, err)
		}
		return u.Path, nil
	default:
		return dataURL, nil
	}
}
