package arxiv

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/llm"
	"github.com/csheth/dailyfeed/internal/logger"
)

// Searcher lists entries for a query. *Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, more func(Entry) bool) ([]Entry, error)
}

// HarvestStats summarises one harvest.
type HarvestStats struct {
	Listed        int
	Kept          int
	Enhanced      int
	EnhanceFailed int
}

// Harvester turns one day's submissions into a feed batch.
type Harvester struct {
	search      Searcher
	llm         llm.Client
	language    string
	concurrency int
}

// HarvesterOptions configures a Harvester. A nil LLM leaves AI fields empty.
type HarvesterOptions struct {
	LLM         llm.Client
	Language    string
	Concurrency int
}

// NewHarvester builds a Harvester over search.
func NewHarvester(search Searcher, opts HarvesterOptions) *Harvester {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Harvester{
		search:      search,
		llm:         opts.LLM,
		language:    opts.Language,
		concurrency: concurrency,
	}
}

// Harvest lists the papers first published on date (UTC, YYYY-MM-DD) whose
// categories include one of categories together with a cross category. Each
// id is kept once. With an LLM configured every record is enhanced; a failed
// generation is logged and leaves that record without AI fields.
func (h *Harvester) Harvest(ctx context.Context, date string, categories []string) ([]feed.Paper, HarvestStats, error) {
	var stats HarvestStats
	if len(categories) == 0 {
		return nil, stats, fmt.Errorf("harvest %s: no categories", date)
	}
	entries, err := h.search.Search(ctx, Query(categories), func(last Entry) bool {
		// Results are newest first; once a page ends before date the rest is older.
		return last.Published.Format(feed.DateLayout) >= date
	})
	stats.Listed = len(entries)
	if err != nil {
		return nil, stats, fmt.Errorf("harvest %s: %w", date, err)
	}

	seen := make(map[string]bool, len(entries))
	var papers []feed.Paper
	for _, entry := range entries {
		if entry.Published.Format(feed.DateLayout) != date || seen[entry.ID] {
			continue
		}
		if !matchesPair(entry.Categories, categories) {
			continue
		}
		seen[entry.ID] = true
		papers = append(papers, toPaper(entry, date))
	}
	stats.Kept = len(papers)

	if h.llm != nil && len(papers) > 0 {
		enhanced, failed, err := h.enhance(ctx, papers)
		stats.Enhanced, stats.EnhanceFailed = enhanced, failed
		if err != nil {
			return nil, stats, fmt.Errorf("harvest %s: %w", date, err)
		}
	}

	logger.Get().Info("harvest complete",
		zap.String("date", date),
		zap.Int("listed", stats.Listed),
		zap.Int("kept", stats.Kept),
		zap.Int("enhanced", stats.Enhanced),
		zap.Int("enhanceFailed", stats.EnhanceFailed),
	)
	return papers, stats, nil
}

// enhance fills AI fields in place. Only cancellation aborts the batch.
func (h *Harvester) enhance(ctx context.Context, papers []feed.Paper) (int, int, error) {
	var (
		mu       sync.Mutex
		enhanced int
		failed   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i := range papers {
		g.Go(func() error {
			p := &papers[i]
			fields, err := h.llm.Enhance(gctx, p.Title, p.Details, h.language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed++
				logger.Get().Warn("enhance failed",
					zap.String("id", p.ID),
					zap.String("client", h.llm.Name()),
					zap.Error(err),
				)
				return nil
			}
			p.AI = fields
			if fields.TLDR != "" {
				p.Summary = fields.TLDR
			}
			enhanced++
			return nil
		})
	}
	err := g.Wait()
	return enhanced, failed, err
}

func matchesPair(have, configured []string) bool {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[c] = true
	}
	for _, category := range configured {
		if !set[category] {
			continue
		}
		for _, cross := range CrossCategories {
			if set[cross] {
				return true
			}
		}
	}
	return false
}

func toPaper(e Entry, date string) feed.Paper {
	return feed.Paper{
		ID:         e.ID,
		Title:      e.Title,
		URL:        e.AbsURL,
		Authors:    append([]string(nil), e.Authors...),
		Categories: append([]string(nil), e.Categories...),
		Summary:    e.Abstract,
		Details:    e.Abstract,
		Date:       date,
	}
}
