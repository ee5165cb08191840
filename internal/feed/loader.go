package feed

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/csheth/dailyfeed/internal/logger"
)

// Loader fetches and parses per-date batches.
type Loader struct {
	src         Source
	dataDir     string
	language    string
	categories  []string
	concurrency int
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	DataDir     string
	Language    string
	Categories  []string
	Concurrency int
}

// NewLoader builds a Loader reading from src.
func NewLoader(src Source, opts LoaderOptions) *Loader {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Loader{
		src:         src,
		dataDir:     opts.DataDir,
		language:    opts.Language,
		categories:  append([]string(nil), opts.Categories...),
		concurrency: concurrency,
	}
}

// Categories returns the allow-list in display order.
func (l *Loader) Categories() []string {
	return append([]string(nil), l.categories...)
}

// LoadDate fetches and parses the batch for one date.
func (l *Loader) LoadDate(ctx context.Context, date string) (Index, error) {
	name := path.Join(l.dataDir, DataFile(date, l.language))
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", date, err)
	}
	defer rc.Close()

	idx, stats, err := ParseBatch(rc, date, l.categories)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("date loaded",
		zap.String("date", date),
		zap.Int("papers", idx.Len()),
		zap.Int("malformed", stats.Malformed),
		zap.Int("dropped", stats.Dropped),
	)
	return idx, nil
}

// RangeResult is the merged outcome of a range load.
type RangeResult struct {
	Index  Index
	Loaded []string
	Failed map[string]error
}

// LoadDateRange loads every catalog date within [start, end] and merges the
// batches in catalog order. Individual failures are recorded in Failed; the
// call fails only when no date is in range or every date failed.
func (l *Loader) LoadDateRange(ctx context.Context, catalog []string, start, end string) (RangeResult, error) {
	dates, err := DatesInRange(catalog, start, end)
	if err != nil {
		return RangeResult{}, err
	}
	if len(dates) == 0 {
		return RangeResult{}, fmt.Errorf("%s..%s: %w", start, end, ErrNoDataInRange)
	}

	batches := make([]Index, len(dates))
	errs := make([]error, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, date := range dates {
		g.Go(func() error {
			idx, err := l.LoadDate(gctx, date)
			batches[i], errs[i] = idx, err
			// Per-date failures do not cancel siblings.
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return RangeResult{}, err
	}

	result := RangeResult{Index: make(Index), Failed: make(map[string]error)}
	var firstErr error
	for i, date := range dates {
		if errs[i] != nil {
			result.Failed[date] = errs[i]
			if firstErr == nil {
				firstErr = errs[i]
			}
			logger.Get().Warn("range member failed", zap.String("date", date), zap.Error(errs[i]))
			continue
		}
		result.Index.Merge(batches[i])
		result.Loaded = append(result.Loaded, date)
	}
	if len(result.Loaded) == 0 {
		return result, fmt.Errorf("every date in %s..%s failed: %w", start, end, firstErr)
	}
	return result, nil
}
