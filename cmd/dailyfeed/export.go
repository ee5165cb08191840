package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/export"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/filter"
	"github.com/csheth/dailyfeed/internal/prefs"
)

type exportOptions struct {
	date     string
	from     string
	to       string
	category string
	keywords []string
	authors  []string
	noSaved  bool
	format   string
}

func newExportCmd(c *cli) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered, match-ordered view as YAML or JSON",
		Long: `export loads one date (--date) or an inclusive range (--from/--to) and writes
the same view the browser shows: matched papers first with their match reasons.

Without --keyword or --author the saved preferences are used; pass --no-saved
to ignore them. With no date flags the most recent date is exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(c.cfg)
			if err != nil {
				return err
			}
			view, err := a.exportView(cmd.Context(), opts, func(format string, a ...any) {
				fmt.Fprintf(cmd.ErrOrStderr(), format, a...)
			})
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), opts.format, view)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.date, "date", "", "single date (YYYY-MM-DD)")
	f.StringVar(&opts.from, "from", "", "range start (YYYY-MM-DD)")
	f.StringVar(&opts.to, "to", "", "range end (YYYY-MM-DD, default: most recent)")
	f.StringVar(&opts.category, "category", filter.All, `category to export, or "all"`)
	f.StringArrayVar(&opts.keywords, "keyword", nil, "keyword to match (repeatable)")
	f.StringArrayVar(&opts.authors, "author", nil, "author to match (repeatable)")
	f.BoolVar(&opts.noSaved, "no-saved", false, "ignore saved keywords and authors")
	f.StringVar(&opts.format, "format", "yaml", "output format: yaml or json")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	cmd.MarkFlagsMutuallyExclusive("date", "to")
	return cmd
}

// exportView resolves the selection, loads it and computes the view through
// the same controller the browser uses.
func (a *app) exportView(ctx context.Context, opts *exportOptions, warnf func(string, ...any)) ([]filter.Entry, error) {
	for _, d := range []string{opts.date, opts.from, opts.to} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(feed.DateLayout, d); err != nil {
			return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}

	dates, err := a.catalog.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(dates) == 0 {
		return nil, errors.New("no dates have been published")
	}

	var (
		sel browse.Selection
		idx feed.Index
	)
	switch {
	case opts.from != "" || opts.to != "":
		from, to := opts.from, opts.to
		if to == "" {
			to = dates[0]
		}
		if from == "" {
			from = dates[len(dates)-1]
		}
		sel = browse.Range(from, to)
		res, err := a.loader.LoadDateRange(ctx, dates, from, to)
		if err != nil {
			return nil, err
		}
		failed := make([]string, 0, len(res.Failed))
		for d := range res.Failed {
			failed = append(failed, d)
		}
		sort.Strings(failed)
		for _, d := range failed {
			warnf("skipped %s: %v\n", d, res.Failed[d])
		}
		idx = res.Index
	default:
		date := opts.date
		if date == "" {
			date = dates[0]
		}
		sel = browse.Single(date)
		if idx, err = a.loader.LoadDate(ctx, date); err != nil {
			return nil, err
		}
	}

	keywords, authors := opts.keywords, opts.authors
	if len(keywords) == 0 && len(authors) == 0 && !opts.noSaved {
		keywords = a.prefs.Load(prefs.KeywordsKey)
		authors = a.prefs.Load(prefs.AuthorsKey)
	}
	ctl := browse.New(a.cfg.Categories, keywords, authors)
	ctl.CompleteLoad(ctl.BeginLoad(sel), idx, nil)
	if err := ctl.SetCategory(opts.category); err != nil {
		return nil, err
	}
	return ctl.Filtered(), nil
}
