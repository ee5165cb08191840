package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/llm"
	"github.com/csheth/dailyfeed/internal/stats"
)

func (m *model) discoverCmd() tea.Cmd {
	catalog := m.cfg.Catalog
	if catalog == nil {
		return nil
	}
	return m.jobs.Start(jobKindCatalog, func(ctx context.Context) (tea.Msg, error) {
		dates, err := catalog.Discover(ctx)
		return catalogResultMsg{dates: dates, err: err}, err
	})
}

// startLoad begins a new load generation for sel and returns the job command.
func (m *model) startLoad(sel browse.Selection) tea.Cmd {
	gen := m.ctl.BeginLoad(sel)
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Loading %s…", sel)
	loader := m.cfg.Loader
	if loader == nil {
		return nil
	}
	dates := append([]string(nil), m.dates...)
	return m.jobs.Start(jobKindLoad, func(ctx context.Context) (tea.Msg, error) {
		msg := loadResultMsg{generation: gen, selection: sel}
		if !sel.IsRange() {
			idx, err := loader.LoadDate(ctx, sel.Start)
			msg.index, msg.err = idx, err
			if err == nil {
				msg.loaded = []string{sel.Start}
			}
			return msg, err
		}
		res, err := loader.LoadDateRange(ctx, dates, sel.Start, sel.End)
		msg.index, msg.loaded, msg.failed, msg.err = res.Index, res.Loaded, res.Failed, err
		return msg, err
	})
}

func (m *model) statsCmd() tea.Cmd {
	client := m.cfg.Stats
	repo := strings.TrimSpace(m.cfg.StatsRepo)
	if client == nil || repo == "" {
		return nil
	}
	return m.jobs.Start(jobKindStats, func(ctx context.Context) (tea.Msg, error) {
		s, err := client.Fetch(ctx, repo)
		return statsResultMsg{label: stats.Label(s, err)}, err
	})
}

func (m *model) previewCmd(paper feed.Paper) tea.Cmd {
	if m.cfg.Preview == nil {
		m.infoMessage = "PDF preview is not configured."
		return nil
	}
	key := paperKey(paper)
	if state, ok := m.previews[key]; ok && (state.Loading || state.Text != "") {
		return nil
	}
	m.previews[key] = previewState{Loading: true}
	fetcher := m.cfg.Preview
	return m.jobs.Start(jobKindPreview, func(ctx context.Context) (tea.Msg, error) {
		text, err := fetcher.Text(ctx, paper, previewRuneLimit)
		return previewResultMsg{key: key, text: text, err: err}, err
	})
}

func (m *model) enhanceCmd(paper feed.Paper) tea.Cmd {
	if m.cfg.LLM == nil {
		m.infoMessage = "AI summaries need an LLM model (set llm_model)."
		return nil
	}
	key := paperKey(paper)
	if state, ok := m.enhanced[key]; ok && state.Loading {
		return nil
	}
	m.enhanced[key] = enhanceState{Loading: true}
	client := m.cfg.LLM
	language := m.cfg.Language
	title, abstract := paper.Title, paper.Details
	if strings.TrimSpace(abstract) == "" {
		abstract = paper.Summary
	}
	m.infoMessage = fmt.Sprintf("Asking %s…", client.Name())
	return m.jobs.Start(jobKindEnhance, enhanceJob(client, key, title, abstract, language))
}

func enhanceJob(client llm.Client, key, title, abstract, language string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		fields, err := client.Enhance(ctx, title, abstract, language)
		return enhanceResultMsg{key: key, fields: fields, err: err}, err
	}
}

func (m *model) copyLink(link, label string) {
	if strings.TrimSpace(link) == "" {
		m.errorMessage = "This paper has no link."
		return
	}
	if err := m.clipboard(link); err != nil {
		m.errorMessage = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Copied %s link: %s", label, link)
}

func paperKey(p feed.Paper) string {
	if p.ID != "" {
		return p.Date + "/" + p.ID
	}
	return p.Date + "/" + p.Title
}

// describeLoadError turns a load failure into an inline message with a retry hint.
func describeLoadError(err error) string {
	switch {
	case errors.Is(err, feed.ErrNoDataInRange):
		return "No data in the selected range. Press D to pick another range."
	case errors.Is(err, feed.ErrNotFound):
		return "No data published for that date. Press [ or ] to pick another."
	case errors.Is(err, context.DeadlineExceeded):
		return "Loading timed out. Press R to retry."
	default:
		return fmt.Sprintf("Loading failed: %v. Press R to retry.", err)
	}
}

// parseRange reads "YYYY-MM-DD..YYYY-MM-DD" or a single date.
func parseRange(input string) (browse.Selection, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return browse.Selection{}, errors.New("enter a date or a range like 2024-01-01..2024-01-07")
	}
	start, end, found := strings.Cut(input, rangeSeparator)
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if !found {
		end = start
	}
	for _, d := range []string{start, end} {
		if _, err := time.Parse(feed.DateLayout, d); err != nil {
			return browse.Selection{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}
	if start == end {
		return browse.Single(start), nil
	}
	return browse.Range(start, end), nil
}

// newestIndex returns the catalog position of the most recent date in sel.
func newestIndex(dates []string, sel browse.Selection) int {
	best := -1
	for i, d := range dates {
		if d == sel.Start || d == sel.End {
			if best == -1 || i < best {
				best = i
			}
		}
	}
	return best
}
