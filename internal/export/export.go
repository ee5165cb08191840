// Package export writes a computed view for scripts and pipes.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/csheth/dailyfeed/internal/filter"
)

// Record is one exported paper.
type Record struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty"`
	Date       string   `json:"date" yaml:"date"`
	Title      string   `json:"title" yaml:"title"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	Authors    []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Categories []string `json:"categories" yaml:"categories"`
	Summary    string   `json:"summary" yaml:"summary"`
	Motivation string   `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Method     string   `json:"method,omitempty" yaml:"method,omitempty"`
	Result     string   `json:"result,omitempty" yaml:"result,omitempty"`
	Conclusion string   `json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
	Matched    bool     `json:"matched" yaml:"matched"`
	Reasons    []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Records flattens view into export records, keeping its order.
func Records(view []filter.Entry) []Record {
	out := make([]Record, 0, len(view))
	for _, entry := range view {
		p := entry.Paper
		out = append(out, Record{
			ID:         p.ID,
			Date:       p.Date,
			Title:      p.Title,
			URL:        p.URL,
			Authors:    p.Authors,
			Categories: p.Categories,
			Summary:    p.Summary,
			Motivation: p.AI.Motivation,
			Method:     p.AI.Method,
			Result:     p.AI.Result,
			Conclusion: p.AI.Conclusion,
			Matched:    entry.Matched,
			Reasons:    entry.Reasons,
		})
	}
	return out
}

// Write encodes view to w as "yaml" or "json".
func Write(w io.Writer, format string, view []filter.Entry) error {
	records := Records(view)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
