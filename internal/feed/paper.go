// Package feed discovers, fetches and parses the per-date paper batches.
package feed

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound reports a missing manifest or data file.
	ErrNotFound = errors.New("feed: not found")
	// ErrNoDataInRange reports a date range with no catalog dates inside it.
	ErrNoDataInRange = errors.New("feed: no data in range")
)

// AIFields holds the structured summary produced by the enhancement pipeline.
type AIFields struct {
	TLDR       string `json:"tldr,omitempty" yaml:"tldr,omitempty"`
	Motivation string `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Method     string `json:"method,omitempty" yaml:"method,omitempty"`
	Result     string `json:"result,omitempty" yaml:"result,omitempty"`
	Conclusion string `json:"conclusion,omitempty" yaml:"conclusion,omitempty"`
}

// Empty reports whether no field carries text.
func (a AIFields) Empty() bool {
	return strings.TrimSpace(a.TLDR+a.Motivation+a.Method+a.Result+a.Conclusion) == ""
}

// Paper is one record of a daily batch.
type Paper struct {
	ID         string   `json:"id" yaml:"id"`
	Title      string   `json:"title" yaml:"title"`
	URL        string   `json:"url" yaml:"url"`
	Authors    []string `json:"authors" yaml:"authors"`
	Categories []string `json:"categories" yaml:"categories"`
	Summary    string   `json:"summary" yaml:"summary"`
	Details    string   `json:"details,omitempty" yaml:"details,omitempty"`
	Date       string   `json:"date" yaml:"date"`
	AI         AIFields `json:"ai,omitempty" yaml:"ai,omitempty"`
}

// PrimaryCategory is the first category, or "" when there are none.
func (p Paper) PrimaryCategory() string {
	if len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[0]
}

// AuthorLine joins the authors for display and author matching.
func (p Paper) AuthorLine() string {
	return strings.Join(p.Authors, ", ")
}

// Index groups papers by primary category.
type Index map[string][]Paper

// Merge appends other's records per category. Duplicates are kept.
func (idx Index) Merge(other Index) {
	for category, papers := range other {
		idx[category] = append(idx[category], papers...)
	}
}

// Len counts every record in the index.
func (idx Index) Len() int {
	n := 0
	for _, papers := range idx {
		n += len(papers)
	}
	return n
}
