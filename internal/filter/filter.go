// Package filter selects, matches and orders papers for display.
package filter

import (
	"strings"

	"github.com/csheth/dailyfeed/internal/feed"
)

// All selects every category in enumeration order.
const All = "all"

// State is the user's current filter selection.
type State struct {
	Category string
	Keywords []string
	Authors  []string
}

// Active reports whether any keyword or author is switched on.
func (s State) Active() bool {
	return len(s.Keywords) > 0 || len(s.Authors) > 0
}

// Entry is a paper annotated for one filter pass. Entries are rebuilt on
// every pass and never written back to the index.
type Entry struct {
	Paper    feed.Paper
	Matched  bool
	Reasons  []string
	Keywords []string
	Authors  []string
}

// ComputeView returns the papers for st.Category with matched papers moved
// ahead of the rest. Order within each group is preserved. Keywords and
// authors are normalised with NormalizeTerms first.
func ComputeView(idx feed.Index, order []string, st State) []Entry {
	st.Keywords = NormalizeTerms(st.Keywords)
	st.Authors = NormalizeTerms(st.Authors)
	base := selectBase(idx, order, st.Category)
	entries := make([]Entry, 0, len(base))
	if !st.Active() {
		for _, paper := range base {
			entries = append(entries, Entry{Paper: paper})
		}
		return entries
	}

	var unmatched []Entry
	for _, paper := range base {
		entry := match(paper, st)
		if entry.Matched {
			entries = append(entries, entry)
		} else {
			unmatched = append(unmatched, entry)
		}
	}
	return append(entries, unmatched...)
}

func selectBase(idx feed.Index, order []string, category string) []feed.Paper {
	if category != All {
		return idx[category]
	}
	var out []feed.Paper
	for _, cat := range order {
		out = append(out, idx[cat]...)
	}
	return out
}

func match(paper feed.Paper, st State) Entry {
	entry := Entry{Paper: paper}
	text := strings.ToLower(paper.Title + " " + paper.Summary)
	for _, keyword := range st.Keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			entry.Keywords = append(entry.Keywords, keyword)
		}
	}
	authors := strings.ToLower(paper.AuthorLine())
	for _, author := range st.Authors {
		if strings.Contains(authors, strings.ToLower(author)) {
			entry.Authors = append(entry.Authors, author)
		}
	}
	if len(entry.Keywords) > 0 {
		entry.Reasons = append(entry.Reasons, "keyword: "+strings.Join(entry.Keywords, ", "))
	}
	if len(entry.Authors) > 0 {
		entry.Reasons = append(entry.Reasons, "author: "+strings.Join(entry.Authors, ", "))
	}
	entry.Matched = len(entry.Reasons) > 0
	return entry
}

// MatchedCount counts the matched entries, which always lead the view.
func MatchedCount(entries []Entry) int {
	n := 0
	for _, entry := range entries {
		if !entry.Matched {
			break
		}
		n++
	}
	return n
}
