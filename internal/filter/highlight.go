package filter

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Segment is a run of text that is either highlighted or not.
type Segment struct {
	Text        string
	Highlighted bool
}

// Highlight splits text into segments, marking every case-insensitive
// occurrence of any term. Terms are applied longest first and a shorter term
// never claims bytes a longer one already covers, even when it starts
// earlier. Terms are matched literally.
func Highlight(text string, terms []string) []Segment {
	if text == "" {
		return nil
	}
	terms = NormalizeTerms(terms)
	if len(terms) == 0 {
		return []Segment{{Text: text}}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return utf8.RuneCountInString(terms[i]) > utf8.RuneCountInString(terms[j])
	})

	marked := make([]bool, len(text))
	for _, term := range terms {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			if overlaps(marked[loc[0]:loc[1]]) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				marked[i] = true
			}
		}
	}

	var segments []Segment
	start := 0
	for i := 1; i <= len(text); i++ {
		if i < len(text) && marked[i] == marked[start] {
			continue
		}
		segments = append(segments, Segment{Text: text[start:i], Highlighted: marked[start]})
		start = i
	}
	return segments
}

func overlaps(span []bool) bool {
	for _, m := range span {
		if m {
			return true
		}
	}
	return false
}

// NormalizeTerms trims terms, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func NormalizeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, term)
	}
	return out
}
