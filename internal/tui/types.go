package tui

import (
	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/feed"
)

type stage int

const (
	stageCatalog stage = iota
	stageDisplay
	stageRange
	stageFilter
	stageHelp
)

const heroTagline = "Daily arXiv papers, summarised."

const (
	minCardWidth     = 34
	maxCardWidth     = 56
	gridCardLines    = 6
	listCardLines    = 3
	headerLines      = 5
	footerLines      = 3
	previewRuneLimit = 6000
	rangeSeparator   = ".."
)

type catalogResultMsg struct {
	dates []string
	err   error
}

type loadResultMsg struct {
	generation uint64
	selection  browse.Selection
	index      feed.Index
	loaded     []string
	failed     map[string]error
	err        error
}

type statsResultMsg struct {
	label string
}

type previewResultMsg struct {
	key  string
	text string
	err  error
}

type enhanceResultMsg struct {
	key    string
	fields feed.AIFields
	err    error
}

type previewState struct {
	Loading bool
	Text    string
	Err     string
}

type enhanceState struct {
	Loading bool
	Fields  feed.AIFields
	Err     string
}
