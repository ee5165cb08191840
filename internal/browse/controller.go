// Package browse owns the browsing session state: which dates are loaded,
// the filter selection, the view mode and the detail overlay.
package browse

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/filter"
	"github.com/csheth/dailyfeed/internal/logger"
)

var (
	// ErrEmptyList is returned when an action needs at least one paper.
	ErrEmptyList = errors.New("browse: no papers in the current view")
	// ErrUnknownCategory is returned for a category outside the enumeration.
	ErrUnknownCategory = errors.New("browse: unknown category")
)

// Phase is the data-loading state.
type Phase int

const (
	NoData Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "no data"
	}
}

// ViewMode selects card layout.
type ViewMode int

const (
	Grid ViewMode = iota
	List
)

func (v ViewMode) String() string {
	if v == List {
		return "list"
	}
	return "grid"
}

// Selection is a single date or an inclusive date range.
type Selection struct {
	Start string
	End   string
}

// Single selects one date.
func Single(date string) Selection { return Selection{Start: date, End: date} }

// Range selects [start, end].
func Range(start, end string) Selection { return Selection{Start: start, End: end} }

// IsRange reports whether more than one date is selected.
func (s Selection) IsRange() bool { return s.End != "" && s.End != s.Start }

func (s Selection) String() string {
	switch {
	case s.Start == "":
		return ""
	case s.IsRange():
		return s.Start + ".." + s.End
	default:
		return s.Start
	}
}

// Status summarises the controller for headers and messages.
type Status struct {
	Phase      Phase
	Selection  Selection
	Err        error
	Generation uint64
	Total      int
	Shown      int
	Matched    int
}

// Controller is the single owner of browsing state. It is not safe for
// concurrent use; the UI event loop drives it.
type Controller struct {
	categories []string
	keywords   []string
	authors    []string
	activeKw   map[string]bool
	activeAu   map[string]bool

	category string
	view     ViewMode

	index     feed.Index
	filtered  []filter.Entry
	current   int
	modalOpen bool

	gen       uint64
	phase     Phase
	selection Selection
	err       error
}

// New builds a Controller. Every user keyword and author starts active.
func New(categories, userKeywords, userAuthors []string) *Controller {
	c := &Controller{
		categories: append([]string(nil), categories...),
		keywords:   append([]string(nil), userKeywords...),
		authors:    append([]string(nil), userAuthors...),
		activeKw:   make(map[string]bool, len(userKeywords)),
		activeAu:   make(map[string]bool, len(userAuthors)),
		category:   filter.All,
		index:      feed.Index{},
	}
	for _, k := range c.keywords {
		c.activeKw[k] = true
	}
	for _, a := range c.authors {
		c.activeAu[a] = true
	}
	return c
}

// BeginLoad records a new pending selection and returns its generation.
func (c *Controller) BeginLoad(sel Selection) uint64 {
	c.gen++
	c.phase = Loading
	c.selection = sel
	c.err = nil
	return c.gen
}

// CompleteLoad applies a finished load. Results from an older generation are
// discarded and false is returned. The category selection survives a reload;
// the overlay closes and the cursor returns to the first paper.
func (c *Controller) CompleteLoad(gen uint64, idx feed.Index, err error) bool {
	if gen != c.gen {
		logger.Get().Debug("stale load discarded", zap.Uint64("generation", gen), zap.Uint64("current", c.gen))
		return false
	}
	c.modalOpen = false
	c.current = 0
	if err != nil {
		c.phase = Failed
		c.err = err
		c.index = feed.Index{}
		c.refresh()
		return true
	}
	if idx == nil {
		idx = feed.Index{}
	}
	c.phase = Loaded
	c.index = idx
	c.refresh()
	return true
}

// Generation returns the most recent load generation.
func (c *Controller) Generation() uint64 { return c.gen }

// Selection returns the most recently requested selection.
func (c *Controller) Selection() Selection { return c.selection }

// Categories returns "all" followed by the enumeration.
func (c *Controller) Categories() []string {
	return append([]string{filter.All}, c.categories...)
}

// Category returns the current category selection.
func (c *Controller) Category() string { return c.category }

// SetCategory switches to category, which must be "all" or enumerated.
func (c *Controller) SetCategory(category string) error {
	if category != filter.All && !contains(c.categories, category) {
		return fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}
	c.category = category
	c.current = 0
	c.refresh()
	return nil
}

// CycleCategory moves delta steps through "all" and the enumeration.
func (c *Controller) CycleCategory(delta int) string {
	options := c.Categories()
	pos := 0
	for i, option := range options {
		if option == c.category {
			pos = i
			break
		}
	}
	next := ((pos+delta)%len(options) + len(options)) % len(options)
	_ = c.SetCategory(options[next])
	return c.category
}

// CategoryCount returns how many loaded papers fall under category.
func (c *Controller) CategoryCount(category string) int {
	if category == filter.All {
		return c.index.Len()
	}
	return len(c.index[category])
}

// UserKeywords returns the saved keywords in order.
func (c *Controller) UserKeywords() []string { return append([]string(nil), c.keywords...) }

// UserAuthors returns the saved authors in order.
func (c *Controller) UserAuthors() []string { return append([]string(nil), c.authors...) }

// KeywordActive reports whether keyword currently filters.
func (c *Controller) KeywordActive(keyword string) bool { return c.activeKw[keyword] }

// AuthorActive reports whether author currently filters.
func (c *Controller) AuthorActive(author string) bool { return c.activeAu[author] }

// ToggleKeyword flips a saved keyword and returns its new state. Unknown
// keywords are ignored.
func (c *Controller) ToggleKeyword(keyword string) bool {
	if !contains(c.keywords, keyword) {
		return false
	}
	c.activeKw[keyword] = !c.activeKw[keyword]
	c.current = 0
	c.refresh()
	return c.activeKw[keyword]
}

// ToggleAuthor flips a saved author and returns its new state.
func (c *Controller) ToggleAuthor(author string) bool {
	if !contains(c.authors, author) {
		return false
	}
	c.activeAu[author] = !c.activeAu[author]
	c.current = 0
	c.refresh()
	return c.activeAu[author]
}

// FilterState returns the filter selection with active sets in saved order.
func (c *Controller) FilterState() filter.State {
	st := filter.State{Category: c.category}
	for _, k := range c.keywords {
		if c.activeKw[k] {
			st.Keywords = append(st.Keywords, k)
		}
	}
	for _, a := range c.authors {
		if c.activeAu[a] {
			st.Authors = append(st.Authors, a)
		}
	}
	return st
}

// View returns the card layout.
func (c *Controller) View() ViewMode { return c.view }

// ToggleView flips between grid and list.
func (c *Controller) ToggleView() ViewMode {
	if c.view == Grid {
		c.view = List
	} else {
		c.view = Grid
	}
	return c.view
}

// Filtered returns the current view. Callers must not modify it.
func (c *Controller) Filtered() []filter.Entry { return c.filtered }

// Index returns the cursor position.
func (c *Controller) Index() int { return c.current }

// Move shifts the cursor by delta, clamped to the list.
func (c *Controller) Move(delta int) int {
	n := len(c.filtered)
	if n == 0 {
		c.current = 0
		return 0
	}
	c.current += delta
	if c.current < 0 {
		c.current = 0
	}
	if c.current >= n {
		c.current = n - 1
	}
	return c.current
}

// Open shows paper i in the detail overlay.
func (c *Controller) Open(i int) error {
	n := len(c.filtered)
	if n == 0 {
		return ErrEmptyList
	}
	if i < 0 || i >= n {
		return fmt.Errorf("browse: index %d outside 0..%d", i, n-1)
	}
	c.current = i
	c.modalOpen = true
	return nil
}

// Close hides the detail overlay.
func (c *Controller) Close() { c.modalOpen = false }

// ModalOpen reports whether the detail overlay is showing.
func (c *Controller) ModalOpen() bool { return c.modalOpen }

// Next advances the overlay, wrapping from the last paper to the first.
func (c *Controller) Next() int {
	if n := len(c.filtered); n > 0 {
		c.current = (c.current + 1) % n
	}
	return c.current
}

// Prev steps back, wrapping from the first paper to the last.
func (c *Controller) Prev() int {
	if n := len(c.filtered); n > 0 {
		c.current = (c.current - 1 + n) % n
	}
	return c.current
}

// Random opens a uniformly chosen paper.
func (c *Controller) Random(rng *rand.Rand) (int, error) {
	n := len(c.filtered)
	if n == 0 {
		return 0, ErrEmptyList
	}
	var i int
	if rng != nil {
		i = rng.IntN(n)
	} else {
		i = rand.IntN(n)
	}
	return i, c.Open(i)
}

// Current returns the paper under the cursor.
func (c *Controller) Current() (filter.Entry, bool) {
	if len(c.filtered) == 0 {
		return filter.Entry{}, false
	}
	return c.filtered[c.current], true
}

// Status reports the load phase and view counts.
func (c *Controller) Status() Status {
	return Status{
		Phase:      c.phase,
		Selection:  c.selection,
		Err:        c.err,
		Generation: c.gen,
		Total:      c.index.Len(),
		Shown:      len(c.filtered),
		Matched:    filter.MatchedCount(c.filtered),
	}
}

func (c *Controller) refresh() {
	c.filtered = filter.ComputeView(c.index, c.categories, c.FilterState())
	n := len(c.filtered)
	if n == 0 {
		c.current = 0
		c.modalOpen = false
		return
	}
	if c.current >= n {
		c.current = n - 1
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
