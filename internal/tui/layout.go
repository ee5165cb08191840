package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/filter"
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	columns      int
	cardWidth    int
	bodyHeight   int
	modalWidth   int
	modalHeight  int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(100, 30)
	return l
}

// Update recomputes the grid geometry for a terminal of width x height.
func (l *pageLayout) Update(width, height int) {
	if width < minCardWidth {
		width = minCardWidth
	}
	if height < headerLines+footerLines+gridCardLines {
		height = headerLines + footerLines + gridCardLines
	}
	l.windowWidth = width
	l.windowHeight = height

	l.columns = width / minCardWidth
	if l.columns < 1 {
		l.columns = 1
	}
	l.cardWidth = width / l.columns
	if l.cardWidth > maxCardWidth {
		l.cardWidth = maxCardWidth
	}
	l.bodyHeight = height - headerLines - footerLines

	// The modal frame takes two border columns and two padding columns.
	l.modalWidth = width - 4
	l.modalHeight = l.bodyHeight - 2
	if l.modalHeight < 3 {
		l.modalHeight = 3
	}
}

// gridColumns returns how many cards share a row in mode.
func (l pageLayout) gridColumns(mode browse.ViewMode) int {
	if mode == browse.List {
		return 1
	}
	return l.columns
}

// rowsVisible returns how many card rows fit in the body.
func (l pageLayout) rowsVisible(mode browse.ViewMode) int {
	lines := gridCardLines
	if mode == browse.List {
		lines = listCardLines
	}
	rows := l.bodyHeight / (lines + 2)
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (l pageLayout) cardWidthFor(mode browse.ViewMode) int {
	if mode == browse.List {
		return l.windowWidth
	}
	return l.cardWidth
}

func (m *model) columns() int {
	return m.layout.gridColumns(m.ctl.View())
}

// ensureVisible scrolls so the row holding the cursor is on screen.
func (m *model) ensureVisible() {
	cols := m.columns()
	rows := m.layout.rowsVisible(m.ctl.View())
	row := m.ctl.Index() / cols
	if row < m.scrollRow {
		m.scrollRow = row
	}
	if row >= m.scrollRow+rows {
		m.scrollRow = row - rows + 1
	}
	if m.scrollRow < 0 {
		m.scrollRow = 0
	}
}

// renderSegments styles highlighted runs with hi and the rest with base.
func renderSegments(segs []filter.Segment, base, hi lipgloss.Style) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Highlighted {
			b.WriteString(hi.Render(s.Text))
			continue
		}
		b.WriteString(base.Render(s.Text))
	}
	return b.String()
}

// fitLines wraps text to width and keeps at most limit lines, marking a cut
// with an ellipsis.
func fitLines(text string, width, limit int) []string {
	if width < 4 {
		width = 4
	}
	wrapped := strings.Split(wordwrap.String(text, width), "\n")
	clipped := len(wrapped) > limit
	if clipped {
		wrapped = wrapped[:limit]
	}
	for i, line := range wrapped {
		tail := ""
		if clipped && i == len(wrapped)-1 {
			tail = "…"
			line = truncate.String(line, uint(width-1))
		}
		wrapped[i] = truncate.StringWithTail(line, uint(width), "…") + tail
	}
	return wrapped
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
