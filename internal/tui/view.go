package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/filter"
)

func (m *model) View() string {
	switch m.stage {
	case stageCatalog:
		return joinNonEmpty([]string{m.heroView(), m.messagesView()})
	case stageHelp:
		return joinNonEmpty([]string{m.heroView(), m.helpView()})
	}
	parts := []string{m.heroView(), m.categoryTabs()}
	switch {
	case m.stage == stageRange:
		parts = append(parts, m.rangeView())
	case m.stage == stageFilter:
		parts = append(parts, m.filterBarView())
	}
	if m.ctl.ModalOpen() {
		parts = append(parts, m.modalView())
	} else {
		parts = append(parts, m.bodyView())
	}
	parts = append(parts, m.messagesView(), m.footerView())
	return joinNonEmpty(parts)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n")
}

func (m *model) heroView() string {
	title := logoStyle.Render("daily arXiv")
	sel := m.ctl.Selection().String()
	if sel == "" {
		sel = "no date selected"
	}
	meta := helperStyle.Render(fmt.Sprintf("%s  •  %s", sel, m.statsLabel))
	top := lipgloss.JoinHorizontal(lipgloss.Center, title, " ", meta)
	return lipgloss.JoinVertical(lipgloss.Left, top, taglineStyle.Render(heroTagline))
}

func (m *model) categoryTabs() string {
	tabs := make([]string, 0, len(m.ctl.Categories()))
	for _, cat := range m.ctl.Categories() {
		label := fmt.Sprintf("%s %d", cat, m.ctl.CategoryCount(cat))
		if cat == m.ctl.Category() {
			tabs = append(tabs, activeTabStyle.Render(label))
			continue
		}
		tabs = append(tabs, tabStyle.Render(label))
	}
	return strings.Join(tabs, " ")
}

func (m *model) messagesView() string {
	var lines []string
	if m.errorMessage != "" {
		lines = append(lines, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.loading() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		lines = append(lines, helperStyle.Render(message))
	}
	if len(m.failedDates) > 0 {
		dates := make([]string, 0, len(m.failedDates))
		for d := range m.failedDates {
			dates = append(dates, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
		lines = append(lines, errorStyle.Render("Missing: "+strings.Join(dates, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (m *model) footerView() string {
	status := m.ctl.Status()
	meters := []string{
		fmt.Sprintf("%s view", m.ctl.View()),
		fmt.Sprintf("%d/%d shown", status.Shown, status.Total),
	}
	if m.ctl.FilterState().Active() {
		meters = append(meters, fmt.Sprintf("%d matched", status.Matched))
	}
	if status.Shown > 0 {
		meters = append(meters, fmt.Sprintf("#%d", m.ctl.Index()+1))
	}
	meters = append(meters, m.jobStatusBadges()...)
	bar := statusBarStyle.Render(strings.Join(meters, "  •  "))
	var keys string
	if m.ctl.ModalOpen() {
		keys = m.help.View(modalKeys{m.keys})
	} else {
		keys = m.help.View(m.keys)
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, keys)
}

func (m *model) helpView() string {
	h := m.help
	h.ShowAll = true
	body := joinNonEmpty([]string{
		sectionHeaderStyle.Render("Keys"),
		h.View(m.keys),
		helperStyle.Render("Press ? or esc to close."),
	})
	return helpBoxStyle.Render(body)
}

func (m *model) rangeView() string {
	return joinNonEmpty([]string{
		m.rangeIn.View(),
		helperStyle.Render("enter: load  •  esc: cancel  •  one date or start..end"),
	})
}

func (m *model) filterBarView() string {
	chips := m.filterChips()
	rendered := make([]string, 0, len(chips))
	for i, chip := range chips {
		label := chip.value
		if chip.author {
			label = "@" + label
		}
		style := chipOffStyle
		if m.chipActive(chip) {
			style = chipOnStyle
		}
		text := style.Render(label)
		if i == m.filterCursor {
			text = chipCursorStyle.Render("›") + text
		}
		rendered = append(rendered, text)
	}
	row := wordwrap.String(strings.Join(rendered, " "), m.layout.windowWidth)
	return joinNonEmpty([]string{row, helperStyle.Render("space: toggle  •  ←/→: move  •  esc: done")})
}

func (m *model) bodyView() string {
	entries := m.ctl.Filtered()
	status := m.ctl.Status()
	if len(entries) == 0 {
		switch status.Phase {
		case browse.Loading:
			return helperStyle.Render(m.spinner.View() + " Loading papers…")
		case browse.Failed, browse.NoData:
			return ""
		default:
			return helperStyle.Render(fmt.Sprintf("No papers in %s for %s.", m.ctl.Category(), m.ctl.Selection()))
		}
	}

	mode := m.ctl.View()
	cols := m.layout.gridColumns(mode)
	rows := m.layout.rowsVisible(mode)
	width := m.layout.cardWidthFor(mode)
	st := m.ctl.FilterState()

	var cb strings.Builder
	start := m.scrollRow * cols
	for row := 0; row < rows; row++ {
		first := start + row*cols
		if first >= len(entries) {
			break
		}
		cards := make([]string, 0, cols)
		for i := first; i < first+cols && i < len(entries); i++ {
			cards = append(cards, m.renderCard(entries[i], st, width, mode, i == m.ctl.Index()))
		}
		if row > 0 {
			cb.WriteString("\n")
		}
		cb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return cb.String()
}

func (m *model) renderCard(entry filter.Entry, st filter.State, width int, mode browse.ViewMode, current bool) string {
	style := cardStyle
	if entry.Matched {
		style = matchedCardStyle
	}
	if current {
		style = currentCardStyle
	}
	inner := width - 4
	p := entry.Paper

	title := renderSegments(filter.Highlight(p.Title, st.Keywords), heroTitleStyle, highlightStyle)
	summary := renderSegments(filter.Highlight(p.Summary, st.Keywords), lipgloss.NewStyle(), highlightStyle)
	meta := subjectStyle.Render(fmt.Sprintf("%s  %s", p.PrimaryCategory(), p.Date))
	reasons := ""
	if entry.Matched {
		meta += "  " + badgeStyle.Render("match")
		reasons = reasonStyle.Render(strings.Join(entry.Reasons, "; "))
	}

	var lines []string
	if mode == browse.List {
		if reasons != "" {
			meta += " " + reasons
		}
		lines = append(lines, fitLines(title, inner, 1)...)
		lines = append(lines, fitLines(meta, inner, 1)...)
		lines = append(lines, fitLines(summary, inner, 1)...)
	} else {
		summaryLines := 2
		lines = append(lines, fitLines(title, inner, 2)...)
		lines = append(lines, fitLines(meta, inner, 1)...)
		if reasons != "" {
			lines = append(lines, fitLines(reasons, inner, 1)...)
			summaryLines = 1
		}
		lines = append(lines, fitLines(summary, inner, summaryLines)...)
		authors := renderSegments(filter.Highlight(p.AuthorLine(), st.Authors), helperStyle, authorHiStyle)
		lines = append(lines, fitLines(authors, inner, 1)...)
	}
	height := gridCardLines
	if mode == browse.List {
		height = listCardLines
	}
	return style.Width(width - 2).Height(height).Render(strings.Join(lines, "\n"))
}

func (m *model) modalView() string {
	entry, ok := m.ctl.Current()
	if !ok {
		return ""
	}
	header := helperStyle.Render(fmt.Sprintf("%d / %d  •  %s", m.ctl.Index()+1, len(m.ctl.Filtered()), entry.Paper.Date))
	return modalBoxStyle.Width(m.layout.windowWidth - 2).Render(joinNonEmpty([]string{header, m.viewport.View()}))
}

// modalContent renders the detail body shown in the modal viewport.
func (m *model) modalContent(entry filter.Entry) string {
	p := entry.Paper
	st := m.ctl.FilterState()
	width := m.layout.modalWidth
	if width < 20 {
		width = 20
	}
	wrap := func(s string) string { return wordwrap.String(s, width) }

	var cb strings.Builder
	cb.WriteString(wrap(renderSegments(filter.Highlight(p.Title, st.Keywords), heroTitleStyle, highlightStyle)))
	cb.WriteString("\n")
	if authors := p.AuthorLine(); authors != "" {
		cb.WriteString(wrap(renderSegments(filter.Highlight(authors, st.Authors), helperStyle, authorHiStyle)))
		cb.WriteString("\n")
	}
	cb.WriteString(subjectStyle.Render(strings.Join(p.Categories, ", ")))
	cb.WriteString("\n")
	if entry.Matched {
		cb.WriteString(badgeStyle.Render("match") + " " + reasonStyle.Render(strings.Join(entry.Reasons, "; ")))
		cb.WriteString("\n")
	}
	if p.URL != "" {
		cb.WriteString(helperStyle.Render(p.URL))
		cb.WriteString("\n")
	}

	writeSection := func(label, body string) {
		body = strings.TrimSpace(body)
		if body == "" {
			return
		}
		cb.WriteString("\n")
		cb.WriteString(sectionHeaderStyle.Render(label))
		cb.WriteString("\n")
		segs := renderSegments(filter.Highlight(body, st.Keywords), lipgloss.NewStyle(), highlightStyle)
		cb.WriteString(indentMultiline(wordwrap.String(segs, width-2), "  "))
		cb.WriteString("\n")
	}

	ai := p.AI
	if state, ok := m.enhanced[paperKey(p)]; ok && !state.Loading && state.Err == "" {
		ai = state.Fields
	}
	writeSection("TL;DR", ai.TLDR)
	writeSection("Motivation", ai.Motivation)
	writeSection("Method", ai.Method)
	writeSection("Result", ai.Result)
	writeSection("Conclusion", ai.Conclusion)
	writeSection("Abstract", p.Details)

	if state, ok := m.enhanced[paperKey(p)]; ok {
		switch {
		case state.Loading:
			cb.WriteString("\n" + helperStyle.Render(m.spinner.View()+" Generating AI summary…") + "\n")
		case state.Err != "":
			cb.WriteString("\n" + errorStyle.Render("AI summary failed: "+state.Err) + "\n")
		}
	} else if ai.Empty() && m.cfg.LLM != nil {
		cb.WriteString("\n" + helperStyle.Render("Press e for an AI summary.") + "\n")
	}

	cb.WriteString(m.previewSection(p))
	return cb.String()
}

func (m *model) previewSection(p feed.Paper) string {
	state, ok := m.previews[paperKey(p)]
	if !ok {
		return ""
	}
	var body string
	switch {
	case state.Loading:
		body = helperStyle.Render(m.spinner.View() + " Fetching PDF…")
	case state.Err != "":
		body = errorStyle.Render("Preview failed: " + state.Err)
	default:
		body = wordwrap.String(previewText(state.Text, previewRuneLimit), m.layout.modalWidth)
	}
	return "\n" + sectionHeaderStyle.Render("PDF preview") + "\n" + body + "\n"
}
