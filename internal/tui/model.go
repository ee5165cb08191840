package tui

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/browse"
	"github.com/csheth/dailyfeed/internal/feed"
	"github.com/csheth/dailyfeed/internal/llm"
	"github.com/csheth/dailyfeed/internal/logger"
	"github.com/csheth/dailyfeed/internal/preview"
	"github.com/csheth/dailyfeed/internal/stats"
)

// Config wires the browser to its collaborators. Nil collaborators disable
// the matching feature.
type Config struct {
	Catalog    *feed.Catalog
	Loader     *feed.Loader
	Controller *browse.Controller
	Stats      *stats.Client
	StatsRepo  string
	Preview    *preview.Fetcher
	LLM        llm.Client
	Language   string
	// JobTimeout bounds catalog, load and stats jobs.
	JobTimeout time.Duration
	// PreviewTimeout and EnhanceTimeout default to preview.DefaultTimeout
	// and llm.DefaultTimeout.
	PreviewTimeout time.Duration
	EnhanceTimeout time.Duration
	Clipboard      func(string) error
	Rand           *rand.Rand
}

func (cfg Config) jobTimeouts() map[jobKind]time.Duration {
	previewTimeout := cfg.PreviewTimeout
	if previewTimeout <= 0 {
		previewTimeout = preview.DefaultTimeout
	}
	enhanceTimeout := cfg.EnhanceTimeout
	if enhanceTimeout <= 0 {
		enhanceTimeout = llm.DefaultTimeout
	}
	return map[jobKind]time.Duration{
		jobKindCatalog: cfg.JobTimeout,
		jobKindLoad:    cfg.JobTimeout,
		jobKindStats:   cfg.JobTimeout,
		jobKindPreview: previewTimeout,
		jobKindEnhance: enhanceTimeout,
	}
}

type model struct {
	cfg       Config
	ctl       *browse.Controller
	jobs      *jobBus
	keys      keyMap
	help      help.Model
	spinner   spinner.Model
	viewport  viewport.Model
	rangeIn   textinput.Model
	layout    pageLayout
	clipboard func(string) error
	rng       *rand.Rand

	stage     stage
	helpFrom  stage
	dates     []string
	dateIdx   int
	catalogOK bool

	statsLabel   string
	infoMessage  string
	errorMessage string
	failedDates  map[string]error

	filterCursor int
	scrollRow    int

	running  map[string]jobSnapshot
	previews map[string]previewState
	enhanced map[string]enhanceState
}

// New builds the browser model.
func New(cfg Config) tea.Model {
	ctl := cfg.Controller
	if ctl == nil {
		var categories []string
		if cfg.Loader != nil {
			categories = cfg.Loader.Categories()
		}
		ctl = browse.New(categories, nil, nil)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(heroAccentColor)

	ri := textinput.New()
	ri.Placeholder = "2024-01-01..2024-01-07"
	ri.Prompt = "Dates › "
	ri.CharLimit = 32

	vp := viewport.New(80, 20)
	vp.SetContent("")

	h := help.New()
	h.ShowAll = false

	clip := cfg.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}

	return &model{
		cfg:        cfg,
		ctl:        ctl,
		jobs:       newJobBus(cfg.jobTimeouts()),
		keys:       newKeyMap(),
		help:       h,
		spinner:    sp,
		viewport:   vp,
		rangeIn:    ri,
		layout:     newPageLayout(),
		clipboard:  clip,
		rng:        rng,
		stage:      stageCatalog,
		statsLabel: stats.Placeholder,
		previews:   make(map[string]previewState),
		enhanced:   make(map[string]enhanceState),
		running:    make(map[string]jobSnapshot),
	}
}

func (m *model) Init() tea.Cmd {
	m.infoMessage = "Reading the date catalog…"
	return tea.Batch(m.spinner.Tick, m.discoverCmd(), m.statsCmd())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.viewport.Width = m.layout.modalWidth
		m.viewport.Height = m.layout.modalHeight
		m.refreshModal()
		m.ensureVisible()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.trackJob(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		m.trackJob(msg.Snapshot)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case catalogResultMsg:
		return m.handleCatalog(msg)
	case loadResultMsg:
		m.handleLoad(msg)
		return m, nil
	case statsResultMsg:
		m.statsLabel = msg.label
		return m, nil
	case previewResultMsg:
		state := previewState{Text: msg.text}
		if msg.err != nil {
			state = previewState{Err: msg.err.Error()}
		}
		m.previews[msg.key] = state
		m.refreshModal()
		return m, nil
	case enhanceResultMsg:
		state := enhanceState{Fields: msg.fields}
		if msg.err != nil {
			state = enhanceState{Err: msg.err.Error()}
		} else {
			m.infoMessage = "AI summary ready."
		}
		m.enhanced[msg.key] = state
		m.refreshModal()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleCatalog(msg catalogResultMsg) (tea.Model, tea.Cmd) {
	m.stage = stageDisplay
	m.dates = msg.dates
	m.dateIdx = 0
	if msg.err != nil {
		m.catalogOK = false
		m.infoMessage = ""
		m.errorMessage = fmt.Sprintf("Could not read the date catalog: %v. Press R to retry.", msg.err)
		return m, nil
	}
	m.catalogOK = true
	if len(m.dates) == 0 {
		m.infoMessage = "No dates have been published yet."
		return m, nil
	}
	return m, m.startLoad(browse.Single(m.dates[0]))
}

func (m *model) handleLoad(msg loadResultMsg) {
	if !m.ctl.CompleteLoad(msg.generation, msg.index, msg.err) {
		return
	}
	m.scrollRow = 0
	m.failedDates = msg.failed
	if msg.err != nil {
		m.infoMessage = ""
		m.errorMessage = describeLoadError(msg.err)
		logger.Get().Warn("load failed", zap.String("selection", msg.selection.String()), zap.Error(msg.err))
		return
	}
	m.errorMessage = ""
	status := m.ctl.Status()
	m.infoMessage = fmt.Sprintf("Loaded %d papers for %s.", status.Total, msg.selection)
	if len(msg.failed) > 0 {
		m.infoMessage += fmt.Sprintf(" %d date(s) could not be loaded.", len(msg.failed))
	}
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.stage {
	case stageHelp:
		if key.Matches(msg, m.keys.help, m.keys.back) {
			m.stage = m.helpFrom
		}
		return m, nil
	case stageRange:
		return m.handleRangeKey(msg)
	case stageFilter:
		return m.handleFilterKey(msg)
	}
	if m.ctl.ModalOpen() {
		return m.handleModalKey(msg)
	}
	return m.handleDisplayKey(msg)
}

func (m *model) handleDisplayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.quit):
		return m, tea.Quit
	case key.Matches(msg, k.help):
		m.helpFrom = m.stage
		m.stage = stageHelp
	case key.Matches(msg, k.reload):
		if !m.catalogOK || len(m.dates) == 0 {
			m.errorMessage = ""
			m.infoMessage = "Reading the date catalog…"
			return m, m.discoverCmd()
		}
		return m, m.startLoad(m.ctl.Selection())
	case key.Matches(msg, k.older):
		return m, m.stepDate(1)
	case key.Matches(msg, k.newer):
		return m, m.stepDate(-1)
	case key.Matches(msg, k.dateRange):
		if len(m.dates) == 0 {
			m.errorMessage = "No dates to choose from."
			return m, nil
		}
		m.rangeIn.SetValue(m.defaultRange())
		m.rangeIn.CursorEnd()
		m.stage = stageRange
		return m, m.rangeIn.Focus()
	case key.Matches(msg, k.nextCat):
		m.ctl.CycleCategory(1)
		m.scrollRow = 0
	case key.Matches(msg, k.prevCat):
		m.ctl.CycleCategory(-1)
		m.scrollRow = 0
	case key.Matches(msg, k.view):
		m.ctl.ToggleView()
		m.scrollRow = 0
		m.ensureVisible()
	case key.Matches(msg, k.filter):
		if len(m.ctl.UserKeywords())+len(m.ctl.UserAuthors()) == 0 {
			m.infoMessage = "No saved keywords or authors. Add some with `dailyfeed prefs set`."
			return m, nil
		}
		m.filterCursor = 0
		m.stage = stageFilter
	case key.Matches(msg, k.random):
		if _, err := m.ctl.Random(m.rng); err != nil {
			m.infoMessage = "No papers to pick from."
			return m, nil
		}
		m.openCurrent()
	case key.Matches(msg, k.open):
		if err := m.ctl.Open(m.ctl.Index()); err != nil {
			m.infoMessage = "No papers to open."
			return m, nil
		}
		m.openCurrent()
	case key.Matches(msg, k.up):
		m.moveCursor(-m.columns())
	case key.Matches(msg, k.down):
		m.moveCursor(m.columns())
	case key.Matches(msg, k.left):
		m.moveCursor(-1)
	case key.Matches(msg, k.right):
		m.moveCursor(1)
	case key.Matches(msg, k.top):
		m.moveCursor(-len(m.ctl.Filtered()))
	case key.Matches(msg, k.bottom):
		m.moveCursor(len(m.ctl.Filtered()))
	}
	return m, nil
}

func (m *model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	entry, ok := m.ctl.Current()
	switch {
	case key.Matches(msg, k.back):
		m.ctl.Close()
		m.ensureVisible()
		return m, nil
	case key.Matches(msg, k.help):
		m.helpFrom = m.stage
		m.stage = stageHelp
		return m, nil
	case key.Matches(msg, k.prevPaper):
		m.ctl.Prev()
		m.openCurrent()
		return m, nil
	case key.Matches(msg, k.nextPaper):
		m.ctl.Next()
		m.openCurrent()
		return m, nil
	}
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(msg, k.preview):
		cmd := m.previewCmd(entry.Paper)
		m.refreshModal()
		return m, cmd
	case key.Matches(msg, k.enhance):
		cmd := m.enhanceCmd(entry.Paper)
		m.refreshModal()
		return m, cmd
	case key.Matches(msg, k.copyAbs):
		m.copyLink(entry.Paper.URL, "abstract")
	case key.Matches(msg, k.copyPDF):
		m.copyLink(preview.PDFLink(entry.Paper.URL), "PDF")
	case key.Matches(msg, k.copyHTML):
		m.copyLink(preview.HTMLLink(entry.Paper.URL), "HTML")
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleRangeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.rangeIn.Blur()
		m.stage = stageDisplay
		return m, nil
	case tea.KeyEnter:
		sel, err := parseRange(m.rangeIn.Value())
		if err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.rangeIn.Blur()
		m.stage = stageDisplay
		if idx := newestIndex(m.dates, sel); idx >= 0 {
			m.dateIdx = idx
		}
		return m, m.startLoad(sel)
	}
	var cmd tea.Cmd
	m.rangeIn, cmd = m.rangeIn.Update(msg)
	return m, cmd
}

func (m *model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chips := m.filterChips()
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.filter):
		m.stage = stageDisplay
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.left):
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case key.Matches(msg, m.keys.down), key.Matches(msg, m.keys.right):
		if m.filterCursor < len(chips)-1 {
			m.filterCursor++
		}
	case key.Matches(msg, m.keys.toggle):
		if m.filterCursor >= len(chips) {
			return m, nil
		}
		chip := chips[m.filterCursor]
		var active bool
		if chip.author {
			active = m.ctl.ToggleAuthor(chip.value)
		} else {
			active = m.ctl.ToggleKeyword(chip.value)
		}
		state := "off"
		if active {
			state = "on"
		}
		m.infoMessage = fmt.Sprintf("%s %s. %d of %d papers match.", chip.value, state, m.ctl.Status().Matched, m.ctl.Status().Shown)
		m.scrollRow = 0
		m.ensureVisible()
	}
	return m, nil
}

func (m *model) stepDate(delta int) tea.Cmd {
	if len(m.dates) == 0 {
		m.errorMessage = "No dates to choose from."
		return nil
	}
	next := m.dateIdx + delta
	if next < 0 || next >= len(m.dates) {
		if delta > 0 {
			m.infoMessage = "Already at the oldest date."
		} else {
			m.infoMessage = "Already at the newest date."
		}
		return nil
	}
	m.dateIdx = next
	return m.startLoad(browse.Single(m.dates[next]))
}

func (m *model) defaultRange() string {
	sel := m.ctl.Selection()
	if sel.Start != "" {
		if sel.IsRange() {
			return sel.Start + rangeSeparator + sel.End
		}
		return sel.Start
	}
	return m.dates[0]
}

func (m *model) moveCursor(delta int) {
	m.ctl.Move(delta)
	m.ensureVisible()
}

func (m *model) openCurrent() {
	if _, ok := m.ctl.Current(); !ok {
		return
	}
	m.viewport.GotoTop()
	m.refreshModal()
	m.ensureVisible()
}

func (m *model) refreshModal() {
	if !m.ctl.ModalOpen() {
		return
	}
	entry, ok := m.ctl.Current()
	if !ok {
		return
	}
	m.viewport.SetContent(m.modalContent(entry))
}

type filterChip struct {
	value  string
	author bool
}

func (m *model) filterChips() []filterChip {
	var chips []filterChip
	for _, kw := range m.ctl.UserKeywords() {
		chips = append(chips, filterChip{value: kw})
	}
	for _, au := range m.ctl.UserAuthors() {
		chips = append(chips, filterChip{value: au, author: true})
	}
	return chips
}

func (m *model) chipActive(c filterChip) bool {
	if c.author {
		return m.ctl.AuthorActive(c.value)
	}
	return m.ctl.KeywordActive(c.value)
}

func (m *model) loading() bool {
	return m.stage == stageCatalog || m.ctl.Status().Phase == browse.Loading
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	subjectStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	highlightStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190"))
	authorHiStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle     = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	tabStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4")).Padding(0, 1)
	activeTabStyle   = keyStyle
	helpBoxStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	modalBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 1)
	cardStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	matchedCardStyle = cardStyle.Copy().BorderForeground(lipgloss.Color("#a3be8c"))
	currentCardStyle = cardStyle.Copy().BorderForeground(lipgloss.Color("#8ecae6")).BorderStyle(lipgloss.ThickBorder())
	badgeStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a3be8c")).Padding(0, 1)
	reasonStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c")).Italic(true)
	chipOnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a3be8c")).Padding(0, 1)
	chipOffStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Strikethrough(true).Padding(0, 1)
	chipCursorStyle  = lipgloss.NewStyle().Underline(true)
	logoStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor).Padding(0, 1)
)
