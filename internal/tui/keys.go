package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	older     key.Binding
	newer     key.Binding
	dateRange key.Binding
	nextCat   key.Binding
	prevCat   key.Binding
	view      key.Binding
	up        key.Binding
	down      key.Binding
	left      key.Binding
	right     key.Binding
	top       key.Binding
	bottom    key.Binding
	open      key.Binding
	random    key.Binding
	filter    key.Binding
	toggle    key.Binding
	reload    key.Binding
	help      key.Binding
	quit      key.Binding

	back       key.Binding
	prevPaper  key.Binding
	nextPaper  key.Binding
	preview    key.Binding
	copyAbs    key.Binding
	copyPDF    key.Binding
	copyHTML   key.Binding
	enhance    key.Binding
	scrollUp   key.Binding
	scrollDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		older:     key.NewBinding(key.WithKeys("["), key.WithHelp("[", "older date")),
		newer:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "newer date")),
		dateRange: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "date range")),
		nextCat:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next category")),
		prevCat:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev category")),
		view:      key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "grid/list")),
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		top:       key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
		bottom:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
		open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random paper")),
		filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "keyword/author filter")),
		toggle:    key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "toggle")),
		reload:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		back:       key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
		prevPaper:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous paper")),
		nextPaper:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next paper")),
		preview:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pdf preview")),
		copyAbs:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		copyPDF:    key.NewBinding(key.WithKeys("Y"), key.WithHelp("Y", "copy pdf link")),
		copyHTML:   key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "copy html link")),
		enhance:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "AI summary")),
		scrollUp:   key.NewBinding(key.WithKeys("up", "k", "pgup"), key.WithHelp("↑/k", "scroll")),
		scrollDown: key.NewBinding(key.WithKeys("down", "j", "pgdown"), key.WithHelp("↓/j", "scroll")),
	}
}

// ShortHelp implements help.KeyMap for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.open, k.nextCat, k.older, k.newer, k.filter, k.random, k.help, k.quit}
}

// FullHelp implements help.KeyMap for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.older, k.newer, k.dateRange, k.reload},
		{k.nextCat, k.prevCat, k.view, k.filter},
		{k.up, k.down, k.left, k.right, k.top, k.bottom},
		{k.open, k.random, k.help, k.quit},
		{k.prevPaper, k.nextPaper, k.preview, k.enhance},
		{k.copyAbs, k.copyPDF, k.copyHTML, k.back},
	}
}

type modalKeys struct{ keyMap }

func (k modalKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.prevPaper, k.nextPaper, k.scrollDown, k.preview, k.copyAbs, k.enhance, k.back}
}

func (k modalKeys) FullHelp() [][]key.Binding { return k.keyMap.FullHelp() }
