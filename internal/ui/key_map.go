package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	left     key.Binding
	right    key.Binding
	enter    key.Binding
	back     key.Binding
	nextTab  key.Binding
	prevTab  key.Binding
	search   key.Binding
	genre    key.Binding
	genreRev key.Binding
	rate     key.Binding
	reload   key.Binding
	login    key.Binding
	logout   key.Binding
	toggle   key.Binding
	help     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		nextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		genre:    key.NewBinding(key.WithKeys("g"), key.WithHelp("g/G", "genre")),
		genreRev: key.NewBinding(key.WithKeys("G")),
		rate:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "rate")),
		reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		login:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "log in")),
		logout:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "log out")),
		toggle:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "login/sign up")),
		help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextTab, k.enter, k.rate, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.left, k.right, k.enter, k.back},
		{k.nextTab, k.prevTab, k.search, k.genre, k.rate, k.reload},
		{k.login, k.logout, k.toggle, k.help, k.quit},
	}
}
