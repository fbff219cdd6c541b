package state

import (
	"strings"
	"sync"

	"github.com/desertthunder/filmrec/internal/models"
)

// Page names a top-level view.
type Page string

const (
	PageHome     Page = "home"
	PageDiscover Page = "discover"
	PageMovie    Page = "movie"
	PageProfile  Page = "profile"
)

// Pages lists every page in menu order.
var Pages = []Page{PageHome, PageDiscover, PageProfile, PageMovie}

// ParsePage returns the page named s, or [PageHome] when s names no page.
func ParsePage(s string) Page {
	p := Page(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PageHome, PageDiscover, PageMovie, PageProfile:
		return p
	}
	return PageHome
}

func (p Page) String() string { return string(p) }

// Navigator tracks the current page and its movie payload.
//
// Every navigation bumps a token. Work started for an older token should be thrown away.
type Navigator struct {
	mu         sync.Mutex
	page       Page
	movie      *models.Movie
	token      uint64
	onNavigate func(Page)
}

// NewNavigator starts on the home page.
func NewNavigator() *Navigator {
	return &Navigator{page: PageHome}
}

// OnNavigate registers fn to run after every navigation, including to the page already shown.
// The TUI uses it to scroll back to the top.
func (n *Navigator) OnNavigate(fn func(Page)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onNavigate = fn
}

// Navigate switches to page and returns the new token. movie is kept only for [PageMovie].
func (n *Navigator) Navigate(page Page, movie *models.Movie) uint64 {
	page = ParsePage(string(page))

	n.mu.Lock()
	n.page = page
	n.movie = nil
	if page == PageMovie && movie != nil {
		m := *movie
		n.movie = &m
	}
	n.token++
	token, hook := n.token, n.onNavigate
	n.mu.Unlock()

	if hook != nil {
		hook(page)
	}
	return token
}

// Current returns the page and its payload.
func (n *Navigator) Current() (Page, *models.Movie) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page, n.movie
}

// Page returns the current page.
func (n *Navigator) Page() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.page
}

// Token returns the current navigation token.
func (n *Navigator) Token() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.token
}

// IsCurrent reports whether token belongs to the page still on screen.
func (n *Navigator) IsCurrent(token uint64) bool {
	return n.Token() == token
}
