package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/desertthunder/filmrec/internal/state"
)

// errNoMovieSelected is shown on the movie page when it was opened without a movie.
var errNoMovieSelected = errors.New("no movie selected")

// tabs are the pages reachable with tab/shift+tab; the movie page is only reached by opening a movie.
var tabs = []state.Page{state.PageHome, state.PageDiscover, state.PageProfile}

// Options configures a [Model].
type Options struct {
	SearchDebounce time.Duration
	Logger         *log.Logger
}

// Model is the TUI application state.
type Model struct {
	ctx      context.Context
	app      *state.App
	logger   *log.Logger
	debounce time.Duration

	width  int
	height int
	help   help.Model
	keys   keyMap

	page     state.Page // page currently rendered
	notice   string
	noticeOK bool
	prompt   string // blocking message, e.g. login required
	form     *authForm

	home     homeState
	discover discoverState
	movie    movieState
	profile  profileState

	scrollReset atomic.Bool
}

// NewModel creates a new TUI model around app.
func NewModel(ctx context.Context, app *state.App, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Model{
		ctx:      ctx,
		app:      app,
		logger:   opts.Logger,
		debounce: opts.SearchDebounce,
		help:     help.New(),
		keys:     newKeyMap(),
		page:     app.Nav.Page(),
		home:     newHomeState(),
		discover: newDiscoverState(),
		movie:    movieState{similar: newList("Similar movies", nil)},
		profile:  profileState{list: newList("Recommended for you", nil)},
	}
	app.Nav.OnNavigate(func(state.Page) { m.scrollReset.Store(true) })
	return m
}

// Init restores the session and loads the first page.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: m.app.Start(m.ctx)}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.logger.Warn("could not load ratings", "err", msg.err)
		}
		return m, m.navigate(state.PageHome, nil)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case searchTickMsg:
		if msg.seq != m.home.seq || m.page != state.PageHome {
			return m, nil
		}
		return m, m.fetchMovies()

	case moviesLoadedMsg:
		if !m.current(msg.token) || msg.seq != m.home.seq {
			return m, nil
		}
		m.home.apply(msg, m.app.Ratings)
		return m, nil

	case genreLoadedMsg:
		if !m.current(msg.token) || msg.genre != m.discover.genre {
			return m, nil
		}
		m.discover.apply(msg, m.app.Ratings)
		return m, nil

	case movieLoadedMsg:
		if !m.current(msg.token) {
			return m, nil
		}
		m.movie.apply(msg, m.app.Ratings)
		return m, nil

	case recsLoadedMsg:
		if !m.current(msg.token) {
			return m, nil
		}
		m.profile.apply(msg, m.app.Ratings)
		return m, nil

	case rateDoneMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Could not save rating for %s: %v", msg.movie.Title, msg.err), false)
		} else {
			m.setNotice(fmt.Sprintf("Rated %s %s", msg.movie.Title, formatter.Stars(msg.rating)), true)
		}
		m.refreshRatings()
		return m, nil

	case authDoneMsg:
		return m.handleAuthDone(msg)
	}

	return m, nil
}

// current reports whether a response tagged with token still belongs on screen.
func (m *Model) current(token uint64) bool {
	if m.app.Nav.IsCurrent(token) {
		return true
	}
	m.logger.Debug("dropping stale response", "token", token)
	return false
}

func (m *Model) setNotice(s string, ok bool) {
	m.notice, m.noticeOK = s, ok
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompt != "" {
		m.prompt = ""
		if key.Matches(msg, m.keys.login, m.keys.enter) && !m.app.Session().Authenticated() {
			return m, m.openForm()
		}
		return m, nil
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if m.page == state.PageHome && m.home.search.Focused() {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.nextTab):
		return m, m.navigate(m.tabAfter(1), nil)
	case key.Matches(msg, m.keys.prevTab):
		return m, m.navigate(m.tabAfter(-1), nil)
	case key.Matches(msg, m.keys.login):
		if !m.app.Session().Authenticated() {
			return m, m.openForm()
		}
	case key.Matches(msg, m.keys.logout):
		if m.app.Session().Authenticated() {
			return m, m.logout()
		}
	}

	m.notice = ""
	switch m.page {
	case state.PageHome:
		return m.handleHomeKey(msg)
	case state.PageDiscover:
		return m.handleDiscoverKey(msg)
	case state.PageMovie:
		return m.handleMovieKey(msg)
	case state.PageProfile:
		return m.handleProfileKey(msg)
	}
	return m, nil
}

func (m *Model) tabAfter(step int) state.Page {
	idx := 0
	for i, p := range tabs {
		if p == m.page {
			idx = i
		}
	}
	return tabs[(idx+step+len(tabs))%len(tabs)]
}

// navigate moves to page and returns the command loading it.
func (m *Model) navigate(page state.Page, movie *models.Movie) tea.Cmd {
	m.app.Nav.Navigate(page, movie)
	return m.enterPage()
}

// enterPage renders whatever page the navigator is on and starts its requests.
func (m *Model) enterPage() tea.Cmd {
	page, movie := m.app.Nav.Current()
	m.page = page
	reset := m.scrollReset.Swap(false)

	switch page {
	case state.PageHome:
		if reset {
			m.home.list.Select(0)
		}
		return m.fetchMovies()
	case state.PageDiscover:
		if reset {
			m.discover.movies.Select(0)
		}
		// a load started before leaving the page was dropped as stale
		if d := &m.discover; d.loading {
			g := d.genre
			d.genre = ""
			return m.selectGenre(g)
		}
		return nil
	case state.PageMovie:
		return m.loadMovie(movie)
	case state.PageProfile:
		if reset {
			m.profile.list.Select(0)
		}
		return m.loadProfile()
	}
	return nil
}

// rate applies stars to movie locally and sends it in the background.
func (m *Model) rate(movie models.Movie, stars int) tea.Cmd {
	mutation, err := m.app.BeginRate(movie, stars)
	switch {
	case errors.Is(err, shared.ErrLoginRequired):
		m.prompt = "Please log in to rate movies."
		return nil
	case err != nil:
		m.setNotice(err.Error(), false)
		return nil
	}

	m.refreshRatings()
	return func() tea.Msg {
		return rateDoneMsg{movie: movie, rating: stars, err: mutation.Commit(m.ctx)}
	}
}

func ratingKey(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '1' && s[0] <= '5' {
		return int(s[0] - '0'), true
	}
	return 0, false
}

// refreshRatings redraws star ratings in every list from the rating cache.
func (m *Model) refreshRatings() {
	for _, l := range []*list.Model{&m.home.list, &m.discover.movies, &m.movie.similar, &m.profile.list} {
		items := l.Items()
		for i, it := range items {
			if mi, ok := it.(movieItem); ok {
				mi.rating, _ = m.app.Ratings.Get(mi.movie.ID)
				items[i] = mi
			}
		}
		l.SetItems(items)
	}
}

func (m *Model) logout() tea.Cmd {
	if err := m.app.Logout(m.ctx); err != nil {
		m.logger.Warn("could not clear stored session", "err", err)
	}
	m.refreshRatings()
	m.setNotice("Logged out", true)
	return m.enterPage()
}

func (m *Model) resize() {
	w, h := max(m.width-4, 20), max(m.height-10, 5)
	m.home.list.SetSize(w, h)
	m.discover.genres.SetSize(w/3, h)
	m.discover.movies.SetSize(w-w/3, h)
	m.movie.similar.SetSize(w, max(h/2, 5))
	m.profile.list.SetSize(w, max(h-6, 5))
}

// View renders the UI based on the current page.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.prompt != "":
		b.WriteString(styles.panel.Render(styles.warn.Render(m.prompt) + "\n\n" + styles.help.Render("a/enter: log in • any key: dismiss")))
	case m.form != nil:
		b.WriteString(m.form.view())
	default:
		b.WriteString(m.renderPage())
	}

	if m.notice != "" {
		style := styles.err
		if m.noticeOK {
			style = styles.ok
		}
		b.WriteString("\n" + style.Render(m.notice))
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	parts := []string{styles.title.UnsetMarginBottom().Render("FilmRec")}
	for _, p := range tabs {
		label := strings.ToUpper(p.String()[:1]) + p.String()[1:]
		if p == m.page {
			parts = append(parts, styles.activeTab.Render(label))
		} else {
			parts = append(parts, styles.tab.Render(label))
		}
	}

	user := styles.help.Render("not logged in (a to log in)")
	if s := m.app.Session(); s.Authenticated() {
		user = styles.ok.Render("● " + s.Username)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, " "), "   ", user)
}

func (m *Model) renderPage() string {
	switch m.page {
	case state.PageDiscover:
		return m.renderDiscover()
	case state.PageMovie:
		return m.renderMovie()
	case state.PageProfile:
		return m.renderProfile()
	}
	return m.renderHome()
}

func renderError(err error) string {
	return styles.panel.Render(styles.err.Render("Error: "+err.Error()) + "\n" + styles.help.Render("r to retry"))
}

func renderLoading(what string) string {
	return styles.help.Render("Loading " + what + "…")
}
