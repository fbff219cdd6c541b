package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/desertthunder/filmrec/internal/state"
)

func movieItems(movies []models.Movie, ratings *state.RatingCache) []list.Item {
	items := make([]list.Item, len(movies))
	for i, mv := range movies {
		r, _ := ratings.Get(mv.ID)
		items[i] = movieItem{movie: mv, rating: r}
	}
	return items
}

// Home

type homeState struct {
	search     textinput.Model
	query      string // search text the current results were requested with
	genre      string
	page       int
	totalPages int
	total      int
	list       list.Model
	loading    bool
	err        error
	seq        int
}

func newHomeState() homeState {
	ti := textinput.New()
	ti.Placeholder = "Search movies…"
	ti.Prompt = "/ "
	ti.CharLimit = 100

	return homeState{search: ti, page: 1, list: newList("Movies", nil)}
}

func (h *homeState) apply(msg moviesLoadedMsg, ratings *state.RatingCache) {
	h.loading = false
	h.err = msg.err
	if msg.err != nil {
		h.list.SetItems(nil)
		return
	}
	h.totalPages = msg.list.TotalPages
	h.total = msg.list.TotalMovies
	h.page = msg.list.Page
	h.list.SetItems(movieItems(msg.list.Movies, ratings))
}

func (m *Model) fetchMovies() tea.Cmd {
	m.home.seq++
	m.home.loading = true
	m.home.err = nil
	m.home.query = strings.TrimSpace(m.home.search.Value())

	token, seq := m.app.Nav.Token(), m.home.seq
	q := models.MovieQuery{Search: m.home.query, Genre: m.home.genre, Page: m.home.page}
	return func() tea.Msg {
		result, err := m.app.Gateway.ListMovies(m.ctx, q)
		return moviesLoadedMsg{token: token, seq: seq, list: result, err: err}
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.home.search.Blur()
		if strings.TrimSpace(m.home.search.Value()) != m.home.query {
			m.home.page = 1
			return m, m.fetchMovies()
		}
		return m, nil
	case tea.KeyEsc:
		m.home.search.Blur()
		return m, nil
	}

	before := m.home.search.Value()
	var cmd tea.Cmd
	m.home.search, cmd = m.home.search.Update(msg)
	if m.home.search.Value() == before {
		return m, cmd
	}

	m.home.page = 1
	if m.debounce <= 0 {
		return m, tea.Batch(cmd, m.fetchMovies())
	}

	m.home.seq++
	seq := m.home.seq
	tick := tea.Tick(m.debounce, func(time.Time) tea.Msg { return searchTickMsg{seq: seq} })
	return m, tea.Batch(cmd, tick)
}

func (m *Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.search):
		return m, m.home.search.Focus()
	case key.Matches(msg, m.keys.genre):
		m.home.genre = cycleGenre(m.home.genre, 1)
		m.home.page = 1
		return m, m.fetchMovies()
	case key.Matches(msg, m.keys.genreRev):
		m.home.genre = cycleGenre(m.home.genre, -1)
		m.home.page = 1
		return m, m.fetchMovies()
	case key.Matches(msg, m.keys.left):
		if m.home.page > 1 {
			m.home.page--
			return m, m.fetchMovies()
		}
		return m, nil
	case key.Matches(msg, m.keys.right):
		if m.home.page < m.home.totalPages {
			m.home.page++
			return m, m.fetchMovies()
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.fetchMovies()
	case key.Matches(msg, m.keys.enter):
		if mv, ok := selectedMovie(m.home.list); ok {
			return m, m.navigate(state.PageMovie, &mv)
		}
		return m, nil
	}

	if stars, ok := ratingKey(msg); ok {
		if mv, ok := selectedMovie(m.home.list); ok {
			return m, m.rate(mv, stars)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.home.list, cmd = m.home.list.Update(msg)
	return m, cmd
}

// cycleGenre steps through "" (all genres) followed by [models.Genres].
func cycleGenre(current string, step int) string {
	options := append([]string{""}, models.Genres...)
	idx := 0
	for i, g := range options {
		if g == current {
			idx = i
		}
	}
	return options[(idx+step+len(options))%len(options)]
}

func (m *Model) renderHome() string {
	var b strings.Builder
	b.WriteString(m.home.search.View())

	genre := m.home.genre
	if genre == "" {
		genre = "All genres"
	}
	b.WriteString("   " + styles.help.Render("genre: ") + genre + "\n\n")

	switch {
	case m.home.err != nil:
		b.WriteString(renderError(m.home.err))
	case m.home.loading && len(m.home.list.Items()) == 0:
		b.WriteString(renderLoading("movies"))
	case len(m.home.list.Items()) == 0:
		b.WriteString(styles.help.Render("No movies found."))
	default:
		b.WriteString(m.home.list.View())
		if pager := formatter.Pager(m.home.page, m.home.totalPages); pager != "" {
			b.WriteString("\n" + pager + styles.help.Render(fmt.Sprintf("  (%d movies)", m.home.total)))
		}
	}
	return b.String()
}

// Discover

type discoverState struct {
	genres      list.Model
	genre       string // genre whose results are shown or loading
	movies      list.Model
	focusMovies bool
	loading     bool
	err         error
}

func newDiscoverState() discoverState {
	return discoverState{
		genres: newList("Genres", genreItems()),
		movies: newList("Top movies", nil),
	}
}

func (d *discoverState) apply(msg genreLoadedMsg, ratings *state.RatingCache) {
	d.loading = false
	d.err = msg.err
	if msg.err != nil {
		d.movies.SetItems(nil)
		return
	}
	d.movies.Title = "Top " + msg.genre + " movies"
	d.movies.SetItems(movieItems(msg.movies, ratings))
	d.movies.Select(0)
	d.focusMovies = len(msg.movies) > 0
}

// selectGenre loads genre unless it is already on screen.
func (m *Model) selectGenre(genre string) tea.Cmd {
	d := &m.discover
	if genre == d.genre && (d.loading || len(d.movies.Items()) > 0) {
		d.focusMovies = !d.loading
		return nil
	}

	d.genre = genre
	d.loading = true
	d.err = nil
	d.movies.SetItems(nil)

	token := m.app.Nav.Token()
	return func() tea.Msg {
		movies, err := m.app.Gateway.GenreRecommendations(m.ctx, genre)
		return genreLoadedMsg{token: token, genre: genre, movies: movies, err: err}
	}
}

func (m *Model) handleDiscoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := &m.discover

	switch {
	case key.Matches(msg, m.keys.left):
		d.focusMovies = false
		return m, nil
	case key.Matches(msg, m.keys.right):
		d.focusMovies = len(d.movies.Items()) > 0
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if d.genre != "" {
			g := d.genre
			d.genre = ""
			return m, m.selectGenre(g)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if !d.focusMovies {
			if it, ok := d.genres.SelectedItem().(genreItem); ok {
				return m, m.selectGenre(it.name)
			}
			return m, nil
		}
		if mv, ok := selectedMovie(d.movies); ok {
			return m, m.navigate(state.PageMovie, &mv)
		}
		return m, nil
	}

	if stars, ok := ratingKey(msg); ok && d.focusMovies {
		if mv, ok := selectedMovie(d.movies); ok {
			return m, m.rate(mv, stars)
		}
		return m, nil
	}

	var cmd tea.Cmd
	if d.focusMovies {
		d.movies, cmd = d.movies.Update(msg)
	} else {
		d.genres, cmd = d.genres.Update(msg)
	}
	return m, cmd
}

func (m *Model) renderDiscover() string {
	d := m.discover
	left := d.genres.View()

	var right string
	switch {
	case d.genre == "":
		right = styles.help.Render("Pick a genre to see its most popular movies.")
	case d.err != nil:
		right = renderError(fmt.Errorf("unable to load recommendations for %s: %w", d.genre, d.err))
	case d.loading:
		right = renderLoading(d.genre + " movies")
	case len(d.movies.Items()) == 0:
		right = styles.help.Render("No movies found for " + d.genre + ".")
	default:
		right = d.movies.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// Movie

type movieState struct {
	payload *models.Movie
	details *models.Movie
	similar list.Model
	loading bool
	err     error
}

func (s *movieState) apply(msg movieLoadedMsg, ratings *state.RatingCache) {
	s.loading = false
	s.err = msg.err
	s.details = msg.details
	s.similar.SetItems(movieItems(msg.similar, ratings))
	s.similar.Select(0)
}

// loadMovie fetches details and then similar movies for payload. A missing payload or id makes no request.
func (m *Model) loadMovie(payload *models.Movie) tea.Cmd {
	m.movie.payload = payload
	m.movie.details = nil
	m.movie.similar.SetItems(nil)
	m.movie.loading = false

	switch {
	case payload == nil:
		m.movie.err = errNoMovieSelected
		return nil
	case !payload.HasID():
		m.movie.err = shared.ErrMissingMovieID
		return nil
	}

	m.movie.err = nil
	m.movie.loading = true
	token, movie := m.app.Nav.Token(), *payload

	return func() tea.Msg {
		details, err := m.app.Gateway.GetMovie(m.ctx, movie.ID)
		if err != nil {
			return movieLoadedMsg{token: token, err: err}
		}

		similar, err := m.app.Gateway.SimilarMovies(m.ctx, movie.Title)
		if err != nil {
			m.logger.Warn("similar movies unavailable", "movie", movie.ID, "err", err)
			similar = nil
		}
		return movieLoadedMsg{token: token, details: details, similar: similar}
	}
}

// shownMovie is the movie the page is about: the fetched details, else the payload.
func (s movieState) shownMovie() (models.Movie, bool) {
	switch {
	case s.details != nil:
		return *s.details, true
	case s.payload != nil:
		return *s.payload, true
	}
	return models.Movie{}, false
}

func (m *Model) handleMovieKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, m.navigate(state.PageHome, nil)
	case key.Matches(msg, m.keys.reload):
		return m, m.loadMovie(m.movie.payload)
	case key.Matches(msg, m.keys.enter):
		if mv, ok := selectedMovie(m.movie.similar); ok {
			return m, m.navigate(state.PageMovie, &mv)
		}
		return m, nil
	}

	if stars, ok := ratingKey(msg); ok {
		if mv, ok := m.movie.shownMovie(); ok && m.movie.err == nil {
			return m, m.rate(mv, stars)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.movie.similar, cmd = m.movie.similar.Update(msg)
	return m, cmd
}

func (m *Model) renderMovie() string {
	s := m.movie
	switch {
	case s.err != nil:
		return renderError(s.err)
	case s.loading:
		return renderLoading("movie")
	case s.details == nil:
		return renderError(fmt.Errorf("movie details not available"))
	}

	rating, _ := m.app.Ratings.Get(s.details.ID)
	var b strings.Builder
	b.WriteString(formatter.MovieDetail(*s.details, rating))
	b.WriteString("\n" + styles.help.Render("1-5: rate this movie • esc: back") + "\n\n")

	if len(s.similar.Items()) == 0 {
		b.WriteString(styles.help.Render("No similar movies."))
	} else {
		b.WriteString(s.similar.View())
	}
	return b.String()
}

// Profile

type profileState struct {
	recs    *models.Recommendations
	list    list.Model
	loading bool
	err     error
}

func (p *profileState) apply(msg recsLoadedMsg, ratings *state.RatingCache) {
	p.loading = false
	p.err = msg.err
	p.recs = msg.recs
	if msg.recs == nil {
		p.list.SetItems(nil)
		return
	}
	p.list.SetItems(movieItems(msg.recs.Recommendations, ratings))
}

// loadProfile fetches recommendations. Logged-out users get a login prompt instead.
func (m *Model) loadProfile() tea.Cmd {
	session := m.app.Session()
	if !session.Authenticated() {
		m.profile = profileState{list: m.profile.list}
		m.profile.list.SetItems(nil)
		return nil
	}

	m.profile.loading = true
	m.profile.err = nil
	token := m.app.Nav.Token()
	return func() tea.Msg {
		recs, err := m.app.Gateway.Recommend(m.ctx, session.ID)
		return recsLoadedMsg{token: token, recs: recs, err: err}
	}
}

func (m *Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.reload):
		return m, m.loadProfile()
	case key.Matches(msg, m.keys.enter):
		if !m.app.Session().Authenticated() {
			return m, m.openForm()
		}
		if mv, ok := selectedMovie(m.profile.list); ok {
			return m, m.navigate(state.PageMovie, &mv)
		}
		return m, nil
	}

	if stars, ok := ratingKey(msg); ok {
		if mv, ok := selectedMovie(m.profile.list); ok {
			return m, m.rate(mv, stars)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.profile.list, cmd = m.profile.list.Update(msg)
	return m, cmd
}

func (m *Model) renderProfile() string {
	p := m.profile
	if !m.app.Session().Authenticated() {
		return styles.warn.Render("Log in to see your personalized recommendations.") + "\n" +
			styles.help.Render("press a or enter to log in")
	}

	switch {
	case p.err != nil:
		return renderError(p.err)
	case p.loading:
		return renderLoading("recommendations")
	case p.recs == nil:
		return ""
	}

	var b strings.Builder
	if e := p.recs.Explanation; e != nil {
		b.WriteString(styles.title.Render("How we picked these"))
		b.WriteString(fmt.Sprintf("\nUser %s  %s\n", e.UserID, styles.activeTab.Render(e.Category)))
		b.WriteString(fmt.Sprintf("Strategy: %s\n", e.Strategy))
		for _, mw := range e.ModelsUsed {
			b.WriteString(fmt.Sprintf("  %-15s %3.0f%%\n", mw.Model, mw.Weight*100))
		}
		b.WriteString("\n")
	}

	if len(p.list.Items()) == 0 {
		b.WriteString(styles.help.Render(formatter.NotEnoughData))
		return b.String()
	}
	b.WriteString(p.list.View())
	return b.String()
}
