package state

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/repositories"
	"github.com/desertthunder/filmrec/internal/services"
	"github.com/desertthunder/filmrec/internal/shared"
)

// App is the client state shared by every page and command.
type App struct {
	Gateway  services.Gateway
	Sessions *repositories.SessionStore
	Ratings  *RatingCache
	Nav      *Navigator

	logger  *log.Logger
	mu      sync.RWMutex
	session models.Session
}

// NewApp wires an App around gateway and the durable session store.
func NewApp(gateway services.Gateway, sessions *repositories.SessionStore, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &App{
		Gateway:  gateway,
		Sessions: sessions,
		Ratings:  NewRatingCache(gateway, logger),
		Nav:      NewNavigator(),
		logger:   logger,
	}
}

// Session returns the current user.
func (a *App) Session() models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *App) setSession(s models.Session) {
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
}

// Start restores the stored session and, when logged in, loads the user's ratings.
//
// A ratings failure is returned but leaves the app usable with an empty cache.
func (a *App) Start(ctx context.Context) error {
	session := a.Sessions.Load(ctx)
	a.setSession(session)
	if !session.Authenticated() {
		return nil
	}
	return a.Ratings.Hydrate(ctx, session.ID)
}

// Login authenticates and makes the result the current session.
func (a *App) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return a.authenticate(ctx, creds, a.Gateway.Login)
}

// Signup registers a new user, logs them in and shows their profile.
func (a *App) Signup(ctx context.Context, creds models.Credentials) (models.Session, error) {
	session, err := a.authenticate(ctx, creds, a.Gateway.Signup)
	if err != nil {
		return session, err
	}
	a.Nav.Navigate(PageProfile, nil)
	return session, nil
}

type authFunc func(context.Context, models.Credentials) (models.Session, error)

func (a *App) authenticate(ctx context.Context, creds models.Credentials, fn authFunc) (models.Session, error) {
	session, err := fn(ctx, creds)
	if err != nil {
		return models.Session{}, err
	}

	a.setSession(session)
	if err := a.Sessions.Save(ctx, session); err != nil {
		a.logger.Warn("session will not survive restart", "err", err)
	}
	if err := a.Ratings.Hydrate(ctx, session.ID); err != nil {
		a.logger.Warn("could not load ratings", "user", session.ID, "err", err)
	}
	return session, nil
}

// Logout forgets the user, empties the rating cache and returns to the home page.
func (a *App) Logout(ctx context.Context) error {
	a.setSession(models.Session{})
	a.Ratings.Clear()
	a.Nav.Navigate(PageHome, nil)
	return a.Sessions.Save(ctx, models.Session{})
}

// RatingFor returns the cached rating for movie.
func (a *App) RatingFor(movie models.Movie) (int, bool) {
	return a.Ratings.Get(movie.ID)
}

// BeginRate applies rating to movie optimistically. Commit the returned [Mutation] to send it.
func (a *App) BeginRate(movie models.Movie, rating int) (*Mutation, error) {
	session := a.Session()
	if !session.Authenticated() {
		return nil, shared.ErrLoginRequired
	}
	if !movie.HasID() {
		return nil, shared.ErrMissingMovieID
	}
	return a.Ratings.Begin(session.ID, movie.ID, rating)
}

// Rate applies rating to movie and waits for the API to accept it.
func (a *App) Rate(ctx context.Context, movie models.Movie, rating int) error {
	m, err := a.BeginRate(movie, rating)
	if err != nil {
		return err
	}
	return m.Commit(ctx)
}
