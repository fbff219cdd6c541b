package state

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/services"
	"github.com/desertthunder/filmrec/internal/shared"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidRating reports whether r is a star rating the API accepts.
func ValidRating(r int) bool { return r >= MinRating && r <= MaxRating }

type ratingEntry struct {
	rating  int
	version uint64
}

// RatingCache maps movie ids to the current user's ratings.
//
// Writes apply locally before the API confirms them; a failed write restores the previous value.
type RatingCache struct {
	gateway services.Gateway
	logger  *log.Logger

	mu      sync.Mutex
	entries map[models.MovieID]ratingEntry
	owner   string
	epoch   uint64 // bumped by Clear and Hydrate; results from an older epoch are dropped
	version uint64 // bumped by every write
}

// NewRatingCache creates an empty RatingCache that talks to gateway.
func NewRatingCache(gateway services.Gateway, logger *log.Logger) *RatingCache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RatingCache{gateway: gateway, logger: logger, entries: map[models.MovieID]ratingEntry{}}
}

// Hydrate replaces the cache with userID's ratings from the API.
//
// On failure the cache is left empty and the error is returned. Writes made while the request was in flight
// survive. The result is dropped if the cache was cleared or hydrated again in the meantime.
func (c *RatingCache) Hydrate(ctx context.Context, userID string) error {
	if userID == "" {
		c.Clear()
		return nil
	}

	c.mu.Lock()
	c.epoch++
	epoch, since := c.epoch, c.version
	if c.owner != userID {
		c.entries = map[models.MovieID]ratingEntry{}
	}
	c.owner = userID
	c.mu.Unlock()

	movies, fetchErr := c.gateway.UserRatings(ctx, userID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.logger.Debug("discarding stale ratings", "user", userID)
		return nil
	}

	next := map[models.MovieID]ratingEntry{}
	if fetchErr == nil {
		for _, m := range movies {
			rating := int(math.Round(m.Rating))
			if !m.HasID() || !ValidRating(rating) {
				continue
			}
			next[m.ID] = ratingEntry{rating: rating}
		}
	}
	for id, e := range c.entries {
		if e.version > since {
			next[id] = e
		}
	}
	c.entries = next

	if fetchErr != nil {
		return fmt.Errorf("failed to load ratings: %w", fetchErr)
	}
	c.logger.Debug("ratings loaded", "user", userID, "count", len(next))
	return nil
}

// Clear empties the cache and drops any in-flight hydrate.
func (c *RatingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.owner = ""
	c.entries = map[models.MovieID]ratingEntry{}
}

// Get returns the cached rating for id.
func (c *RatingCache) Get(id models.MovieID) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e.rating, ok
}

// Len returns the number of cached ratings.
func (c *RatingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of every cached rating.
func (c *RatingCache) Snapshot() map[models.MovieID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.MovieID]int, len(c.entries))
	for id, e := range c.entries {
		out[id] = e.rating
	}
	return out
}

// Mutation is an optimistic rating that has been applied locally but not yet sent.
type Mutation struct {
	cache  *RatingCache
	userID string

	ID     models.MovieID
	Rating int

	prev    ratingEntry
	hadPrev bool
	version uint64
}

// Begin applies rating to id immediately and returns the pending [Mutation].
//
// Nothing changes when userID is empty ([shared.ErrLoginRequired]), id is missing or rating is out of range.
func (c *RatingCache) Begin(userID string, id models.MovieID, rating int) (*Mutation, error) {
	if userID == "" {
		return nil, shared.ErrLoginRequired
	}
	if !id.Valid() {
		return nil, shared.ErrMissingMovieID
	}
	if !ValidRating(rating) {
		return nil, fmt.Errorf("%w: got %d", shared.ErrInvalidRating, rating)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, had := c.entries[id]
	c.version++
	c.entries[id] = ratingEntry{rating: rating, version: c.version}

	return &Mutation{
		cache:   c,
		userID:  userID,
		ID:      id,
		Rating:  rating,
		prev:    prev,
		hadPrev: had,
		version: c.version,
	}, nil
}

// Commit sends the rating to the API. On failure the previous value is restored, unless a newer
// write to the same movie has replaced this one, and the error is returned. There is no retry.
func (m *Mutation) Commit(ctx context.Context) error {
	err := m.cache.gateway.RateMovie(ctx, m.userID, m.ID, m.Rating)
	if err == nil {
		return nil
	}

	m.cache.rollback(m)
	m.cache.logger.Warn("rating failed, reverted", "movie", m.ID, "rating", m.Rating, "err", err)
	return err
}

func (c *RatingCache) rollback(m *Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.entries[m.ID]
	if !ok || cur.version != m.version {
		return
	}
	if m.hadPrev {
		c.entries[m.ID] = m.prev
	} else {
		delete(c.entries, m.ID)
	}
}

// Set rates id and waits for the API. See [RatingCache.Begin] and [Mutation.Commit].
func (c *RatingCache) Set(ctx context.Context, userID string, id models.MovieID, rating int) error {
	m, err := c.Begin(userID, id, rating)
	if err != nil {
		return err
	}
	return m.Commit(ctx)
}
