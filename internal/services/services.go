// package services defines interface Gateway for interacting with the FilmRec HTTP API
package services

import (
	"context"

	"github.com/desertthunder/filmrec/internal/models"
)

// Gateway is the set of stateless request/response calls the client makes against the recommendation API.
//
// Every movie returned by a Gateway has its identifier already resolved into [models.Movie.ID].
type Gateway interface {
	// ListMovies returns one page of the movie listing filtered by search text and genre.
	ListMovies(ctx context.Context, q models.MovieQuery) (*models.MovieList, error)

	// GetMovie returns a single movie's details.
	GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error)

	// SimilarMovies returns up to ten movies similar to the given title.
	SimilarMovies(ctx context.Context, title string) ([]models.Movie, error)

	// GenreRecommendations returns the top ten movies of a genre.
	GenreRecommendations(ctx context.Context, genre string) ([]models.Movie, error)

	// Recommend returns personalized recommendations for a user with an explanation of the blend.
	Recommend(ctx context.Context, userID string) (*models.Recommendations, error)

	// UserRatings returns every movie the user rated, with [models.Movie.Rating] set.
	UserRatings(ctx context.Context, userID string) ([]models.Movie, error)

	// RateMovie persists a rating in [1,5] for a movie.
	RateMovie(ctx context.Context, userID string, id models.MovieID, rating int) error

	// Login exchanges credentials for a session.
	Login(ctx context.Context, creds models.Credentials) (models.Session, error)

	// Signup creates an account and returns its session.
	Signup(ctx context.Context, creds models.Credentials) (models.Session, error)
}

var _ Gateway = (*APIService)(nil)
