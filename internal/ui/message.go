package ui

import (
	"github.com/desertthunder/filmrec/internal/models"
)

// Responses carry the navigation token they were requested under; Update drops them once the user has moved on.

type startedMsg struct {
	err error
}

type moviesLoadedMsg struct {
	token uint64
	seq   int
	list  *models.MovieList
	err   error
}

// searchTickMsg fires when the search box has been idle for the debounce delay.
type searchTickMsg struct {
	seq int
}

type genreLoadedMsg struct {
	token  uint64
	genre  string
	movies []models.Movie
	err    error
}

type movieLoadedMsg struct {
	token   uint64
	details *models.Movie
	similar []models.Movie
	err     error
}

type recsLoadedMsg struct {
	token uint64
	recs  *models.Recommendations
	err   error
}

type rateDoneMsg struct {
	movie  models.Movie
	rating int
	err    error
}

type authDoneMsg struct {
	session models.Session
	signup  bool
	err     error
}
