// package models defines the data model for the FilmRec client
package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// PlaceholderImageURL is shown in place of missing or placeholder posters.
const PlaceholderImageURL = "https://placehold.co/500x750/1e293b/94a3b8?text="

// Genres lists the genres the API can filter and recommend by.
var Genres = []string{
	"Action", "Adventure", "Animation", "Children's", "Comedy", "Crime",
	"Documentary", "Drama", "Fantasy", "Film-Noir", "Horror", "Musical",
	"Mystery", "Romance", "Sci-Fi", "Thriller", "War", "Western",
}

// IsGenre reports whether name is one of [Genres].
func IsGenre(name string) bool {
	for _, g := range Genres {
		if g == name {
			return true
		}
	}
	return false
}

// Movie is a movie as returned by any API endpoint.
//
// Only Title and ID are guaranteed; detail and recommendation fields are set by the endpoints that know them.
type Movie struct {
	ID          MovieID    `json:"id"`
	Title       string     `json:"title"`
	PosterURL   string     `json:"poster_url,omitempty"`
	Overview    string     `json:"overview,omitempty"`
	Genres      []string   `json:"genres,omitempty"`
	ReleaseDate string     `json:"release_date,omitempty"`
	Year        FlexString `json:"year,omitempty"`
	Runtime     FlexString `json:"runtime,omitempty"`
	Director    string     `json:"director,omitempty"`
	Cast        []string   `json:"cast,omitempty"`
	IMDbRating  FlexString `json:"imdb_rating,omitempty"`
	IMDbURL     string     `json:"imdb_url,omitempty"`
	ModelUsed   string     `json:"model_used,omitempty"`
	Score       float64    `json:"score,omitempty"`
	Rating      float64    `json:"rating,omitempty"` // the user's own rating, set by the ratings endpoint
}

// movieFields has Movie's fields without its methods, so decoding into it does not recurse.
type movieFields Movie

// UnmarshalJSON decodes a movie, resolving its identifier from "id" or, when that is absent or zero, "movie_id".
func (m *Movie) UnmarshalJSON(data []byte) error {
	aux := struct {
		*movieFields
		ID      MovieID `json:"id"`
		MovieID MovieID `json:"movie_id"`
	}{movieFields: (*movieFields)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	m.ID = aux.ID
	if !m.ID.Valid() {
		m.ID = aux.MovieID
	}
	return nil
}

// HasID reports whether the movie carries a usable identifier.
func (m Movie) HasID() bool { return m.ID.Valid() }

// Poster returns the poster URL, or a title placeholder when the API has none.
func (m Movie) Poster() string {
	if m.PosterURL != "" && !strings.Contains(m.PosterURL, "placeholder") {
		return m.PosterURL
	}

	text := "No+Image"
	if m.Title != "" {
		title := []rune(m.Title)
		if len(title) > 20 {
			title = title[:20]
		}
		text = url.QueryEscape(string(title))
	}
	return PlaceholderImageURL + text
}

// KnownReleaseDate returns the release date unless the API reported it as unknown.
func (m Movie) KnownReleaseDate() string {
	if strings.EqualFold(m.ReleaseDate, "unknown") {
		return ""
	}
	return m.ReleaseDate
}

// MovieQuery filters the movie listing.
type MovieQuery struct {
	Search string
	Genre  string
	Page   int
}

// MovieList is one page of the movie listing.
type MovieList struct {
	Movies      []Movie `json:"movies"`
	TotalMovies int     `json:"total_movies"`
	Page        int     `json:"page"`
	TotalPages  int     `json:"total_pages"`
}

// ModelWeight is one model's share of a blended recommendation.
//
// The API encodes it as a two element array: ["collaborative", 0.6].
type ModelWeight struct {
	Model  string
	Weight float64
}

// UnmarshalJSON accepts the [name, weight] pair form and the {"model": ..., "weight": ...} object form.
func (w *ModelWeight) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("model weight: expected 2 elements, got %d", len(pair))
		}
		if err := json.Unmarshal(pair[0], &w.Model); err != nil {
			return fmt.Errorf("model weight name: %w", err)
		}
		if err := json.Unmarshal(pair[1], &w.Weight); err != nil {
			return fmt.Errorf("model weight value: %w", err)
		}
		return nil
	}

	var obj struct {
		Model  string  `json:"model"`
		Weight float64 `json:"weight"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("model weight: %w", err)
	}
	w.Model, w.Weight = obj.Model, obj.Weight
	return nil
}

// MarshalJSON encodes the weight in the API's pair form.
func (w ModelWeight) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{w.Model, w.Weight})
}

// Explanation describes how the hybrid recommender blended its models for a user.
type Explanation struct {
	UserID      FlexString    `json:"user_id"`
	Category    string        `json:"category"`
	RatingCount int           `json:"rating_count,omitempty"`
	Strategy    string        `json:"strategy"`
	ModelsUsed  []ModelWeight `json:"models_used"`
}

// Recommendations is the personalized recommendation response.
type Recommendations struct {
	Recommendations []Movie      `json:"recommendations"`
	Explanation     *Explanation `json:"explanation"`
}
