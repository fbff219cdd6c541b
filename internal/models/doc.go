// Package models defines the data exchanged with the FilmRec recommendation API and the client-side session.
//
// The package contains two categories of types:
//
// 1. API payloads, consumed read-only:
//   - [Movie] : listing, detail and recommendation entries
//   - [MovieList] : one page of the filterable movie listing
//   - [Recommendations] : personalized results with an [Explanation]
//
// 2. Client state:
//   - [Session] : the logged-in user's identity
//   - [MovieID] : the canonical movie key used by the rating cache
//
// The API names a movie's identifier "id" in some responses and "movie_id" in others.
// [Movie] reconciles both while decoding, so no other package ever inspects the raw field names.
package models
