// Package services defines the [Gateway] interface for the FilmRec recommendation API and implements it over HTTP.
//
// # API Service
//
// [APIService] issues JSON requests against a configurable base URL. Each call:
//   - validates its input with go-playground/validator before touching the network
//   - waits on a client-side token bucket (golang.org/x/time/rate)
//   - runs inside a gobreaker circuit breaker, so a dead API fails fast
//   - carries an X-Request-ID header for correlating client and server logs
//
// # Identifier Normalization
//
// The API labels movie identifiers "id" or "movie_id" depending on the endpoint.
// Decoding into [models.Movie] resolves both, so callers only ever see [models.Movie.ID].
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrInvalidInput] : request rejected before sending
//   - [shared.ErrServiceUnavailable] : transport failure or open circuit breaker
//   - [shared.ErrAPIRequest] : non-2xx response, see [StatusError]
//   - [shared.ErrNotFound] : 404 response
//   - [shared.ErrInvalidCredentials] : login rejected
//   - [shared.ErrDecode] : response body did not match the expected shape
package services
