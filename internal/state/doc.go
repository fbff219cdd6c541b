// Package state holds the client state shared by the TUI and CLI.
//
// Key Implementations:
//   - [RatingCache] : the user's ratings keyed by [models.MovieID], updated optimistically and rolled back on failure
//   - [Navigator] : current page and movie payload with a generation token for discarding stale responses
//   - [App] : owns the session, the caches and the API gateway
//
// bubbletea runs commands on their own goroutines, so every type here is safe for concurrent use.
package state
