// Package repositories implements durable client-side storage on SQLite.
//
// Key Implementations:
//   - [LocalStorage] : string key/value table that outlives the process
//   - [SessionStore] : the logged-in user's identity, kept under a single key
//
// Reads never fail loudly for malformed data: a corrupt session is logged and treated as logged out.
package repositories
