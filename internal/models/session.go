package models

import "strings"

// Session is the authenticated user's identity as known to the client.
//
// The zero value is the unauthenticated session.
type Session struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Authenticated reports whether a user is logged in.
func (s Session) Authenticated() bool { return s.ID != "" }

// Valid reports whether ID and Username are both set or both empty.
func (s Session) Valid() bool { return (s.ID == "") == (s.Username == "") }

// Credentials are the username and password sent to the login and signup endpoints.
type Credentials struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// Trimmed returns the credentials with surrounding whitespace removed.
func (c Credentials) Trimmed() Credentials {
	return Credentials{Username: strings.TrimSpace(c.Username), Password: strings.TrimSpace(c.Password)}
}
