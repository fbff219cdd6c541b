package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
)

// SessionKey is the storage key holding the current user.
const SessionKey = "filmrec.currentUser"

// SessionStore persists the current [models.Session] across restarts.
type SessionStore struct {
	store  KeyValueStore
	logger *log.Logger
}

// NewSessionStore creates a SessionStore backed by store. A nil logger discards warnings.
func NewSessionStore(store KeyValueStore, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SessionStore{store: store, logger: logger}
}

// storedSession accepts ids the API handed out as numbers.
type storedSession struct {
	ID       models.FlexString `json:"id"`
	Username string            `json:"username"`
}

// Load returns the stored session, or the unauthenticated session when nothing usable is stored.
//
// Unreadable storage, malformed JSON and half-set sessions are logged and treated as logged out.
func (s *SessionStore) Load(ctx context.Context) models.Session {
	raw, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		s.logger.Warn("could not read stored session", "err", err)
		return models.Session{}
	}
	if !ok || raw == "" {
		return models.Session{}
	}

	var stored storedSession
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn("ignoring stored session", "err", fmt.Errorf("%w: %v", shared.ErrMalformedSession, err))
		return models.Session{}
	}

	session := models.Session{ID: stored.ID.String(), Username: stored.Username}
	if !session.Valid() {
		s.logger.Warn("ignoring stored session", "err", fmt.Errorf("%w: id and username must both be set", shared.ErrMalformedSession))
		return models.Session{}
	}
	return session
}

// Save persists session, or removes the stored value when session is unauthenticated.
func (s *SessionStore) Save(ctx context.Context, session models.Session) error {
	if !session.Authenticated() {
		return s.store.Remove(ctx, SessionKey)
	}
	if !session.Valid() {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.store.Set(ctx, SessionKey, string(data))
}
