package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// each pooled connection would otherwise get its own empty in-memory database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// failingStore returns err from every operation.
type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingStore) Set(context.Context, string, string) error         { return f.err }
func (f failingStore) Remove(context.Context, string) error              { return f.err }

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		value, ok, err := NewLocalStorage(db).Get(ctx, "nothing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected missing key, got %q", value)
		}
	})

	t.Run("Set and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewLocalStorage(db)
		if err := store.Set(ctx, "k", "v1"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := store.Set(ctx, "k", "v2"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, ok, err := store.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("expected stored value, got ok=%v err=%v", ok, err)
		}
		if value != "v2" {
			t.Errorf("expected v2, got %q", value)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewLocalStorage(db)
		store.Set(ctx, "a", "1")
		store.Set(ctx, "b", "2")

		if err := store.Remove(ctx, "a"); err != nil {
			t.Fatalf("failed to remove: %v", err)
		}
		if err := store.Remove(ctx, "missing"); err != nil {
			t.Errorf("removing a missing key should succeed, got %v", err)
		}

		if _, ok, _ := store.Get(ctx, "a"); ok {
			t.Error("expected a to be removed")
		}
		if value, ok, _ := store.Get(ctx, "b"); !ok || value != "2" {
			t.Errorf("expected b to remain, got %q", value)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		store := NewLocalStorage(db)
		if _, _, err := store.Get(ctx, "k"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage from Get, got %v", err)
		}
		if err := store.Set(ctx, "k", "v"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage from Set, got %v", err)
		}
		if err := store.Remove(ctx, "k"); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage from Remove, got %v", err)
		}
	})
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Without Stored Session", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		session := NewSessionStore(NewLocalStorage(db), nil).Load(ctx)
		if session != (models.Session{}) {
			t.Errorf("expected unauthenticated session, got %+v", session)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		store := NewSessionStore(NewLocalStorage(db), nil)
		want := models.Session{ID: "944", Username: "ana"}

		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		if got := store.Load(ctx); got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("Survives Restart", func(t *testing.T) {
		cfg := shared.DatabaseConfig{Path: filepath.Join(t.TempDir(), "filmrec.db"), MaxOpenConns: 1, MaxIdleConns: 1}
		want := models.Session{ID: "7", Username: "bo"}

		db, err := shared.OpenDatabase(cfg)
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := NewSessionStore(NewLocalStorage(db), nil).Save(ctx, want); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		db.Close()

		db, err = shared.OpenDatabase(cfg)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		if got := NewSessionStore(NewLocalStorage(db), nil).Load(ctx); got != want {
			t.Errorf("expected %+v after restart, got %+v", want, got)
		}
	})

	t.Run("Save Unauthenticated Removes Key", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		storage := NewLocalStorage(db)
		store := NewSessionStore(storage, nil)
		store.Save(ctx, models.Session{ID: "1", Username: "ana"})

		if err := store.Save(ctx, models.Session{}); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if _, ok, _ := storage.Get(ctx, SessionKey); ok {
			t.Error("expected session key to be removed")
		}
	})

	t.Run("Save Rejects Half Session", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewSessionStore(NewLocalStorage(db), nil).Save(ctx, models.Session{ID: "1"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Load Falls Back On Bad Data", func(t *testing.T) {
		tc := []struct {
			name  string
			value string
			want  models.Session
		}{
			{name: "malformed json", value: "{not json"},
			{name: "wrong shape", value: `["ana"]`},
			{name: "id without username", value: `{"id": "3"}`},
			{name: "username without id", value: `{"username": "ana"}`},
			{name: "numeric id", value: `{"id": 3, "username": "ana"}`, want: models.Session{ID: "3", Username: "ana"}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				db := setupTestDB(t)
				defer db.Close()

				storage := NewLocalStorage(db)
				if err := storage.Set(ctx, SessionKey, tt.value); err != nil {
					t.Fatalf("failed to seed: %v", err)
				}

				var buf bytes.Buffer
				got := NewSessionStore(storage, shared.NewLogger(&buf)).Load(ctx)
				if got != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, got)
				}

				if tt.want.Authenticated() {
					return
				}
				if !strings.Contains(buf.String(), "ignoring stored session") {
					t.Errorf("expected a warning to be logged, got %q", buf.String())
				}
			})
		}
	})

	t.Run("Load With Broken Storage", func(t *testing.T) {
		var buf bytes.Buffer
		store := NewSessionStore(failingStore{err: shared.ErrStorage}, shared.NewLogger(&buf))

		if got := store.Load(ctx); got != (models.Session{}) {
			t.Errorf("expected unauthenticated session, got %+v", got)
		}
		if !strings.Contains(buf.String(), "could not read stored session") {
			t.Errorf("expected warning, got %q", buf.String())
		}
		if err := store.Save(ctx, models.Session{ID: "1", Username: "a"}); !errors.Is(err, shared.ErrStorage) {
			t.Errorf("expected ErrStorage from Save, got %v", err)
		}
	})
}
