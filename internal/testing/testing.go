// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/filmrec/internal/models"
)

// RateCall records a single RateMovie invocation on [MockGateway].
type RateCall struct {
	UserID  string
	MovieID models.MovieID
	Rating  int
}

// MockGateway is a test double for services.Gateway.
//
// Each method returns the matching canned value or error. Calls are counted so tests can assert that no request was made.
type MockGateway struct {
	mu sync.Mutex

	MovieList   *models.MovieList
	Movie       *models.Movie
	Similar     []models.Movie
	Genre       []models.Movie
	Recs        *models.Recommendations
	Ratings     []models.Movie
	RatingsByID map[string][]models.Movie
	Session     models.Session

	ListErr    error
	MovieErr   error
	SimilarErr error
	GenreErr   error
	RecsErr    error
	RatingsErr error
	RateErr    error
	AuthErr    error

	// RateHook runs inside RateMovie before it returns, letting tests observe optimistic state mid-flight.
	RateHook func()

	Calls     map[string]int
	RateCalls []RateCall
	LastQuery models.MovieQuery
}

// NewMockGateway returns a [MockGateway] with an initialized call counter.
func NewMockGateway() *MockGateway {
	return &MockGateway{Calls: map[string]int{}, RatingsByID: map[string][]models.Movie{}}
}

func (m *MockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = map[string]int{}
	}
	m.Calls[name]++
}

// CallCount returns how many times the named method ran.
func (m *MockGateway) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[name]
}

// TotalCalls returns the number of calls across every method.
func (m *MockGateway) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

func (m *MockGateway) ListMovies(ctx context.Context, q models.MovieQuery) (*models.MovieList, error) {
	m.record("ListMovies")
	m.mu.Lock()
	m.LastQuery = q
	m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if m.MovieList == nil {
		return &models.MovieList{Page: q.Page, TotalPages: 1}, nil
	}
	return m.MovieList, nil
}

func (m *MockGateway) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	m.record("GetMovie")
	if m.MovieErr != nil {
		return nil, m.MovieErr
	}
	if m.Movie == nil {
		return &models.Movie{ID: id, Title: "Movie " + id.String()}, nil
	}
	return m.Movie, nil
}

func (m *MockGateway) SimilarMovies(ctx context.Context, title string) ([]models.Movie, error) {
	m.record("SimilarMovies")
	return m.Similar, m.SimilarErr
}

func (m *MockGateway) GenreRecommendations(ctx context.Context, genre string) ([]models.Movie, error) {
	m.record("GenreRecommendations")
	return m.Genre, m.GenreErr
}

func (m *MockGateway) Recommend(ctx context.Context, userID string) (*models.Recommendations, error) {
	m.record("Recommend")
	if m.RecsErr != nil {
		return nil, m.RecsErr
	}
	if m.Recs == nil {
		return &models.Recommendations{}, nil
	}
	return m.Recs, nil
}

func (m *MockGateway) UserRatings(ctx context.Context, userID string) ([]models.Movie, error) {
	m.record("UserRatings")
	if m.RatingsErr != nil {
		return nil, m.RatingsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if byID, ok := m.RatingsByID[userID]; ok {
		return byID, nil
	}
	return m.Ratings, nil
}

func (m *MockGateway) RateMovie(ctx context.Context, userID string, id models.MovieID, rating int) error {
	m.record("RateMovie")
	m.mu.Lock()
	m.RateCalls = append(m.RateCalls, RateCall{UserID: userID, MovieID: id, Rating: rating})
	hook := m.RateHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return m.RateErr
}

func (m *MockGateway) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	m.record("Login")
	if m.AuthErr != nil {
		return models.Session{}, m.AuthErr
	}
	return m.Session, nil
}

func (m *MockGateway) Signup(ctx context.Context, creds models.Credentials) (models.Session, error) {
	m.record("Signup")
	if m.AuthErr != nil {
		return models.Session{}, m.AuthErr
	}
	return m.Session, nil
}

// MemoryStore is an in-memory key/value store with the same methods as repositories.LocalStorage.
type MemoryStore struct {
	mu   sync.Mutex
	Data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Data: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Data[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Data[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Data, key)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
