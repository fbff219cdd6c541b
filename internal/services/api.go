// API service for the FilmRec recommendation HTTP API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "http://127.0.0.1:5001"
	maxSimilar      = 10
	requestIDHeader = "X-Request-ID"
)

// APIOptions configures an [APIService]. Zero values fall back to defaults.
type APIOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Limiter    *rate.Limiter
	Breaker    shared.BreakerConfig
	Logger     *log.Logger
}

// APIService implements [Gateway] over HTTP and also exposes raw GET/POST for debugging.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     atomic.Pointer[log.Logger]
}

// NewAPIService creates a new API service instance.
func NewAPIService(opts APIOptions) *APIService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	a := &APIService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		limiter:    opts.Limiter,
	}
	a.logger.Store(opts.Logger)
	a.breaker = newBreaker(opts.Breaker, a.log)
	return a
}

// SetLogger replaces the logger used for requests and breaker state changes.
// A nil logger discards output.
func (a *APIService) SetLogger(logger *log.Logger) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a.logger.Store(logger)
}

func (a *APIService) log() *log.Logger { return a.logger.Load() }

// NewAPIServiceFromConfig builds an [APIService] from the [shared.APIConfig] section.
func NewAPIServiceFromConfig(cfg shared.APIConfig, logger *log.Logger) *APIService {
	return NewAPIService(APIOptions{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout(),
		Limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		Breaker: cfg.Breaker,
		Logger:  logger,
	})
}

// newBreaker trips after FailureThreshold consecutive transport or 5xx failures.
// Client errors (4xx) are the caller's problem and do not count against the API.
func newBreaker(cfg shared.BreakerConfig, logger func() *log.Logger) *gobreaker.CircuitBreaker[[]byte] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "filmrec-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger().Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// BreakerState reports the circuit breaker state ("closed", "half-open" or "open").
func (a *APIService) BreakerState() string {
	return a.breaker.State().String()
}

// BaseURL returns the API base URL.
func (a *APIService) BaseURL() string { return a.baseURL }

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v (status %d): %s", shared.ErrAPIRequest, e.Code, e.Message)
	}
	return fmt.Sprintf("%v: status %d", shared.ErrAPIRequest, e.Code)
}

// Unwrap lets callers match [shared.ErrAPIRequest] and, for 404, [shared.ErrNotFound].
func (e *StatusError) Unwrap() []error {
	if e.Code == http.StatusNotFound {
		return []error{shared.ErrAPIRequest, shared.ErrNotFound}
	}
	return []error{shared.ErrAPIRequest}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.raw(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.raw(ctx, http.MethodPost, path, data)
}

// raw bypasses the breaker and status handling so any response can be inspected.
func (a *APIService) raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestIDHeader, shared.GenerateID())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: respBody}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// do sends a JSON request through the limiter and breaker and decodes a 2xx body into result.
func (a *APIService) do(ctx context.Context, method, endpoint string, payload, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrServiceUnavailable, err)
	}

	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	requestID := shared.GenerateID()
	logger := a.log().With("method", method, "endpoint", endpoint, "request_id", requestID)
	start := time.Now()

	body, err := a.breaker.Execute(func() ([]byte, error) {
		return a.send(ctx, method, endpoint, requestID, data)
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logger.Warn("request rejected by circuit breaker")
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	case err != nil:
		logger.Debug("request failed", "err", err, "elapsed", time.Since(start))
		return err
	}

	logger.Debug("request completed", "elapsed", time.Since(start))

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %s %s: %v", shared.ErrDecode, method, endpoint, err)
	}
	return nil
}

func (a *APIService) send(ctx context.Context, method, endpoint, requestID string, data []byte) ([]byte, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrInvalidInput, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrServiceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(respBody)}
	}

	return respBody, nil
}

// errorMessage extracts the server's "error" (or "detail") message from a failure body.
func errorMessage(body []byte) string {
	var errResp struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	return errResp.Detail
}

// userIDValue sends numeric user ids as JSON numbers, which the API expects, and anything else verbatim.
func userIDValue(userID string) any {
	if n, err := strconv.ParseInt(userID, 10, 64); err == nil {
		return n
	}
	return userID
}

// ListMovies calls GET /api/movies?search=&genre=&page=.
func (a *APIService) ListMovies(ctx context.Context, q models.MovieQuery) (*models.MovieList, error) {
	if q.Page < 1 {
		q.Page = 1
	}

	params := url.Values{}
	params.Set("search", q.Search)
	params.Set("genre", q.Genre)
	params.Set("page", strconv.Itoa(q.Page))

	var list models.MovieList
	if err := a.do(ctx, http.MethodGet, "/api/movies?"+params.Encode(), nil, &list); err != nil {
		return nil, err
	}
	if list.Page == 0 {
		list.Page = q.Page
	}
	return &list, nil
}

// GetMovie calls GET /api/movie/{id}.
func (a *APIService) GetMovie(ctx context.Context, id models.MovieID) (*models.Movie, error) {
	if !id.Valid() {
		return nil, shared.ErrMissingMovieID
	}

	var movie models.Movie
	if err := a.do(ctx, http.MethodGet, "/api/movie/"+id.String(), nil, &movie); err != nil {
		return nil, err
	}
	if !movie.HasID() {
		movie.ID = id
	}
	return &movie, nil
}

// SimilarMovies calls GET /api/similar/{title} and keeps at most ten results.
func (a *APIService) SimilarMovies(ctx context.Context, title string) ([]models.Movie, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}

	var movies []models.Movie
	if err := a.do(ctx, http.MethodGet, "/api/similar/"+url.PathEscape(title), nil, &movies); err != nil {
		return nil, err
	}
	if len(movies) > maxSimilar {
		movies = movies[:maxSimilar]
	}
	return movies, nil
}

// GenreRecommendations calls GET /api/recommend/genre/{genre}.
func (a *APIService) GenreRecommendations(ctx context.Context, genre string) ([]models.Movie, error) {
	if !models.IsGenre(genre) {
		return nil, fmt.Errorf("%w: unknown genre %q", shared.ErrInvalidInput, genre)
	}

	var movies []models.Movie
	if err := a.do(ctx, http.MethodGet, "/api/recommend/genre/"+url.PathEscape(genre), nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Recommend calls POST /api/recommend {user_id}.
func (a *APIService) Recommend(ctx context.Context, userID string) (*models.Recommendations, error) {
	if userID == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var recs models.Recommendations
	payload := map[string]any{"user_id": userIDValue(userID)}
	if err := a.do(ctx, http.MethodPost, "/api/recommend", payload, &recs); err != nil {
		return nil, err
	}
	return &recs, nil
}

// UserRatings calls GET /api/user/{id}/ratings.
//
// The endpoint answers with either a bare array of rated movies or {"ratings": [...]}.
func (a *APIService) UserRatings(ctx context.Context, userID string) ([]models.Movie, error) {
	if userID == "" {
		return nil, shared.ErrNotAuthenticated
	}

	var raw json.RawMessage
	if err := a.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(userID)+"/ratings", nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	var movies []models.Movie
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &movies); err != nil {
			return nil, fmt.Errorf("%w: ratings: %v", shared.ErrDecode, err)
		}
		return movies, nil
	}

	var wrapped struct {
		Ratings []models.Movie `json:"ratings"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: ratings: %v", shared.ErrDecode, err)
	}
	return wrapped.Ratings, nil
}

// RateMovie calls POST /api/rate {movie_id, rating, user_id}.
func (a *APIService) RateMovie(ctx context.Context, userID string, id models.MovieID, rating int) error {
	req := rateRequest{MovieID: int64(id), Rating: rating, UserID: userID}
	if err := validateStruct(req); err != nil {
		return err
	}

	payload := map[string]any{
		"movie_id": req.MovieID,
		"rating":   req.Rating,
		"user_id":  userIDValue(userID),
	}
	return a.do(ctx, http.MethodPost, "/api/rate", payload, nil)
}

// Login calls POST /api/login.
func (a *APIService) Login(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return a.authenticate(ctx, "/api/login", creds)
}

// Signup calls POST /api/signup.
func (a *APIService) Signup(ctx context.Context, creds models.Credentials) (models.Session, error) {
	return a.authenticate(ctx, "/api/signup", creds)
}

func (a *APIService) authenticate(ctx context.Context, endpoint string, creds models.Credentials) (models.Session, error) {
	creds = creds.Trimmed()
	if err := validateStruct(creds); err != nil {
		return models.Session{}, err
	}

	var resp struct {
		UserID   models.FlexString `json:"userId"`
		Username string            `json:"username"`
	}
	if err := a.do(ctx, http.MethodPost, endpoint, creds, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			return models.Session{}, fmt.Errorf("%w: %v", shared.ErrInvalidCredentials, err)
		}
		return models.Session{}, err
	}

	session := models.Session{ID: resp.UserID.String(), Username: resp.Username}
	if session.Username == "" {
		session.Username = creds.Username
	}
	if !session.Authenticated() {
		return models.Session{}, fmt.Errorf("%w: response carried no user id", shared.ErrDecode)
	}
	return session, nil
}
