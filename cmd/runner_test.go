package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/repositories"
	"github.com/desertthunder/filmrec/internal/services"
	"github.com/desertthunder/filmrec/internal/shared"
	tu "github.com/desertthunder/filmrec/internal/testing"
	"github.com/urfave/cli/v3"
)

const storedAnn = `{"id":"7","username":"ann"}`

type fixture struct {
	runner  *Runner
	gateway *tu.MockGateway
	store   *tu.MemoryStore
	output  *bytes.Buffer
}

func newFixture(t *testing.T, loggedIn bool) *fixture {
	t.Helper()
	gw := tu.NewMockGateway()
	store := tu.NewMemoryStore()
	if loggedIn {
		store.Data[repositories.SessionKey] = storedAnn
	}
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Gateway: gw,
		Store:   store,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return &fixture{runner: runner, gateway: gw, store: store, output: output}
}

// run executes args against the registered commands the way main does.
func (f *fixture) run(args ...string) error {
	root := &cli.Command{
		Name:      "filmrec",
		Commands:  f.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return root.Run(context.Background(), append([]string{"filmrec"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			api := services.NewAPIService(services.APIOptions{})
			gw := tu.NewMockGateway()
			store := tu.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				API:     api,
				Gateway: gw,
				Store:   store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
			if runner.gateway != gw {
				t.Error("expected gateway to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.app == nil || runner.app.Gateway != gw {
				t.Error("expected app to use the gateway")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil API builds one from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.BaseURL = "http://films.test/"
			runner := NewRunner(RunnerOpts{Config: config})

			if runner.api == nil {
				t.Fatal("expected api to be built")
			}
			if runner.api.BaseURL() != "http://films.test" {
				t.Errorf("expected base URL from config, got %s", runner.api.BaseURL())
			}
			if runner.gateway != runner.api {
				t.Error("expected gateway to default to the API service")
			}
		})

		t.Run("with nil store keeps sessions in memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Gateway: tu.NewMockGateway()})
			if runner.store == nil {
				t.Fatal("expected in-memory store")
			}
			if runner.app.Sessions == nil {
				t.Error("expected session store")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("SetLogger moves API logs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		config := shared.DefaultConfig()
		config.API.BaseURL = server.URL
		config.API.Breaker.FailureThreshold = 1

		stderr := &bytes.Buffer{}
		file := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(stderr), Output: io.Discard, Store: tu.NewMemoryStore()})
		runner.SetLogger(shared.NewLogger(file))

		if _, err := runner.app.Gateway.GetMovie(context.Background(), 1); err == nil {
			t.Fatal("expected server error")
		}
		runner.app.Gateway.GetMovie(context.Background(), 1)

		if !strings.Contains(file.String(), "circuit breaker state changed") {
			t.Errorf("expected breaker warning in swapped logger, got %q", file.String())
		}
		if !strings.Contains(file.String(), "request rejected by circuit breaker") {
			t.Errorf("expected rejection warning in swapped logger, got %q", file.String())
		}
		if stderr.Len() != 0 {
			t.Errorf("expected nothing on the original logger, got %q", stderr.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "movies", "recommend", "rate", "ratings", "export", "api", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %s, got %s", i, want[i], cmd.Name)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores the session", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Session = models.Session{ID: "7", Username: "ann"}
		f.gateway.Ratings = []models.Movie{{ID: 1, Title: "Heat", Rating: 4}}

		if err := f.run("auth", "login", "-u", " ann ", "-p", "secret"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(f.output.String(), "Logged in as ann (1 ratings)") {
			t.Errorf("unexpected output %q", f.output.String())
		}
		stored, ok := f.store.Data[repositories.SessionKey]
		if !ok || !strings.Contains(stored, `"ann"`) {
			t.Errorf("expected session to be stored, got %q", stored)
		}
	})

	t.Run("login failure stores nothing", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.AuthErr = shared.ErrInvalidCredentials

		err := f.run("auth", "login", "-u", "ann", "-p", "wrong")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
		if _, ok := f.store.Data[repositories.SessionKey]; ok {
			t.Error("expected no stored session")
		}
	})

	t.Run("login requires credentials", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("auth", "login", "-u", "ann"); err == nil {
			t.Fatal("expected error for missing password")
		}
		if f.gateway.TotalCalls() != 0 {
			t.Errorf("expected no requests, got %d", f.gateway.TotalCalls())
		}
	})

	t.Run("signup welcomes the user", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Session = models.Session{ID: "9", Username: "bob"}

		if err := f.run("auth", "signup", "-u", "bob", "-p", "pw"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if f.gateway.CallCount("Signup") != 1 {
			t.Errorf("expected one signup call, got %d", f.gateway.CallCount("Signup"))
		}
		if !strings.Contains(f.output.String(), "Welcome, bob") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("logout removes the session", func(t *testing.T) {
		f := newFixture(t, true)

		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := f.store.Data[repositories.SessionKey]; ok {
			t.Error("expected session to be removed")
		}
		if !strings.Contains(f.output.String(), "Logged out ann") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("logout when logged out", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Not logged in") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("status", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.Ratings = []models.Movie{{ID: 1, Rating: 5}, {ID: 2, Rating: 3}}

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.output.String()
		for _, want := range []string{"breaker closed", "✓ ann (id 7)", "Ratings: 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("status with malformed stored session", func(t *testing.T) {
		f := newFixture(t, false)
		f.store.Data[repositories.SessionKey] = `{"id":`

		if err := f.run("auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), `"authenticated": false`) {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})
}

func TestMoviesCommands(t *testing.T) {
	t.Run("list passes filters and shows ratings", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.Ratings = []models.Movie{{ID: 2, Rating: 4}}
		f.gateway.MovieList = &models.MovieList{
			Movies:      []models.Movie{{ID: 1, Title: "Heat"}, {ID: 2, Title: "Ronin"}},
			TotalMovies: 40,
			Page:        2,
			TotalPages:  4,
		}

		if err := f.run("movies", "list", "--search", " heat ", "--genre", "crime", "--page", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		q := f.gateway.LastQuery
		if q.Search != "heat" || q.Genre != "Crime" || q.Page != 2 {
			t.Errorf("unexpected query %+v", q)
		}
		out := f.output.String()
		if !strings.Contains(out, "[2] Ronin ★★★★☆") {
			t.Errorf("expected rating beside Ronin, got %q", out)
		}
		if !strings.Contains(out, "1 [2] 3 4") {
			t.Errorf("expected pager, got %q", out)
		}
	})

	t.Run("list rejects unknown genre", func(t *testing.T) {
		f := newFixture(t, false)

		err := f.run("movies", "list", "--genre", "Opera")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
		if f.gateway.CallCount("ListMovies") != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("list rejects page zero", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("movies", "list", "--page", "0"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("list empty", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("movies", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "No movies found.") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("list error is returned", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.ListErr = shared.ErrServiceUnavailable

		if err := f.run("movies", "list"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("show with similar", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Movie = &models.Movie{ID: 5, Title: "Alien", Genres: []string{"Horror"}}
		f.gateway.Similar = []models.Movie{{ID: 6, Title: "Aliens"}}

		if err := f.run("movies", "show", "--similar", "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "Alien") || !strings.Contains(out, "[6] Aliens") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("show survives similar failure", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Movie = &models.Movie{ID: 5, Title: "Alien"}
		f.gateway.SimilarErr = shared.ErrNotFound

		if err := f.run("movies", "show", "--similar", "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(f.output.String(), "Similar movies") {
			t.Error("expected no similar section")
		}
	})

	t.Run("show rejects bad id", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("movies", "show", "abc"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if f.gateway.TotalCalls() != 0 {
			t.Error("expected no requests")
		}
	})

	t.Run("show saves poster", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("png"))
		}))
		defer server.Close()

		f := newFixture(t, false)
		f.gateway.Movie = &models.Movie{ID: 5, Title: "Alien", PosterURL: server.URL + "/alien.jpg"}
		path := filepath.Join(t.TempDir(), "alien.jpg")

		if err := f.run("movies", "show", "--poster", path, "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := tu.MustReadFile(t, path); got != "png" {
			t.Errorf("expected poster bytes, got %q", got)
		}
	})

	t.Run("show json", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Movie = &models.Movie{ID: 5, Title: "Alien"}

		if err := f.run("movies", "show", "--json", "5"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), `"title": "Alien"`) {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("similar requires title", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("movies", "similar"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("genre resolves case", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Genre = []models.Movie{{ID: 3, Title: "Toy Story"}}

		if err := f.run("movies", "genre", "children's"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "Top Children's movies") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})
}

func TestRatingCommands(t *testing.T) {
	t.Run("rate sends rating", func(t *testing.T) {
		f := newFixture(t, true)

		if err := f.run("rate", "12", "4"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(f.gateway.RateCalls) != 1 {
			t.Fatalf("expected one rate call, got %d", len(f.gateway.RateCalls))
		}
		call := f.gateway.RateCalls[0]
		if call.UserID != "7" || call.MovieID != 12 || call.Rating != 4 {
			t.Errorf("unexpected call %+v", call)
		}
		if !strings.Contains(f.output.String(), "Rated 12 ★★★★☆") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("rate requires login", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("rate", "12", "4"); !errors.Is(err, shared.ErrLoginRequired) {
			t.Fatalf("expected ErrLoginRequired, got %v", err)
		}
		if f.gateway.CallCount("RateMovie") != 0 {
			t.Error("expected no rate call")
		}
	})

	t.Run("rate validates input", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{"bad id", []string{"rate", "x", "3"}, shared.ErrInvalidArgument},
			{"missing rating", []string{"rate", "12"}, shared.ErrMissingArgument},
			{"rating too high", []string{"rate", "12", "6"}, shared.ErrInvalidRating},
			{"rating not a number", []string{"rate", "12", "five"}, shared.ErrInvalidRating},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, true)
				if err := f.run(tt.args...); !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if f.gateway.CallCount("RateMovie") != 0 {
					t.Error("expected no rate call")
				}
			})
		}
	})

	t.Run("rate failure is returned", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.RateErr = shared.ErrServiceUnavailable

		if err := f.run("rate", "12", "4"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, ok := f.runner.app.Ratings.Get(12); ok {
			t.Error("expected rating to be rolled back")
		}
	})

	t.Run("recommend requires login", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("recommend"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if f.gateway.CallCount("Recommend") != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("recommend shows explanation", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.Recs = &models.Recommendations{
			Recommendations: []models.Movie{{ID: 1, Title: "Heat", ModelUsed: "svd"}},
			Explanation: &models.Explanation{
				UserID:     "7",
				Category:   "active",
				Strategy:   "hybrid",
				ModelsUsed: []models.ModelWeight{{Model: "svd", Weight: 0.6}},
			},
		}

		if err := f.run("recommend"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := f.output.String()
		for _, want := range []string{"Recommended for ann", "Strategy: hybrid", "60%", "[1] Heat via svd"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
	})

	t.Run("recommend with nothing to show", func(t *testing.T) {
		f := newFixture(t, true)

		if err := f.run("recommend"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(f.output.String(), "enough data") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("ratings csv to stdout", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.Ratings = []models.Movie{{ID: 1, Title: "Heat", Rating: 5}}

		if err := f.run("ratings", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(f.output.String(), "ID,Title,Year,Genres,Rating,Score") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("ratings export to file", func(t *testing.T) {
		f := newFixture(t, true)
		f.gateway.Ratings = []models.Movie{{ID: 1, Title: "Heat", Rating: 5}}
		path := filepath.Join(t.TempDir(), "ratings.md")

		if err := f.run("ratings", "-f", "md", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if got := tu.MustReadFile(t, path); !strings.Contains(got, "**Heat**") {
			t.Errorf("unexpected markdown %q", got)
		}
	})

	t.Run("ratings rejects unknown format", func(t *testing.T) {
		f := newFixture(t, true)

		if err := f.run("ratings", "--format", "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
		if f.gateway.TotalCalls() != 0 {
			t.Error("expected no requests")
		}
	})
}

func TestAPICommands(t *testing.T) {
	var lastMethod, lastPath, lastBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod, lastPath = r.Method, r.URL.Path
		body, _ := io.ReadAll(r.Body)
		lastBody = string(body)
		switch r.URL.Path {
		case "/api/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"nope"}`))
		case "/plain":
			w.Write([]byte("ok"))
		default:
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"movies":[]}`))
		}
	}))
	defer server.Close()

	newAPIFixture := func() (*Runner, *bytes.Buffer) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			API:    services.NewAPIService(services.APIOptions{BaseURL: server.URL}),
			Logger: shared.NewLogger(io.Discard),
			Output: output,
		})
		return runner, output
	}
	run := func(r *Runner, args ...string) error {
		root := &cli.Command{Name: "filmrec", Commands: r.register(), Writer: io.Discard, ErrWriter: io.Discard}
		return root.Run(context.Background(), append([]string{"filmrec"}, args...))
	}

	t.Run("get prints JSON", func(t *testing.T) {
		runner, output := newAPIFixture()

		if err := run(runner, "api", "get", "api/movies"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lastMethod != http.MethodGet || lastPath != "/api/movies" {
			t.Errorf("unexpected request %s %s", lastMethod, lastPath)
		}
		if !strings.Contains(output.String(), `"movies": []`) {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("get prints plain body", func(t *testing.T) {
		runner, output := newAPIFixture()

		if err := run(runner, "api", "get", "/plain"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "ok\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("get non-2xx", func(t *testing.T) {
		runner, _ := newAPIFixture()

		err := run(runner, "api", "get", "/api/missing")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "status 404") {
			t.Errorf("expected status in error, got %v", err)
		}
	})

	t.Run("get requires path", func(t *testing.T) {
		runner, _ := newAPIFixture()

		if err := run(runner, "api", "get"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("post sends body", func(t *testing.T) {
		runner, _ := newAPIFixture()

		if err := run(runner, "api", "post", "-d", `{"user_id":7}`, "/api/recommend"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if lastMethod != http.MethodPost || lastBody != `{"user_id":7}` {
			t.Errorf("unexpected request %s %q", lastMethod, lastBody)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		runner, _ := newAPIFixture()
		lastBody = ""

		if err := run(runner, "api", "post", "-d", "{nope", "/api/rate"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if lastBody != "" {
			t.Error("expected no request")
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes file", func(t *testing.T) {
		f := newFixture(t, false)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := f.run("setup", "config", "-c", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected written config to load, got %v", err)
		}
	})

	t.Run("config refuses to overwrite", func(t *testing.T) {
		f := newFixture(t, false)
		path := filepath.Join(t.TempDir(), "config.toml")
		os.WriteFile(path, []byte("keep"), 0644)

		if err := f.run("setup", "config", "-c", path); err == nil {
			t.Fatal("expected error for existing file")
		}
		if got := tu.MustReadFile(t, path); got != "keep" {
			t.Errorf("expected file untouched, got %q", got)
		}
	})

	t.Run("database migrates", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "filmrec.db")
		config := "[api]\nbase_url = \"http://x\"\n\n[database]\npath = \"" + filepath.ToSlash(dbPath) + "\"\n"
		if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
			t.Fatal(err)
		}

		f := newFixture(t, false)
		if err := f.run("setup", "database", "-c", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, dbPath)

		db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: dbPath})
		if err != nil {
			t.Fatalf("failed to open migrated database: %v", err)
		}
		defer db.Close()
		store := repositories.NewLocalStorage(db)
		if err := store.Set(context.Background(), "k", "v"); err != nil {
			t.Errorf("expected local_storage table, got %v", err)
		}
	})
}

func TestExportCommands(t *testing.T) {
	t.Run("genres writes one file each", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.Genre = []models.Movie{{ID: 1, Title: "Heat"}}
		dir := t.TempDir()

		if err := f.run("export", "genres", "-f", "csv", "-o", dir, "-g", "action", "-g", "sci-fi"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "action.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "sci-fi.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		if !strings.Contains(f.output.String(), "Exported 2/2 genres") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("genres reports failures", func(t *testing.T) {
		f := newFixture(t, false)
		f.gateway.GenreErr = shared.ErrServiceUnavailable

		err := f.run("export", "genres", "-o", t.TempDir(), "-g", "Drama")
		if err == nil || !strings.Contains(err.Error(), "1 genres failed") {
			t.Fatalf("expected failure count, got %v", err)
		}
	})

	t.Run("genres rejects unknown genre", func(t *testing.T) {
		f := newFixture(t, false)

		if err := f.run("export", "genres", "-g", "Opera"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Fatalf("expected ErrInvalidFlag, got %v", err)
		}
		if f.gateway.TotalCalls() != 0 {
			t.Error("expected no requests")
		}
	})
}
