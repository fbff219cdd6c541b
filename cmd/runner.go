package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/repositories"
	"github.com/desertthunder/filmrec/internal/services"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/desertthunder/filmrec/internal/state"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	api     *services.APIService
	gateway services.Gateway
	store   repositories.KeyValueStore
	app     *state.App
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	// API serves the raw api get/post commands and, when Gateway is nil, every other call.
	API     *services.APIService
	Gateway services.Gateway
	Store   repositories.KeyValueStore
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.API == nil {
		opts.API = services.NewAPIServiceFromConfig(opts.Config.API, opts.Logger)
	}
	if opts.Gateway == nil {
		opts.Gateway = opts.API
	}

	r := &Runner{
		config:  opts.Config,
		api:     opts.API,
		gateway: opts.Gateway,
		store:   opts.Store,
		logger:  opts.Logger,
		output:  opts.Output,
	}
	r.app = r.newApp(opts.Logger)
	return r
}

// newApp builds the client state. Without a store sessions only live for the current process.
func (r *Runner) newApp(logger *log.Logger) *state.App {
	if r.store == nil {
		r.store = newMemoryStore()
	}
	return state.NewApp(r.gateway, repositories.NewSessionStore(r.store, logger), logger)
}

// SetLogger replaces the logger used by the runner, its API client and its app state.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.api.SetLogger(shared.WithLogger(logger, "api", r.api.BaseURL()))
	r.app = r.newApp(logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, moviesCommand, recommendCommand, rateCommand, ratingsCommand, exportCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// start restores the stored session. A ratings failure only costs star display, so it is logged.
func (r *Runner) start(ctx context.Context) models.Session {
	if err := r.app.Start(ctx); err != nil {
		r.logger.Warn("could not load ratings", "err", err)
	}
	return r.app.Session()
}

// requireSession restores the stored session and fails when nobody is logged in.
func (r *Runner) requireSession(ctx context.Context) (models.Session, error) {
	session := r.start(ctx)
	if !session.Authenticated() {
		return session, fmt.Errorf("%w: run 'filmrec auth login' first", shared.ErrNotAuthenticated)
	}
	return session, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// memoryStore keeps sessions for a runner that was built without a database.
type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore { return &memoryStore{data: map[string]string{}} }

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
