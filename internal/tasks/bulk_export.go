package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk genre exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format (default: text)
	OutputDir  string           // Base output directory (default: filmrec_genres_{epoch})
	Genres     []string         // Genres to export (default: all)
	NumWorkers int              // Concurrent writers (default: 5, max 10)
	RateLimit  float64          // Requests per second (default: 5)
}

type genreJob struct {
	index  int
	genre  string
	movies []models.Movie
}

type indexedResult struct {
	index int
	GenreExportResult
}

// BulkExport fetches each genre's top list and writes one file per genre plus a manifest.
//
// Fetches are rate limited and run one at a time; writes fan out to a worker pool. A genre that fails
// to fetch or write is recorded in the result and does not stop the others.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}
	if len(opts.Genres) == 0 {
		opts.Genres = models.Genres
	}
	for _, g := range opts.Genres {
		if !models.IsGenre(g) {
			return nil, fmt.Errorf("%w: unknown genre %q", shared.ErrInvalidInput, g)
		}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("filmrec_genres_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(opts.Genres)
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan genreJob, total)
	results := make(chan indexedResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(&wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, genre := range opts.Genres {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingGenreUpdate(i+1, total, genre))
			movies, err := e.gateway.GenreRecommendations(ctx, genre)
			if err != nil {
				e.logger.Warn("genre fetch failed", "genre", genre, "err", err)
				results <- indexedResult{index: i, GenreExportResult: failed(genre, fmt.Errorf("failed to fetch: %w", err))}
				continue
			}
			jobs <- genreJob{index: i, genre: genre, movies: movies}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	ordered := make([]*GenreExportResult, total)
	completed := 0
	for res := range results {
		completed++
		r := res.GenreExportResult
		ordered[res.index] = &r
		if r.Success {
			e.sendProgress(prog, exportCompletedUpdate(completed, total, r))
		} else {
			e.sendProgress(prog, exportFailedUpdate(completed, total, r))
		}
	}

	result := &BulkExportResult{
		Format:          string(opts.Format),
		TotalGenres:     total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]GenreExportResult, 0, total),
	}
	for i, r := range ordered {
		if r == nil {
			// never fetched because ctx was cancelled
			r = &GenreExportResult{Genre: opts.Genres[i]}
			if err := ctx.Err(); err != nil {
				*r = failed(opts.Genres[i], err)
			}
		}
		if r.Success {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}
		result.Results = append(result.Results, *r)
	}

	e.sendProgress(prog, ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: "Writing manifest"})
	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, ctx.Err()
}

func (e *Exporter) exportWorker(wg *sync.WaitGroup, jobs <-chan genreJob, results chan<- indexedResult, opts BulkExportOpts) {
	defer wg.Done()
	for job := range jobs {
		results <- indexedResult{index: job.index, GenreExportResult: e.exportGenre(job, opts)}
	}
}

func (e *Exporter) exportGenre(j genreJob, opts BulkExportOpts) GenreExportResult {
	export := &formatter.Export{
		Title:       "Top " + j.genre + " movies",
		Description: fmt.Sprintf("%d recommendations", len(j.movies)),
		Movies:      j.movies,
	}

	path, err := formatter.WriteExport(export, opts.Format, "", filepath.Join(opts.OutputDir, GenreSlug(j.genre)))
	if err != nil {
		return failed(j.genre, err)
	}
	return GenreExportResult{Genre: j.genre, Movies: len(j.movies), File: path, Success: true}
}

func failed(genre string, err error) GenreExportResult {
	return GenreExportResult{Genre: genre, Error: err, ErrorMessage: err.Error()}
}

// GenreSlug turns a genre into a file name: "Children's" becomes "childrens", "Sci-Fi" becomes "sci-fi".
func GenreSlug(genre string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(genre) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteRune('-')
		}
	}
	return b.String()
}
