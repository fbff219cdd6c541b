package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolveGenre matches name against the known genres ignoring case. Empty stays empty.
func resolveGenre(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	for _, g := range models.Genres {
		if strings.EqualFold(g, name) {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: unknown genre %q (one of %s)", shared.ErrInvalidFlag, name, strings.Join(models.Genres, ", "))
}

// MoviesList prints one page of the catalogue with the user's ratings beside each title.
func (r *Runner) MoviesList(ctx context.Context, cmd *cli.Command) error {
	genre, err := resolveGenre(cmd.String("genre"))
	if err != nil {
		return err
	}
	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
	}

	query := models.MovieQuery{Search: strings.TrimSpace(cmd.String("search")), Genre: genre, Page: page}
	r.logger.Debug("listing movies", "search", query.Search, "genre", query.Genre, "page", query.Page)

	r.start(ctx)
	list, err := r.gateway.ListMovies(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, cmd.Bool("pretty"))
	}

	if len(list.Movies) == 0 {
		return r.writePlain("No movies found.\n")
	}

	r.writePlain("%d movies, page %d of %d\n\n", list.TotalMovies, list.Page, list.TotalPages)
	r.writePlain("%s", formatter.MovieList(list.Movies, r.app.Ratings.Snapshot()))
	if pager := formatter.Pager(list.Page, list.TotalPages); pager != "" {
		r.writePlainln("%s", pager)
	}
	return nil
}

// MoviesShow prints a movie's details, optionally with similar titles and a saved poster.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseMovieID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.start(ctx)
	movie, err := r.gateway.GetMovie(ctx, id)
	if err != nil {
		return err
	}

	var similar []models.Movie
	if cmd.Bool("similar") {
		if similar, err = r.gateway.SimilarMovies(ctx, movie.Title); err != nil {
			r.logger.Warn("could not load similar movies", "title", movie.Title, "err", err)
		}
	}

	if path := cmd.String("poster"); path != "" {
		if err := r.savePoster(*movie, path); err != nil {
			r.logger.Warn("could not save poster", "err", err)
		}
	}

	if cmd.Bool("json") {
		if cmd.Bool("similar") {
			return r.writeJSON(map[string]any{"movie": movie, "similar": similar}, cmd.Bool("pretty"))
		}
		return r.writeJSON(movie, cmd.Bool("pretty"))
	}

	rating, _ := r.app.RatingFor(*movie)
	r.writePlainHeader(movie.Title)
	r.writePlain("%s", formatter.MovieDetail(*movie, rating))

	if len(similar) > 0 {
		r.writePlainln("Similar movies")
		r.writePlain("%s", formatter.MovieList(similar, r.app.Ratings.Snapshot()))
	}
	return nil
}

func (r *Runner) savePoster(movie models.Movie, path string) error {
	data, err := formatter.DownloadImage(movie.Poster())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write poster: %w", err)
	}
	r.logger.Info("poster saved", "path", path)
	return r.writePlain("✓ Poster saved to %s\n", path)
}

// MoviesSimilar prints up to ten movies similar to a title.
func (r *Runner) MoviesSimilar(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return fmt.Errorf("%w: title", shared.ErrMissingArgument)
	}

	r.start(ctx)
	movies, err := r.gateway.SimilarMovies(ctx, title)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	if len(movies) == 0 {
		return r.writePlain("No similar movies found for %q.\n", title)
	}
	r.writePlain("Movies similar to %s\n\n", title)
	return r.writePlain("%s", formatter.MovieList(movies, r.app.Ratings.Snapshot()))
}

// MoviesGenre prints the top movies for a genre.
func (r *Runner) MoviesGenre(ctx context.Context, cmd *cli.Command) error {
	genre, err := resolveGenre(cmd.StringArg("genre"))
	if err != nil {
		return err
	}
	if genre == "" {
		return fmt.Errorf("%w: genre", shared.ErrMissingArgument)
	}

	r.start(ctx)
	movies, err := r.gateway.GenreRecommendations(ctx, genre)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(movies, cmd.Bool("pretty"))
	}
	r.writePlain("Top %s movies\n\n", genre)
	return r.writePlain("%s", formatter.MovieList(movies, r.app.Ratings.Snapshot()))
}
