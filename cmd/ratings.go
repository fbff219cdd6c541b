package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/desertthunder/filmrec/internal/state"
	"github.com/urfave/cli/v3"
)

// Recommend prints personalized recommendations and the recommender's explanation.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	session, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	recs, err := r.gateway.Recommend(ctx, session.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(recs, true)
	}

	r.writePlainHeader("Recommended for " + session.Username)
	return r.writePlain("%s", formatter.Recommendations(recs))
}

// Rate sends a 1-5 rating for a movie.
func (r *Runner) Rate(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseMovieID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	raw := strings.TrimSpace(cmd.StringArg("rating"))
	if raw == "" {
		return fmt.Errorf("%w: rating", shared.ErrMissingArgument)
	}
	rating, err := strconv.Atoi(raw)
	if err != nil || !state.ValidRating(rating) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidRating, raw)
	}

	r.start(ctx)
	if err := r.app.Rate(ctx, models.Movie{ID: id}, rating); err != nil {
		return err
	}

	r.logger.Info("rating saved", "movie", id, "rating", rating)
	return r.writePlain("✓ Rated %s %s\n", id, formatter.Stars(rating))
}

// Ratings lists the user's rated movies or exports them with --format and --output.
func (r *Runner) Ratings(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	session, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	movies, err := r.gateway.UserRatings(ctx, session.ID)
	if err != nil {
		return err
	}

	export := &formatter.Export{
		Title:       session.Username + "'s ratings",
		Description: fmt.Sprintf("%d rated movies", len(movies)),
		Movies:      movies,
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(export, format, path, "")
		if err != nil {
			return err
		}
		r.logger.Info("ratings exported", "path", written, "format", format)
		return r.writePlain("✓ Exported %d ratings to %s\n", len(movies), written)
	}

	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
