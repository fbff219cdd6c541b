package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/filmrec/internal/formatter"
	"github.com/desertthunder/filmrec/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportGenres writes every genre's top list to its own file with a manifest.
func (r *Runner) ExportGenres(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	genres := []string{}
	for _, g := range cmd.StringSlice("genre") {
		genre, err := resolveGenre(g)
		if err != nil {
			return err
		}
		genres = append(genres, genre)
	}

	prog := make(chan tasks.ProgressUpdate, 32)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range prog {
			r.logger.Debug("export progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if update.Phase == tasks.ExportGenre {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	exporter := tasks.NewExporter(r.gateway, r.logger)
	result, err := exporter.BulkExport(ctx, prog, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		Genres:     genres,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	close(prog)
	wg.Wait()

	if result != nil {
		r.writePlainln("Exported %d/%d genres to %s", result.SuccessfulExports, result.TotalGenres, result.OutputDirectory)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	if err != nil {
		return err
	}
	if result.FailedExports > 0 {
		return fmt.Errorf("%d genres failed to export", result.FailedExports)
	}
	return nil
}
