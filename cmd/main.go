package main

import (
	"context"
	"os"

	"github.com/desertthunder/filmrec/internal/repositories"
	"github.com/desertthunder/filmrec/internal/services"
	"github.com/desertthunder/filmrec/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring config.toml", "error", err)
		}
	}
	if err := config.ApplyEnv(".env"); err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	apiService := services.NewAPIServiceFromConfig(config.API, shared.WithLogger(logger, "api", config.API.BaseURL))

	opts := RunnerOpts{
		Config: config,
		API:    apiService,
		Logger: logger,
	}

	dbConfig := config.Database
	dbConfig.Path = shared.ExpandHome(dbConfig.Path)
	if db, err := shared.OpenDatabase(dbConfig); err == nil {
		defer db.Close()
		opts.Store = repositories.NewLocalStorage(db)
	} else {
		logger.Warn("local storage unavailable, sessions will not be remembered", "error", err)
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "filmrec",
		Usage:    "Browse, rate and get recommendations for movies",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
