package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Rovitz/spotify2tidal/internal/repositories"
	"github.com/Rovitz/spotify2tidal/internal/services"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load %s, using defaults: %v", configPath, err)
		}
	}

	var db *sql.DB
	var store services.SessionStore
	if opened, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(opened, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		db = opened
		store = repositories.NewSessionRepository(db)
	} else {
		logger.Warnf("database unavailable, sessions will not persist: %v", err)
	}

	var spotify *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), store); err == nil {
			spotify = svc
		}
	}

	var tidal *services.TidalService
	if config.Credentials.Tidal.ClientID != "" && config.Credentials.Tidal.ClientSecret != "" {
		if svc, err := services.NewTidalService(config.Credentials.Tidal.Map(), store); err == nil {
			if config.Sync.SearchLimit > 0 {
				svc.SetSearchLimit(config.Sync.SearchLimit)
			}
			tidal = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotify,
		Tidal:      tidal,
		DB:         db,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "s2t",
		Usage:    "Reconcile Spotify playlists onto Tidal",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
