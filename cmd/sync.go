package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/report"
	"github.com/Rovitz/spotify2tidal/internal/repositories"
	"github.com/Rovitz/spotify2tidal/internal/shared"
	"github.com/Rovitz/spotify2tidal/internal/tasks"
)

// Sync reconciles the configured Spotify playlists onto Tidal.
//
// The destination session is verified up front and any failure there aborts
// the whole run; per-playlist source errors only skip that playlist.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := r.commandConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.spotify == nil {
		return fmt.Errorf("%w: spotify service not initialized, check credentials in config.toml", shared.ErrServiceUnavailable)
	}
	if r.tidal == nil {
		return fmt.Errorf("%w: tidal service not initialized, check credentials in config.toml", shared.ErrServiceUnavailable)
	}

	if err := r.spotify.Authenticate(ctx, nil); err != nil {
		return fmt.Errorf("%w: run 's2t spotify auth' first: %v", shared.ErrNotAuthenticated, err)
	}
	if err := r.tidal.Authenticate(ctx, nil); err != nil {
		return fmt.Errorf("%w: run 's2t tidal auth' first: %v", shared.ErrSessionInvalid, err)
	}
	if err := r.tidal.CheckSession(ctx); err != nil {
		return fmt.Errorf("tidal session check failed, run 's2t tidal auth': %w", err)
	}

	playlistIDs := cmd.StringSlice("playlist")
	if len(playlistIDs) == 0 {
		playlistIDs = config.Sync.Playlists
	}
	if len(playlistIDs) == 0 {
		r.writePlain("No playlists configured. Add playlist IDs under [sync] in config.toml or pass --playlist.\n")
		return nil
	}

	if workers := cmd.Int("workers"); workers > 0 {
		config.Sync.Workers = workers
	}

	engine := r.syncEngine(config, r.logger)

	dryRun := cmd.Bool("dry-run")
	if dryRun {
		engine.SetDryRun(true)
		r.writePlain("Dry run: resolving tracks without touching Tidal.\n\n")
	}

	r.logger.Info("starting sync", "playlists", len(playlistIDs), "workers", config.Sync.Workers, "dry_run", dryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	started := time.Now()
	results, err := engine.ReconcileAll(ctx, progressCh, playlistIDs)
	close(progressCh)
	<-printerDone

	if !dryRun {
		r.recordRuns(results)
	}

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete!")
	for _, result := range results {
		r.writePlain("%s: %d/%d tracks", result.Playlist.Name, result.Written, len(result.Tracks))
		if result.DestinationID != "" {
			r.writePlain(" → %s", result.DestinationID)
		}
		r.writePlain("\n")
	}
	r.writePlain("Finished in %s\n", time.Since(started).Round(time.Millisecond))

	if dryRun {
		for _, result := range results {
			r.writePlain("\n%s", report.OutcomeText(result))
		}
	} else {
		for _, result := range results {
			misses := result.MissedTracks()
			if len(misses) == 0 {
				continue
			}
			r.writePlain("\nNot found on Tidal in %q:\n", result.Playlist.Name)
			for _, miss := range misses {
				label := miss.Track.Title
				if len(miss.Track.Artists) > 0 {
					label = fmt.Sprintf("%s - %s", miss.Track.Artists[0].Name, miss.Track.Title)
				}
				r.writePlain("  %d. %s\n", miss.Position, label)
			}
		}
	}

	if path := cmd.String("report"); path != "" {
		count, err := report.WriteMissReport(results, path)
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Miss report written to %s (%d unresolved tracks)\n", path, count)
	}

	return nil
}

// SyncRuns lists recorded sync runs, most recent first.
func (r *Runner) SyncRuns(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized, run 's2t setup database'", shared.ErrServiceUnavailable)
	}

	criteria := map[string]any{}
	if limit := cmd.Int("limit"); limit > 0 {
		criteria["limit"] = limit
	}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = status
	}

	repo := repositories.NewSyncRunRepository(r.db)
	runs, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}

	if len(runs) == 0 {
		r.writePlain("No sync runs recorded.\n")
		return nil
	}

	for _, run := range runs {
		mark := "✓"
		if run.Status() != models.SyncRunCompleted {
			mark = "✗"
		}
		r.writePlain("%s #%d %s", mark, run.Sequence(), run.SourceName())
		if run.DestinationPlaylistID() != "" {
			r.writePlain(" → %s", run.DestinationPlaylistID())
		}
		r.writePlain("\n")
		r.writePlain("   %d/%d tracks, started %s\n", run.TracksFound(), run.TracksTotal(), run.StartedAt().Format(time.RFC822))
		if run.ErrorMessage() != "" {
			r.writePlain("   error: %s\n", run.ErrorMessage())
		}
	}

	return nil
}

// printProgress renders one engine update for the sync command's console view.
func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchSource:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.SearchTracks:
		if update.Step == 0 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.DeleteStale:
		r.writePlain("🗑  %s\n", update.Message)
	case tasks.CreatePlaylist:
		r.writePlain("📝 %s\n", update.Message)
	case tasks.WriteTracks:
		r.writePlain("\n📤 %s\n", update.Message)
	}
}

// recordRuns writes one sync_runs row per result. Recording failures are
// logged, never fatal: the sync itself already happened.
func (r *Runner) recordRuns(results []*models.SyncResult) {
	if r.db == nil || len(results) == 0 {
		return
	}

	repo := repositories.NewSyncRunRepository(r.db)
	for _, result := range results {
		run := models.NewSyncRun(0, result.Playlist.ID, result.Playlist.Name)
		run.Complete(result.DestinationID, len(result.Tracks), result.Written, result.Missed)
		if err := repo.Create(run); err != nil {
			r.logger.Warn("failed to record sync run", "playlist", result.Playlist.Name, "error", err)
		}
	}
}

// syncCommand runs the reconciliation and reports on past runs.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile Spotify playlists onto Tidal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Source playlist ID to sync (repeatable, overrides config)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent track resolutions (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve tracks without writing anything to Tidal",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write unresolved tracks to this CSV file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log per-search debug detail during the run",
			},
		},
		Action: r.Sync,
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List recorded sync runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status (running, completed, failed)",
					},
				},
				Action: r.SyncRuns,
			},
		},
	}
}
