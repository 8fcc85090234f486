package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/services"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

// SyncEngine defines operations for reconciling playlists between services.
type SyncEngine interface {
	// SyncPlaylist fetches the playlist's source tracks, resolves them all
	// concurrently, and replaces the destination playlist's contents with the
	// resolved track IDs in one write.
	SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlist models.Playlist, destinationID string) (*models.SyncResult, error)

	// ReconcileAll runs the full loop over the configured source playlist
	// IDs, sequentially: look up the source playlist, delete a stale
	// same-named destination playlist, create a fresh one, and sync into it.
	ReconcileAll(ctx context.Context, progress chan<- ProgressUpdate, playlistIDs []string) ([]*models.SyncResult, error)
}

// ReconcileEngine implements [SyncEngine] over a source and a destination
// service. Playlist-level processing is strictly sequential; concurrency
// lives inside the resolver.
type ReconcileEngine struct {
	source      services.SourceService
	destination services.DestinationService
	resolver    *Resolver
	logger      *log.Logger
	dryRun      bool
}

// NewReconcileEngine creates an engine with the provided services and resolver.
func NewReconcileEngine(source services.SourceService, destination services.DestinationService, resolver *Resolver, logger *log.Logger) *ReconcileEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ReconcileEngine{
		source:      source,
		destination: destination,
		resolver:    resolver,
		logger:      logger,
	}
}

// SetDryRun makes the engine resolve tracks without touching the destination:
// no deletes, no creates, no writes.
func (e *ReconcileEngine) SetDryRun(enabled bool) {
	e.dryRun = enabled
}

// SyncPlaylist syncs one source playlist into the destination playlist with
// the given ID. The destination write happens exactly once, after every
// resolution has completed; an empty plan still clears the destination.
func (e *ReconcileEngine) SyncPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlist models.Playlist, destinationID string) (*models.SyncResult, error) {
	if e.source == nil || e.destination == nil {
		return nil, fmt.Errorf("%w: engine services not initialized", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, fetchingSourceUpdate(playlist.Name))

	tracks, err := e.source.GetPlaylistTracks(ctx, playlist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks for %q: %w", playlist.Name, err)
	}

	sendProgress(progress, fetchedSourceUpdate(playlist, len(tracks)))
	sendProgress(progress, searchStartedUpdate(len(tracks)))

	outcomes := e.resolver.ResolveAll(ctx, progress, tracks)

	plan := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Found {
			plan = append(plan, outcome.TrackID)
		}
	}

	result := &models.SyncResult{
		Playlist:      playlist,
		Tracks:        tracks,
		Outcomes:      outcomes,
		Written:       len(plan),
		Missed:        len(tracks) - len(plan),
		DestinationID: destinationID,
	}

	if e.dryRun {
		e.logger.Info("dry run, skipping destination write", "playlist", playlist.Name, "would_write", len(plan), "missed", result.Missed)
		return result, nil
	}

	sendProgress(progress, writeTracksUpdate(len(plan), playlist.Name))

	if err := e.destination.ReplacePlaylistTracks(ctx, destinationID, plan); err != nil {
		return result, fmt.Errorf("failed to write destination playlist %q: %w", playlist.Name, err)
	}

	e.logger.Info("playlist synced", "playlist", playlist.Name, "written", len(plan), "missed", result.Missed)
	return result, nil
}

// ReconcileAll processes the configured source playlists in listed order. A
// playlist whose source lookup fails is logged and skipped; destination
// failures abort the run.
func (e *ReconcileEngine) ReconcileAll(ctx context.Context, progress chan<- ProgressUpdate, playlistIDs []string) ([]*models.SyncResult, error) {
	if e.source == nil || e.destination == nil {
		return nil, fmt.Errorf("%w: engine services not initialized", shared.ErrServiceUnavailable)
	}

	results := make([]*models.SyncResult, 0, len(playlistIDs))

	for _, playlistID := range playlistIDs {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		playlist, err := e.source.GetPlaylist(ctx, playlistID)
		if err != nil {
			e.logger.Warn("skipping playlist, source lookup failed", "playlist", playlistID, "error", err)
			continue
		}

		destinationID, err := e.prepareDestination(ctx, progress, playlist)
		if err != nil {
			return results, err
		}

		result, err := e.SyncPlaylist(ctx, progress, *playlist, destinationID)
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	return results, nil
}

// prepareDestination deletes the first destination playlist whose name
// exactly equals the source playlist's name, then creates a fresh one with
// the source name and description. The existing-playlist list is refetched on
// every call so repeated reconciliations never accumulate duplicates.
func (e *ReconcileEngine) prepareDestination(ctx context.Context, progress chan<- ProgressUpdate, playlist *models.Playlist) (string, error) {
	if e.dryRun {
		return "", nil
	}

	existing, err := e.destination.GetPlaylists(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list destination playlists: %w", err)
	}

	for _, candidate := range existing {
		if candidate.Name == playlist.Name {
			sendProgress(progress, deleteStaleUpdate(candidate))
			if err := e.destination.DeletePlaylist(ctx, candidate.ID); err != nil {
				return "", fmt.Errorf("failed to delete stale playlist %q: %w", candidate.Name, err)
			}
			break
		}
	}

	created, err := e.destination.CreatePlaylist(ctx, playlist.Name, playlist.Description)
	if err != nil {
		return "", fmt.Errorf("failed to create destination playlist %q: %w", playlist.Name, err)
	}

	sendProgress(progress, createPlaylistUpdate(created))
	return created.ID, nil
}
