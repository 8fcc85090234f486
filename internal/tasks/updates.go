package tasks

import (
	"fmt"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	SearchTracks
	DeleteStale
	CreatePlaylist
	WriteTracks
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case SearchTracks:
		return "search_tracks"
	case DeleteStale:
		return "delete_stale"
	case CreatePlaylist:
		return "create_playlist"
	case WriteTracks:
		return "write_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func fetchingSourceUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %q from Spotify...", name),
	}
}

func fetchedSourceUpdate(playlist models.Playlist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", playlist.Name, trackCount),
		Data:    playlist,
	}
}

func searchStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    0,
		Total:   total,
		Message: "Searching for tracks on Tidal...",
	}
}

func trackResolvedUpdate(step, total int, track models.SourceTrack, found bool) ProgressUpdate {
	mark := "✓"
	if !found {
		mark = "✗"
	}

	label := track.Title
	if len(track.Artists) > 0 {
		label = fmt.Sprintf("%s - %s", track.Artists[0].Name, track.Title)
	}

	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, label),
	}
}

func deleteStaleUpdate(playlist models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteStale,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deleting stale playlist: %s (ID: %s)", playlist.Name, playlist.ID),
	}
}

func createPlaylistUpdate(playlist *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", playlist.Name, playlist.ID),
		Data:    playlist,
	}
}

func writeTracksUpdate(count int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d tracks to %s...", count, name),
	}
}
