package ui

import (
	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/tasks"
)

// playlistsFetchedMsg carries the source playlist listing, or the error that
// prevented it.
type playlistsFetchedMsg struct {
	playlists []models.Playlist
	err       error
}

// tracksFetchedMsg carries the track preview for one selected playlist.
type tracksFetchedMsg struct {
	playlist models.Playlist
	tracks   []models.SourceTrack
	err      error
}

// progressUpdateMsg forwards one engine progress update into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// syncCompleteMsg carries the final result of a sync run.
type syncCompleteMsg struct {
	result *models.SyncResult
	err    error
}
