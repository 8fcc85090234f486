package services

import (
	"context"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

// Service names as stored in session rows and printed in command output.
const (
	SpotifyServiceName = "spotify"
	TidalServiceName   = "tidal"
)

// SourceService is a catalog playlists are read from.
type SourceService interface {
	// Authenticate establishes a usable session. Credentials may carry an
	// "access_token" or "auth_code"; when empty, a stored session is loaded.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylists retrieves all playlists owned by or followed by the
	// authenticated user, following pagination until exhausted.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves metadata for a single playlist.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// GetPlaylistTracks retrieves the complete flattened track list for a
	// playlist. Entries with no track payload are dropped.
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error)

	// Name returns the service identifier, e.g. "spotify".
	Name() string
}

// DestinationService is a catalog playlists are written to.
type DestinationService interface {
	// Authenticate establishes a usable session. Credentials may carry an
	// "access_token"; when empty, a stored session is loaded.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CheckSession verifies the current session against the live API and
	// loads the account identity needed for playlist operations. Returns an
	// error wrapping [shared.ErrSessionInvalid] when the session is unusable.
	CheckSession(ctx context.Context) error

	// GetPlaylists retrieves all playlists owned by the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// CreatePlaylist creates an empty playlist and returns it.
	CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error)

	// DeletePlaylist removes a playlist by ID.
	DeletePlaylist(ctx context.Context, playlistID string) error

	// ReplacePlaylistTracks overwrites the playlist contents with the given
	// track IDs in order. An empty slice clears the playlist.
	ReplacePlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// SearchTracks runs a single catalog search and returns candidates in
	// catalog ranking order. Failures wrap [shared.ErrSearchFailed].
	SearchTracks(ctx context.Context, query string) ([]models.CandidateTrack, error)

	// Name returns the service identifier, e.g. "tidal".
	Name() string
}
