// Package services implements the [SourceService] and [DestinationService]
// interfaces for Spotify and Tidal.
//
// # Service Interfaces
//
// The sync engine reads playlists through [SourceService] and writes them
// through [DestinationService], so it never touches provider JSON directly.
//
// # Spotify Implementation
//
// [SpotifyService] uses the OAuth2 authorization code flow. The local callback
// server (internal/server) collects the code, [SpotifyService.Authenticate]
// exchanges it, and the resulting session is persisted through [SessionStore].
// Playlist track pages are fetched with a partial-response field selector and
// flattened into [models.SourceTrack] values; entries whose track payload is
// null (removed or regionally unavailable) are dropped.
//
// # Tidal Implementation
//
// [TidalService] uses the OAuth2 device flow: [TidalService.StartDeviceAuth]
// returns a user code and verification URI, and
// [TidalService.CompleteDeviceAuth] polls until the user approves.
// [TidalService.CheckSession] validates the session against the live API and
// records the user ID and country code required by playlist and search calls.
// Playlist edits send the playlist ETag via If-None-Match, matching the
// optimistic concurrency scheme of the Tidal v1 API.
//
// # Session Persistence
//
// Both services wrap their [oauth2.TokenSource] so that every refreshed token
// is written back to the session store. A run started with a stale access
// token refreshes once and persists the result for the next run.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : no session loaded, Authenticate() not called
//   - [shared.ErrTokenExpired] : token expired and could not be refreshed
//   - [shared.ErrSessionInvalid] : destination session rejected by the live API
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrSearchFailed] : catalog search could not be completed
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
