// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for syncing a single playlist:
//  1. [PlaylistListView] : Browse and select Spotify playlists
//  2. [TrackListView] : Preview tracks before syncing
//  3. [ConfirmView] : Confirm the sync, noting that a same-named Tidal playlist is replaced
//  4. [SyncView] : Monitor real-time progress updates
//  5. [ResultView] : Display written counts and unresolved tracks
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine into
// progressUpdateMsg values; the final result arrives as a syncCompleteMsg on a
// separate buffered channel once the progress channel closes, so the engine
// goroutine never touches model state directly.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
