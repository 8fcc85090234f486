// Package tasks orchestrates playlist reconciliation between the source and
// destination services with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.SyncPlaylist] : Sync one playlist into a destination playlist
//     - Fetches the complete, flattened source track list
//     - Resolves every track concurrently against the destination catalog
//     - Partitions outcomes into the sync plan (found IDs, source order) and
//       positional misses
//     - Replaces the destination playlist contents in one write; an empty
//       plan still clears the playlist
//
//  2. [SyncEngine.ReconcileAll] : Full reconciliation over configured playlists
//     - Processes source playlist IDs sequentially, in listed order
//     - Skips playlists whose source lookup fails (logged, non-fatal)
//     - Deletes a stale same-named destination playlist, creates a fresh
//       one, then invokes SyncPlaylist against it
//
// # Resolution
//
// [Resolver] fans track resolution out over a bounded worker pool (see
// [ResolverOpts]): each task builds a search query, issues one rate-limited
// catalog search under a per-call deadline, and takes the first candidate the
// matcher accepts. A failed search is retried once and then treated as a
// miss. Outcomes are reassembled by input position, so positional warnings
// and the final plan order always follow the source playlist's track order.
// The pool is drained completely before the destination write.
//
// # Progress Reporting
//
// All operations send [ProgressUpdate] values on an optional channel using
// select with default, so a slow or absent consumer never blocks the
// pipeline.
//
// # Implementation
//
// [ReconcileEngine] implements [SyncEngine] with dependencies on:
//   - [services.SourceService] : the catalog playlists are read from
//   - [services.DestinationService] : the catalog playlists are written to
//   - [Resolver] : the concurrent track resolution pool
package tasks
