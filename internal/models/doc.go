// Package models defines domain entities and persistence interfaces for the playlist reconciliation service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [SourceTrack] : One track snapshot from the source catalog (millisecond durations)
//   - [CandidateTrack] : One destination-catalog search result (second durations)
//   - [Playlist] : Basic playlist metadata from either service
//   - [ResolutionOutcome] : Positional result of resolving one source track
//   - [SyncResult] : Per-playlist summary of a completed sync
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Session] : Stored OAuth session per service with token material and account identity
//   - [SyncRun] : One reconciliation record per source playlist with counts and status
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
