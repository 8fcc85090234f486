package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the reconciliation service.
// Implementations include Session and future database-backed entities.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Artist is a single credited artist on a track.
type Artist struct {
	Name string `json:"name"`
}

// Album is the album reference carried by a track record.
type Album struct {
	Name string `json:"name"`
}

// SourceTrack is an immutable snapshot of one track from the source catalog.
// Durations arrive in milliseconds, matching the source service's wire format.
type SourceTrack struct {
	Title      string   `json:"title"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS int      `json:"duration_ms"`
}

// CandidateTrack is one search result from the destination catalog.
// Durations arrive in whole or fractional seconds, matching the destination
// service's wire format.
type CandidateTrack struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artists     []Artist `json:"artists"`
	Album       Album    `json:"album"`
	DurationSec float64  `json:"duration_sec"`
}

// Playlist represents playlist metadata from either service.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
}

// ResolutionOutcome records the result of resolving one source track against
// the destination catalog. Outcomes are collected positionally: outcome i
// always describes source track i regardless of completion order.
type ResolutionOutcome struct {
	TrackID string `json:"track_id,omitempty"`
	Found   bool   `json:"found"`
}

// SyncResult summarizes one playlist sync for reporting. Tracks and Outcomes
// are parallel sequences: Outcomes[i] describes Tracks[i].
type SyncResult struct {
	Playlist      Playlist            `json:"playlist"`
	Tracks        []SourceTrack       `json:"tracks"`
	Outcomes      []ResolutionOutcome `json:"outcomes"`
	Written       int                 `json:"written"`
	Missed        int                 `json:"missed"`
	DestinationID string              `json:"destination_id,omitempty"`
}

// MissedTracks returns the unresolved tracks with their one-indexed playlist
// positions, in source order.
func (r *SyncResult) MissedTracks() []MissedTrack {
	var missed []MissedTrack
	for i, outcome := range r.Outcomes {
		if outcome.Found || i >= len(r.Tracks) {
			continue
		}
		missed = append(missed, MissedTrack{Position: i + 1, Track: r.Tracks[i]})
	}
	return missed
}

// MissedTrack is one unresolved source track and its playlist position.
type MissedTrack struct {
	Position int         `json:"position"`
	Track    SourceTrack `json:"track"`
}

// Session is a persisted authentication session for one service.
// At most one live session exists per service name.
type Session struct {
	id           string
	sequence     int
	service      string
	accessToken  string
	refreshToken string
	tokenType    string
	expiry       time.Time
	accountID    string
	accountName  string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewSession creates a session for the named service. The ID is assigned by
// the repository on insert.
func NewSession(sequence int, service, accountID, accountName string) *Session {
	now := time.Now()
	return &Session{
		sequence:    sequence,
		service:     service,
		accountID:   accountID,
		accountName: accountName,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) Sequence() int         { return s.sequence }
func (s *Session) Service() string       { return s.service }
func (s *Session) AccessToken() string   { return s.accessToken }
func (s *Session) RefreshToken() string  { return s.refreshToken }
func (s *Session) TokenType() string     { return s.tokenType }
func (s *Session) Expiry() time.Time     { return s.expiry }
func (s *Session) AccountID() string     { return s.accountID }
func (s *Session) AccountName() string   { return s.accountName }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }
func (s *Session) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Session) DeletedAt() *time.Time { return s.deletedAt }

func (s *Session) SetID(id string)              { s.id = id }
func (s *Session) SetUpdatedAt(t time.Time)     { s.updatedAt = t }
func (s *Session) SetDeletedAt(t *time.Time)    { s.deletedAt = t }
func (s *Session) SetAccount(id, name string)   { s.accountID = id; s.accountName = name }

// SetTokens replaces the session's token material.
func (s *Session) SetTokens(access, refresh, tokenType string, expiry time.Time) {
	s.accessToken = access
	s.refreshToken = refresh
	s.tokenType = tokenType
	s.expiry = expiry
}

// Expired reports whether the access token's expiry has passed. Sessions with
// a zero expiry never expire (long-lived tokens).
func (s *Session) Expired() bool {
	if s.expiry.IsZero() {
		return false
	}
	return time.Now().After(s.expiry)
}

// Validate checks that the session carries a service name and token material.
func (s *Session) Validate() error {
	if s.service == "" {
		return fmt.Errorf("session service is required")
	}
	if s.accessToken == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}

// Sync run status values.
const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
)

// SyncRun records one reconciliation of a single source playlist: counts and
// status only, never per-track match results.
type SyncRun struct {
	id                    string
	sequence              int
	sourcePlaylistID      string
	sourceName            string
	destinationPlaylistID string
	tracksTotal           int
	tracksFound           int
	tracksMissed          int
	status                string
	errorMessage          string
	startedAt             time.Time
	completedAt           *time.Time
	createdAt             time.Time
	updatedAt             time.Time
	deletedAt             *time.Time
}

// NewSyncRun creates a running sync-run record for the given source playlist.
func NewSyncRun(sequence int, sourcePlaylistID, sourceName string) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:         sequence,
		sourcePlaylistID: sourcePlaylistID,
		sourceName:       sourceName,
		status:           SyncRunRunning,
		startedAt:        now,
		createdAt:        now,
		updatedAt:        now,
	}
}

func (r *SyncRun) ID() string                    { return r.id }
func (r *SyncRun) Sequence() int                 { return r.sequence }
func (r *SyncRun) SourcePlaylistID() string      { return r.sourcePlaylistID }
func (r *SyncRun) SourceName() string            { return r.sourceName }
func (r *SyncRun) DestinationPlaylistID() string { return r.destinationPlaylistID }
func (r *SyncRun) TracksTotal() int              { return r.tracksTotal }
func (r *SyncRun) TracksFound() int              { return r.tracksFound }
func (r *SyncRun) TracksMissed() int             { return r.tracksMissed }
func (r *SyncRun) Status() string                { return r.status }
func (r *SyncRun) ErrorMessage() string          { return r.errorMessage }
func (r *SyncRun) StartedAt() time.Time          { return r.startedAt }
func (r *SyncRun) CompletedAt() *time.Time       { return r.completedAt }
func (r *SyncRun) CreatedAt() time.Time          { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time          { return r.updatedAt }
func (r *SyncRun) DeletedAt() *time.Time         { return r.deletedAt }

func (r *SyncRun) SetID(id string)           { r.id = id }
func (r *SyncRun) SetUpdatedAt(t time.Time)  { r.updatedAt = t }
func (r *SyncRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Hydrate restores persisted state onto a freshly constructed run.
// Used by repositories when scanning rows; not part of the run lifecycle.
func (r *SyncRun) Hydrate(destinationPlaylistID string, total, found, missed int, status, errorMessage string, startedAt time.Time, completedAt *time.Time) {
	r.destinationPlaylistID = destinationPlaylistID
	r.tracksTotal = total
	r.tracksFound = found
	r.tracksMissed = missed
	r.status = status
	r.errorMessage = errorMessage
	r.startedAt = startedAt
	r.completedAt = completedAt
}

// Complete marks the run finished with its final counts.
func (r *SyncRun) Complete(destinationPlaylistID string, total, found, missed int) {
	now := time.Now()
	r.destinationPlaylistID = destinationPlaylistID
	r.tracksTotal = total
	r.tracksFound = found
	r.tracksMissed = missed
	r.status = SyncRunCompleted
	r.completedAt = &now
	r.updatedAt = now
}

// Fail marks the run failed with the given message.
func (r *SyncRun) Fail(message string) {
	now := time.Now()
	r.status = SyncRunFailed
	r.errorMessage = message
	r.completedAt = &now
	r.updatedAt = now
}

// Validate checks that the run references a source playlist and carries a
// known status.
func (r *SyncRun) Validate() error {
	if r.sourcePlaylistID == "" {
		return fmt.Errorf("sync run source playlist id is required")
	}
	switch r.status {
	case SyncRunRunning, SyncRunCompleted, SyncRunFailed:
		return nil
	default:
		return fmt.Errorf("sync run status %q is not valid", r.status)
	}
}
