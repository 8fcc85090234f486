package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

// SyncRunRepository implements [models.Repository] for [models.SyncRun] persistence.
//
// Runs are summary records only: per-track outcomes are reported at sync time
// and never stored.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new [SyncRunRepository] with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, sequence, source_playlist_id, source_name, destination_playlist_id,
			tracks_total, tracks_found, tracks_missed, status, error_message,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SourcePlaylistID(),
		nullableString(run.SourceName()),
		nullableString(run.DestinationPlaylistID()),
		run.TracksTotal(),
		run.TracksFound(),
		run.TracksMissed(),
		run.Status(),
		nullableString(run.ErrorMessage()),
		run.StartedAt(),
		run.CompletedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID, excluding soft-deleted runs
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := syncRunSelect + " WHERE id = ? AND deleted_at IS NULL"
	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync run: %w", err)
	}
	return run, nil
}

// Update modifies an existing sync run's counts and status
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET destination_playlist_id = ?, tracks_total = ?, tracks_found = ?,
		    tracks_missed = ?, status = ?, error_message = ?, completed_at = ?,
		    updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		nullableString(run.DestinationPlaylistID()),
		run.TracksTotal(),
		run.TracksFound(),
		run.TracksMissed(),
		run.Status(),
		nullableString(run.ErrorMessage()),
		run.CompletedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", run.ID())
	}

	return nil
}

// Delete soft-deletes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sync_runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves sync runs matching the given criteria, most recent first.
// Supported criteria: "source_playlist_id", "status", and "limit".
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := syncRunSelect + " WHERE deleted_at IS NULL"
	args := []any{}

	if sourceID, ok := criteria["source_playlist_id"].(string); ok && sourceID != "" {
		query += " AND source_playlist_id = ?"
		args = append(args, sourceID)
	}
	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

const syncRunSelect = `
	SELECT id, sequence, source_playlist_id, source_name, destination_playlist_id,
	       tracks_total, tracks_found, tracks_missed, status, error_message,
	       started_at, completed_at, created_at, updated_at, deleted_at
	FROM sync_runs
`

func scanSyncRun(row scanTarget) (*models.SyncRun, error) {
	var (
		id            string
		sequence      int
		sourceID      string
		sourceName    sql.NullString
		destinationID sql.NullString
		tracksTotal   int
		tracksFound   int
		tracksMissed  int
		status        string
		errorMessage  sql.NullString
		startedAt     sql.NullTime
		completedAt   sql.NullTime
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &sourceID, &sourceName, &destinationID,
		&tracksTotal, &tracksFound, &tracksMissed, &status, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	run := models.NewSyncRun(sequence, sourceID, sourceName.String)
	run.SetID(id)

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	run.Hydrate(destinationID.String, tracksTotal, tracksFound, tracksMissed,
		status, errorMessage.String, startedAt.Time, completed)

	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
