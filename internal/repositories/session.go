package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

// SessionRepository implements [models.Repository] for [models.Session] persistence.
//
// A partial unique index on the sessions table guarantees at most one live
// session per service name; superseded sessions are soft-deleted.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database with generated ID and sequence
func (r *SessionRepository) Create(session *models.Session) error {
	sequence, err := NextSequence(r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	session.SetID(id)

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sessions (
			id, sequence, service, access_token, refresh_token, token_type,
			expires_at, account_id, account_name, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		session.Service(),
		session.AccessToken(),
		nullableString(session.RefreshToken()),
		nullableString(session.TokenType()),
		nullableTime(session.Expiry()),
		nullableString(session.AccountID()),
		nullableString(session.AccountName()),
		session.CreatedAt(),
		session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID, excluding soft-deleted sessions
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	query := sessionSelect + " WHERE id = ? AND deleted_at IS NULL"
	session, err := scanSession(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// GetByService retrieves the live session for a service name.
// Returns [shared.ErrNotAuthenticated] when no live session exists.
func (r *SessionRepository) GetByService(service string) (*models.Session, error) {
	query := sessionSelect + " WHERE service = ? AND deleted_at IS NULL"
	session, err := scanSession(r.db.QueryRow(query, service))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no stored session for %s", shared.ErrNotAuthenticated, service)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// Update modifies an existing session's token and account fields
func (r *SessionRepository) Update(session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET access_token = ?, refresh_token = ?, token_type = ?, expires_at = ?,
		    account_id = ?, account_name = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		session.AccessToken(),
		nullableString(session.RefreshToken()),
		nullableString(session.TokenType()),
		nullableTime(session.Expiry()),
		nullableString(session.AccountID()),
		nullableString(session.AccountName()),
		now,
		session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", session.ID())
	}

	return nil
}

// Upsert stores the session as the live session for its service, replacing
// token material in place when one already exists.
func (r *SessionRepository) Upsert(session *models.Session) error {
	existing, err := r.GetByService(session.Service())
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return r.Create(session)
	}
	if err != nil {
		return err
	}

	existing.SetTokens(session.AccessToken(), session.RefreshToken(), session.TokenType(), session.Expiry())
	if session.AccountID() != "" || session.AccountName() != "" {
		existing.SetAccount(session.AccountID(), session.AccountName())
	}
	if err := r.Update(existing); err != nil {
		return err
	}

	session.SetID(existing.ID())
	return nil
}

// Delete soft-deletes a session by ID
func (r *SessionRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found or already deleted: %s", id)
	}

	return nil
}

// DeleteByService soft-deletes the live session for a service name, if any.
func (r *SessionRepository) DeleteByService(service string) error {
	query := `
		UPDATE sessions
		SET deleted_at = ?
		WHERE service = ? AND deleted_at IS NULL
	`

	if _, err := r.db.Exec(query, time.Now(), service); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", service, err)
	}
	return nil
}

// List retrieves all live sessions matching the given criteria
func (r *SessionRepository) List(criteria map[string]any) ([]*models.Session, error) {
	query := sessionSelect + " WHERE deleted_at IS NULL"
	args := []any{}

	if service, ok := criteria["service"].(string); ok && service != "" {
		query += " AND service = ?"
		args = append(args, service)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

const sessionSelect = `
	SELECT id, sequence, service, access_token, refresh_token, token_type,
	       expires_at, account_id, account_name, created_at, updated_at, deleted_at
	FROM sessions
`

// scanTarget is the common surface of [sql.Row] and [sql.Rows].
type scanTarget interface {
	Scan(dest ...any) error
}

func scanSession(row scanTarget) (*models.Session, error) {
	var (
		id           string
		sequence     int
		service      string
		accessToken  string
		refreshToken sql.NullString
		tokenType    sql.NullString
		expiresAt    sql.NullTime
		accountID    sql.NullString
		accountName  sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	if err := row.Scan(&id, &sequence, &service, &accessToken, &refreshToken, &tokenType,
		&expiresAt, &accountID, &accountName, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	session := models.NewSession(sequence, service, accountID.String, accountName.String)
	session.SetID(id)
	session.SetTokens(accessToken, refreshToken.String, tokenType.String, expiresAt.Time)
	session.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		session.SetDeletedAt(&deletedAt.Time)
	}

	return session, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
