package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/Rovitz/spotify2tidal/internal/models"
	"github.com/Rovitz/spotify2tidal/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testSession(service string) *models.Session {
	session := models.NewSession(0, service, "acct-1", "Listener")
	session.SetTokens("access-token", "refresh-token", "Bearer", time.Now().Add(time.Hour))
	return session
}

func TestSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		session := testSession("spotify")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if session.ID() == "" {
			t.Error("session ID should be set after creation")
		}
	})

	t.Run("Create rejects missing token", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		session := models.NewSession(0, "spotify", "", "")

		if err := repo.Create(session); err == nil {
			t.Error("expected validation error for session without token")
		}
	})

	t.Run("GetByService", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		session := testSession("tidal")

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		retrieved, err := repo.GetByService("tidal")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if retrieved.ID() != session.ID() {
			t.Errorf("expected ID %s, got %s", session.ID(), retrieved.ID())
		}
		if retrieved.AccessToken() != "access-token" {
			t.Errorf("expected access token round trip, got %q", retrieved.AccessToken())
		}
		if retrieved.RefreshToken() != "refresh-token" {
			t.Errorf("expected refresh token round trip, got %q", retrieved.RefreshToken())
		}
		if retrieved.AccountName() != "Listener" {
			t.Errorf("expected account name round trip, got %q", retrieved.AccountName())
		}
	})

	t.Run("GetByService without session", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)

		_, err := repo.GetByService("tidal")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Upsert replaces tokens in place", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		first := testSession("spotify")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("failed to upsert first session: %v", err)
		}

		second := models.NewSession(0, "spotify", "", "")
		second.SetTokens("new-access", "new-refresh", "Bearer", time.Now().Add(2*time.Hour))
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("failed to upsert second session: %v", err)
		}

		if second.ID() != first.ID() {
			t.Errorf("upsert should reuse the live row, got %s and %s", first.ID(), second.ID())
		}

		retrieved, err := repo.GetByService("spotify")
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if retrieved.AccessToken() != "new-access" {
			t.Errorf("expected replaced token, got %q", retrieved.AccessToken())
		}
		if retrieved.AccountName() != "Listener" {
			t.Errorf("expected account identity preserved, got %q", retrieved.AccountName())
		}

		sessions, err := repo.List(map[string]any{"service": "spotify"})
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 1 {
			t.Errorf("expected exactly one live session, got %d", len(sessions))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		session := testSession("spotify")
		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.Delete(session.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		if _, err := repo.GetByService("spotify"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after delete, got %v", err)
		}

		if err := repo.Delete(session.ID()); err == nil {
			t.Error("expected error deleting an already deleted session")
		}
	})

	t.Run("DeleteByService tolerates absence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		if err := repo.DeleteByService("tidal"); err != nil {
			t.Errorf("expected no error deleting a missing session, got %v", err)
		}
	})
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := models.NewSyncRun(0, "pl-1", "Chill")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.SourcePlaylistID() != "pl-1" {
			t.Errorf("expected source playlist pl-1, got %s", retrieved.SourcePlaylistID())
		}
		if retrieved.Status() != models.SyncRunRunning {
			t.Errorf("expected running status, got %s", retrieved.Status())
		}
	})

	t.Run("Update records completion", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := models.NewSyncRun(0, "pl-1", "Chill")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.Complete("dest-9", 3, 1, 2)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.Status() != models.SyncRunCompleted {
			t.Errorf("expected completed status, got %s", retrieved.Status())
		}
		if retrieved.DestinationPlaylistID() != "dest-9" {
			t.Errorf("expected destination dest-9, got %s", retrieved.DestinationPlaylistID())
		}
		if retrieved.TracksTotal() != 3 || retrieved.TracksFound() != 1 || retrieved.TracksMissed() != 2 {
			t.Errorf("expected counts 3/1/2, got %d/%d/%d",
				retrieved.TracksTotal(), retrieved.TracksFound(), retrieved.TracksMissed())
		}
		if retrieved.CompletedAt() == nil {
			t.Error("expected completion timestamp")
		}
	})

	t.Run("List returns recent runs first", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		for _, source := range []string{"pl-1", "pl-2", "pl-3"} {
			if err := repo.Create(models.NewSyncRun(0, source, "")); err != nil {
				t.Fatalf("failed to create sync run: %v", err)
			}
		}

		runs, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list sync runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].SourcePlaylistID() != "pl-3" || runs[1].SourcePlaylistID() != "pl-2" {
			t.Errorf("expected most recent first, got %s then %s",
				runs[0].SourcePlaylistID(), runs[1].SourcePlaylistID())
		}
	})

	t.Run("List filters by status", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		completed := models.NewSyncRun(0, "pl-1", "")
		if err := repo.Create(completed); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}
		completed.Complete("dest-1", 1, 1, 0)
		if err := repo.Update(completed); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}
		if err := repo.Create(models.NewSyncRun(0, "pl-2", "")); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		runs, err := repo.List(map[string]any{"status": models.SyncRunCompleted})
		if err != nil {
			t.Fatalf("failed to list sync runs: %v", err)
		}
		if len(runs) != 1 || runs[0].ID() != completed.ID() {
			t.Errorf("expected only the completed run, got %d runs", len(runs))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "sessions")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "sessions")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected monotonic sequence, got %d then %d", first, second)
	}
}
