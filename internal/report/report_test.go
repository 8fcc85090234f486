package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rovitz/spotify2tidal/internal/models"
	tu "github.com/Rovitz/spotify2tidal/internal/testing"
)

func sampleResult() *models.SyncResult {
	return &models.SyncResult{
		Playlist: models.Playlist{ID: "src-1", Name: "Chill", TrackCount: 3},
		Tracks: []models.SourceTrack{
			{
				Title:      "Midnight Drive",
				Artists:    []models.Artist{{Name: "Neon Coast"}},
				Album:      models.Album{Name: "City Lights"},
				DurationMS: 200000,
			},
			{
				Title:      "Glass Harbor",
				Artists:    []models.Artist{{Name: "The Marrow"}, {Name: "Ada Vance"}},
				Album:      models.Album{Name: "Salt and Stone"},
				DurationMS: 180000,
			},
			{
				Title:      "Paper Crown",
				Artists:    []models.Artist{{Name: "Vela North"}},
				Album:      models.Album{Name: "First Light"},
				DurationMS: 210000,
			},
		},
		Outcomes: []models.ResolutionOutcome{
			{TrackID: "7001", Found: true},
			{},
			{},
		},
		Written:       1,
		Missed:        2,
		DestinationID: "dest-1",
	}
}

func TestMissesToCSV(t *testing.T) {
	t.Run("Writes One Row Per Miss", func(t *testing.T) {
		data, err := MissesToCSV([]*models.SyncResult{sampleResult()})
		if err != nil {
			t.Fatalf("MissesToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist,Position,Title,Artists,Album,DurationMS") {
			t.Errorf("CSV missing headers, got: %s", output)
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if !strings.Contains(lines[1], "Chill,2,Glass Harbor") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.Contains(lines[1], "The Marrow, Ada Vance") {
			t.Errorf("expected joined artists quoted in row: %s", lines[1])
		}
		if !strings.Contains(lines[2], "Chill,3,Paper Crown,Vela North,First Light,210000") {
			t.Errorf("unexpected second row: %s", lines[2])
		}
		if strings.Contains(output, "Midnight Drive") {
			t.Error("resolved track should not appear in miss report")
		}
	})

	t.Run("Empty Results Yield Headers Only", func(t *testing.T) {
		data, err := MissesToCSV(nil)
		if err != nil {
			t.Fatalf("MissesToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 1 {
			t.Errorf("expected headers only, got %d lines", len(lines))
		}
	})
}

func TestWriteMissReport(t *testing.T) {
	t.Run("Writes File And Counts Misses", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "misses.csv")

		count, err := WriteMissReport([]*models.SyncResult{sampleResult()}, path)
		if err != nil {
			t.Fatalf("WriteMissReport failed: %v", err)
		}
		if count != 2 {
			t.Errorf("expected 2 misses, got %d", count)
		}

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "Glass Harbor") || !strings.Contains(content, "Paper Crown") {
			t.Errorf("report missing expected rows: %s", content)
		}
	})

	t.Run("Writes Relative To Working Directory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := tu.MustGetwd(t)
		tu.MustChdir(t, tempDir)
		defer tu.MustChdir(t, originalDir)

		if _, err := WriteMissReport([]*models.SyncResult{sampleResult()}, "misses.csv"); err != nil {
			t.Fatalf("WriteMissReport failed: %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(tempDir, "misses.csv"))
	})

	t.Run("Fails On Unwritable Path", func(t *testing.T) {
		_, err := WriteMissReport([]*models.SyncResult{sampleResult()}, filepath.Join(t.TempDir(), "no-such-dir", "misses.csv"))
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "failed to write miss report") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestOutcomeText(t *testing.T) {
	output := string(OutcomeText(sampleResult()))

	if !strings.Contains(output, "Playlist: Chill (3 tracks)") {
		t.Errorf("missing playlist line: %s", output)
	}
	if !strings.Contains(output, "1. ✓ Neon Coast - Midnight Drive → 7001") {
		t.Errorf("missing resolved line: %s", output)
	}
	if !strings.Contains(output, "2. ✗ The Marrow, Ada Vance - Glass Harbor") {
		t.Errorf("missing missed line: %s", output)
	}
	if !strings.Contains(output, "Found: 1  Missed: 2") {
		t.Errorf("missing summary line: %s", output)
	}
}
