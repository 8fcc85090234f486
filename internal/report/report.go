// package report renders reconciliation results for terminal display and file export
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

// MissesToCSV converts the unresolved tracks of each result to CSV format
// with columns: Playlist, Position, Title, Artists, Album, DurationMS.
//
// Positions are one-indexed within the source playlist.
func MissesToCSV(results []*models.SyncResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Position", "Title", "Artists", "Album", "DurationMS"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range results {
		for _, miss := range result.MissedTracks() {
			record := []string{
				result.Playlist.Name,
				strconv.Itoa(miss.Position),
				miss.Track.Title,
				joinArtists(miss.Track.Artists),
				miss.Track.Album.Name,
				strconv.Itoa(miss.Track.DurationMS),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteMissReport writes the miss report for results to the file at path and
// returns the number of missed tracks written.
func WriteMissReport(results []*models.SyncResult, path string) (int, error) {
	data, err := MissesToCSV(results)
	if err != nil {
		return 0, fmt.Errorf("failed to generate miss report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write miss report: %w", err)
	}

	misses := 0
	for _, result := range results {
		misses += result.Missed
	}
	return misses, nil
}

// OutcomeText converts one result to a plain text per-track outcome table.
func OutcomeText(result *models.SyncResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s (%d tracks)\n", result.Playlist.Name, len(result.Tracks)))

	for i, track := range result.Tracks {
		mark := "✗"
		suffix := ""
		if i < len(result.Outcomes) && result.Outcomes[i].Found {
			mark = "✓"
			suffix = fmt.Sprintf(" → %s", result.Outcomes[i].TrackID)
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s - %s%s\n", i+1, mark, joinArtists(track.Artists), track.Title, suffix))
	}

	buf.WriteString(fmt.Sprintf("\nFound: %d  Missed: %d\n", result.Written, result.Missed))

	return buf.Bytes()
}

// joinArtists renders an artist list as a single display string.
func joinArtists(artists []models.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}
