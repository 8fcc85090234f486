package match

import (
	"math"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/Rovitz/spotify2tidal/internal/models"
)

const (
	titleThreshold  = 90
	artistThreshold = 80
	albumThreshold  = 90

	// durationTolerance is strict: a pair exactly this far apart does not match.
	durationTolerance = 2.0
)

// Result holds the four independent similarity signals computed for one
// (source, candidate) pair.
type Result struct {
	Title    bool
	Artists  bool
	Duration bool
	Album    bool
}

// Verdict reports whether the pair denotes the same song. At least three of
// the four signals must agree, which tolerates one noisy field (a live-album
// tag, say) while still rejecting same-artist different-song pairs.
func (r Result) Verdict() bool {
	votes := 0
	for _, signal := range []bool{r.Title, r.Artists, r.Duration, r.Album} {
		if signal {
			votes++
		}
	}
	return votes >= 3
}

// Compare computes the four similarity signals between a source track and a
// destination candidate. Inputs are never mutated.
//
// Title uses partial ratio (substring tolerant), artists use token-set ratio
// over the space-joined normalized names (order and duplicate insensitive),
// duration compares seconds within a strict two-second window, and album uses
// the plain ratio.
func Compare(source models.SourceTrack, candidate models.CandidateTrack) Result {
	return Result{
		Title:    fuzzy.PartialRatio(Normalize(source.Title), Normalize(candidate.Title)) >= titleThreshold,
		Artists:  fuzzy.TokenSetRatio(joinArtists(source.Artists), joinArtists(candidate.Artists)) >= artistThreshold,
		Duration: math.Abs(float64(source.DurationMS)/1000-candidate.DurationSec) < durationTolerance,
		Album:    fuzzy.Ratio(Normalize(source.Album.Name), Normalize(candidate.Album.Name)) >= albumThreshold,
	}
}

// Matches reports whether candidate denotes the same song as source.
func Matches(source models.SourceTrack, candidate models.CandidateTrack) bool {
	return Compare(source, candidate).Verdict()
}

func joinArtists(artists []models.Artist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return Normalize(strings.Join(names, " "))
}
