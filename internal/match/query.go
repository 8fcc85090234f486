package match

import "github.com/Rovitz/spotify2tidal/internal/models"

// shortTitleLimit is the normalized-title length at or below which the search
// query gains the lead artist as a prefix. Short titles ("Yes") are too
// ambiguous to search alone.
const shortTitleLimit = 25

// SearchQuery builds the destination-catalog search query for one source
// track: the normalized title, prefixed with the normalized lead artist when
// the title alone is too short to disambiguate.
func SearchQuery(track models.SourceTrack) string {
	title := Normalize(track.Title)
	if len(title) <= shortTitleLimit && len(track.Artists) > 0 {
		return Normalize(track.Artists[0].Name) + " " + title
	}
	return title
}
