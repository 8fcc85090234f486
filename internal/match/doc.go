// Package match decides whether two heterogeneous track records denote the same song.
//
// It compensates for inconsistent metadata across independently curated
// catalogs: differing capitalization, romanization, edition suffixes,
// remix and version tags, and collaborator credits.
//
// # Normalization
//
// [Normalize] canonicalizes free text in a fixed order: ASCII
// transliteration, case folding, join-marker collapse (" x ", " vs ", " - "),
// edition-word removal, credit-clause removal, character-set restriction.
// It is a pure function of its input and is idempotent over track metadata.
//
// # Matching
//
// [Compare] computes four independent boolean signals for a
// (source, candidate) pair:
//   - Title: partial ratio of normalized titles at or above 90
//   - Artists: token-set ratio of normalized artist sets at or above 80
//   - Duration: absolute difference under two seconds (strict)
//   - Album: plain ratio of normalized album names at or above 90
//
// [Result.Verdict] requires agreement from at least three of the four.
//
// # Query Building
//
// [SearchQuery] derives the catalog search string for a source track,
// prefixing the lead artist when the normalized title is 25 characters or
// shorter.
package match
