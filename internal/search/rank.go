package search

import (
	"sort"

	"github.com/capstone-maru/maru/internal/listing"
)

// ScoredListing is a listing with its personalization score. Score is nil
// when the search was not personalized.
type ScoredListing struct {
	Listing *listing.RoomListing `json:"listing"`
	Score   *float64             `json:"score,omitempty"`
}

// Rank orders candidates into a total order. With scores: score DESC, then
// CreatedAt DESC, then ID ASC. Without scores (nil map): CreatedAt DESC,
// then ID ASC. No candidate is dropped.
func Rank(candidates []*listing.RoomListing, scores map[string]float64) []ScoredListing {
	out := make([]ScoredListing, len(candidates))
	for i, l := range candidates {
		out[i] = ScoredListing{Listing: l}
		if scores != nil {
			s := scores[l.ID]
			out[i].Score = &s
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != nil && b.Score != nil && *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
		if !a.Listing.CreatedAt.Equal(b.Listing.CreatedAt) {
			return a.Listing.CreatedAt.After(b.Listing.CreatedAt)
		}
		return a.Listing.ID < b.Listing.ID
	})
	return out
}
