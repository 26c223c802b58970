package ranking

import (
	"github.com/capstone-maru/maru/internal/listing"
)

// Snapshot is the read-only personalization input captured once per request.
// A listing missing from Views has zero views.
type Snapshot struct {
	Views    map[string]int64 // listing id -> view count
	Followed map[string]bool  // publisher id -> followed by requester
}

// MaxViews returns the largest count in the snapshot for the given listings.
func (s Snapshot) MaxViews(candidates []*listing.RoomListing) int64 {
	var max int64
	for _, l := range candidates {
		if v := s.Views[l.ID]; v > max {
			max = v
		}
	}
	return max
}

// Scorer attaches a composite score to each candidate. It holds no
// per-request state and is safe for concurrent use.
type Scorer struct {
	weights *Weights
}

// NewScorer creates a scorer. Nil weights fall back to DefaultWeights.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score returns a score per listing id. Every candidate gets an entry, so
// none can be dropped for scoring low. Popularity is normalized against the
// maximum view count among candidates.
func (s *Scorer) Score(candidates []*listing.RoomListing, snap Snapshot, option CardOption) map[string]float64 {
	scores := make(map[string]float64, len(candidates))
	maxViews := snap.MaxViews(candidates)
	for _, l := range candidates {
		scores[l.ID] = CompositeScore(ScoreParams{
			Proximity:  ProximityWeight(snap.Followed[l.PublisherID]),
			Popularity: PopularityWeight(snap.Views[l.ID], maxViews),
		}, option, s.weights)
	}
	return scores
}
