package ranking

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// CardOption is the caller-selected ranking mode. Exactly one is active per
// request; CardOptionNone disables personalization.
type CardOption string

// Known card options.
const (
	CardOptionNone       CardOption = ""
	CardOptionSocial     CardOption = "social"
	CardOptionPopularity CardOption = "popularity"
)

// ErrUnknownCardOption is returned by ParseCardOption for values outside the
// closed set of modes.
var ErrUnknownCardOption = errors.New("unknown card option")

// ParseCardOption maps a raw value to a CardOption. Matching ignores case and
// surrounding whitespace; "none" and "" both select CardOptionNone.
func ParseCardOption(raw string) (CardOption, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return CardOptionNone, nil
	case string(CardOptionSocial):
		return CardOptionSocial, nil
	case string(CardOptionPopularity):
		return CardOptionPopularity, nil
	}
	return CardOptionNone, fmt.Errorf("%w: %q", ErrUnknownCardOption, raw)
}

// Personalized reports whether the option asks for scoring.
func (o CardOption) Personalized() bool {
	return o == CardOptionSocial || o == CardOptionPopularity
}

// ProximityWeight is the social proximity component: a fixed boost when the
// requester follows the listing's publisher.
func ProximityWeight(following bool) float64 {
	if following {
		return 1.0
	}
	return 0.0
}

// PopularityWeight normalizes a view count against the largest count in the
// current candidate set.
//
// Formula: log1p(views) / log1p(maxViews), clamped to [0, 1].
// Returns 0 when maxViews is 0 so an all-zero set scores evenly.
func PopularityWeight(views, maxViews int64) float64 {
	if views <= 0 || maxViews <= 0 {
		return 0.0
	}
	return clamp01(math.Log1p(float64(views)) / math.Log1p(float64(maxViews)))
}

// ScoreParams holds the component scores for one listing.
type ScoreParams struct {
	Proximity  float64 // Social proximity [0, 1]
	Popularity float64 // Normalized popularity [0, 1]
}

// CompositeScore blends the components with the coefficients of option.
//
// Default formulas:
//   - social:     (proximity * 0.7) + (popularity * 0.3)
//   - popularity: (proximity * 0.3) + (popularity * 0.7)
//
// Returns 0 for CardOptionNone. The result is always in [0, 1].
func CompositeScore(params ScoreParams, option CardOption, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	blend, ok := weights.For(option)
	if !ok {
		return 0.0
	}

	score := (clamp01(params.Proximity) * blend.Proximity) +
		(clamp01(params.Popularity) * blend.Popularity)

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
