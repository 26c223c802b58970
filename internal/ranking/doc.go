// Package ranking computes personalization scores for room listings with
// calibration support.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		logger.Warn("using default weights", "error", err)
//	}
//
//	option, err := ranking.ParseCardOption(r.URL.Query().Get("card_option"))
//	if err != nil {
//		// 400
//	}
//
//	scorer := ranking.NewScorer(weights)
//	scores := scorer.Score(candidates, ranking.Snapshot{
//		Views:    views,    // listing id -> view count, read once per request
//		Followed: followed, // publisher id -> followed by requester
//	}, option)
//
// Weight Functions:
//
// ProximityWeight and PopularityWeight return values in the [0, 1] range.
// CompositeScore blends them with the coefficients selected by the
// CardOption and clamps the result to [0, 1]. A score only orders
// listings; it never removes one.
//
// Calibration:
//
// Blend coefficients can be tuned per deploy via a JSON calibration file
// loaded at startup. See configs/ranking.calibration.json for the defaults.
package ranking
