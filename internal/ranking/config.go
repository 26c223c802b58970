package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// BlendWeights are the linear coefficients of one card option.
type BlendWeights struct {
	Proximity  float64 `json:"proximity"`  // Weight for social proximity
	Popularity float64 `json:"popularity"` // Weight for view popularity
}

// Weights is the lookup table from card option to blend coefficients.
type Weights struct {
	Social     BlendWeights `json:"social"`     // Social-weighted mode
	Popularity BlendWeights `json:"popularity"` // Popularity-weighted mode
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default blend table.
//
// Social formula: score = (proximity * 0.7) + (popularity * 0.3)
// Popularity formula: score = (proximity * 0.3) + (popularity * 0.7)
func DefaultWeights() *Weights {
	return &Weights{
		Social: BlendWeights{
			Proximity:  0.7,
			Popularity: 0.3,
		},
		Popularity: BlendWeights{
			Proximity:  0.3,
			Popularity: 0.7,
		},
	}
}

// For returns the blend for option. ok is false for CardOptionNone and
// unknown options.
func (w *Weights) For(option CardOption) (BlendWeights, bool) {
	switch option {
	case CardOptionSocial:
		return w.Social, true
	case CardOptionPopularity:
		return w.Popularity, true
	}
	return BlendWeights{}, false
}

// Validate checks that every coefficient is non-negative and each mode sums
// to at most 1, so a composite score stays in [0, 1].
func (w *Weights) Validate() error {
	for _, m := range []struct {
		name  string
		blend BlendWeights
	}{
		{string(CardOptionSocial), w.Social},
		{string(CardOptionPopularity), w.Popularity},
	} {
		if m.blend.Proximity < 0 || m.blend.Popularity < 0 {
			return fmt.Errorf("%s weights must not be negative", m.name)
		}
		// small epsilon for float sums like 0.7 + 0.3
		if m.blend.Proximity+m.blend.Popularity > 1.0+1e-9 {
			return fmt.Errorf("%s weights sum to %.2f, must be at most 1",
				m.name, m.blend.Proximity+m.blend.Popularity)
		}
	}
	return nil
}

// LoadCalibration loads blend weights from a JSON calibration file.
// If the file doesn't exist, can't be parsed or holds invalid weights,
// returns default weights with an error. Partial configurations are merged
// with defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	if err := merged.Validate(); err != nil {
		slog.Warn("invalid calibration weights, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights into base. Only non-zero values
// from the override are applied.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}

	result := *base
	if override == nil {
		return &result
	}

	if override.Social.Proximity != 0 {
		result.Social.Proximity = override.Social.Proximity
	}
	if override.Social.Popularity != 0 {
		result.Social.Popularity = override.Social.Popularity
	}
	if override.Popularity.Proximity != 0 {
		result.Popularity.Proximity = override.Popularity.Proximity
	}
	if override.Popularity.Popularity != 0 {
		result.Popularity.Popularity = override.Popularity.Popularity
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	add := func(name string, before, after float64) {
		if before != after {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, before, after))
		}
	}
	add("social.proximity", defaults.Social.Proximity, loaded.Social.Proximity)
	add("social.popularity", defaults.Social.Popularity, loaded.Social.Popularity)
	add("popularity.proximity", defaults.Popularity.Proximity, loaded.Popularity.Proximity)
	add("popularity.popularity", defaults.Popularity.Popularity, loaded.Popularity.Popularity)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
