package inference

import (
	"fmt"

	"github.com/Veraticus/shot-grouper/internal/common"
)

// Config holds the thresholds and weights of type inference.
type Config struct {
	ExtensionThreshold float64 `mapstructure:"extension_threshold"`
	CameraThreshold    float64 `mapstructure:"camera_threshold"`
	DateThreshold      float64 `mapstructure:"date_threshold"`
	IndexThreshold     float64 `mapstructure:"index_threshold"`
	GroupUniquenessMin float64 `mapstructure:"group_uniqueness_min"`
	GroupExclusionMax  float64 `mapstructure:"group_exclusion_max"`
	GroupWeight        float64 `mapstructure:"group_weight"`
	AffixUniquenessMax float64 `mapstructure:"affix_uniqueness_max"`
	PrefixWeight       float64 `mapstructure:"prefix_weight"`
	SuffixWeight       float64 `mapstructure:"suffix_weight"`
	MaxExamples        int     `mapstructure:"max_examples"`
}

// DefaultConfig returns the standard inference thresholds.
func DefaultConfig() Config {
	return Config{
		ExtensionThreshold: 0.5,
		CameraThreshold:    0.3,
		DateThreshold:      0.5,
		IndexThreshold:     0.4,
		GroupUniquenessMin: 0.7,
		GroupExclusionMax:  0.3,
		GroupWeight:        0.8,
		AffixUniquenessMax: 0.3,
		PrefixWeight:       0.7,
		SuffixWeight:       0.6,
		MaxExamples:        3,
	}
}

// Validate checks that every threshold and weight lies in [0, 1].
func (c Config) Validate() error {
	values := map[string]float64{
		"extension_threshold":  c.ExtensionThreshold,
		"camera_threshold":     c.CameraThreshold,
		"date_threshold":       c.DateThreshold,
		"index_threshold":      c.IndexThreshold,
		"group_uniqueness_min": c.GroupUniquenessMin,
		"group_exclusion_max":  c.GroupExclusionMax,
		"group_weight":         c.GroupWeight,
		"affix_uniqueness_max": c.AffixUniquenessMax,
		"prefix_weight":        c.PrefixWeight,
		"suffix_weight":        c.SuffixWeight,
	}
	for name, v := range values {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: inference %s must be within [0, 1], got %v", common.ErrInvalidConfig, name, v)
		}
	}
	if c.MaxExamples < 1 {
		return fmt.Errorf("%w: inference max_examples must be at least 1", common.ErrInvalidConfig)
	}
	return nil
}
