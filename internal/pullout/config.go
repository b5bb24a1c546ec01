package pullout

import (
	"fmt"
	"math"

	apperrors "yarnpull/internal/errors"
)

const (
	// DefaultDistanceLimit is the work cutoff in mm
	DefaultDistanceLimit = 2.5
	// DefaultForceThresholdLow is the lower modulus window bound as a fraction of peak force
	DefaultForceThresholdLow = 0.20
	// DefaultForceThresholdHigh is the upper modulus window bound as a fraction of peak force
	DefaultForceThresholdHigh = 0.70
)

// Config holds the parameters shared by every computation on a series.
type Config struct {
	DistanceLimit      float64 `json:"distance_limit"`
	ForceThresholdLow  float64 `json:"force_threshold_low"`
	ForceThresholdHigh float64 `json:"force_threshold_high"`

	// ZeroFillFailedModulus makes recordings without a modulus count as 0.0 in the
	// modulus statistics instead of being left out.
	ZeroFillFailedModulus bool `json:"zero_fill_failed_modulus"`
}

// DefaultConfig returns the standard analysis parameters
func DefaultConfig() Config {
	return Config{
		DistanceLimit:      DefaultDistanceLimit,
		ForceThresholdLow:  DefaultForceThresholdLow,
		ForceThresholdHigh: DefaultForceThresholdHigh,
	}
}

// Validate checks the parameter ranges
func (c Config) Validate() error {
	if math.IsNaN(c.DistanceLimit) || c.DistanceLimit <= 0 || math.IsInf(c.DistanceLimit, 0) {
		return apperrors.NewConfigError(fmt.Sprintf("distance limit must be a positive number, got %v", c.DistanceLimit), nil).
			WithContext("field", "distance_limit")
	}
	if !isFraction(c.ForceThresholdLow) {
		return apperrors.NewConfigError(fmt.Sprintf("force threshold low must be within [0, 1], got %v", c.ForceThresholdLow), nil).
			WithContext("field", "force_threshold_low")
	}
	if !isFraction(c.ForceThresholdHigh) {
		return apperrors.NewConfigError(fmt.Sprintf("force threshold high must be within [0, 1], got %v", c.ForceThresholdHigh), nil).
			WithContext("field", "force_threshold_high")
	}
	if c.ForceThresholdLow > c.ForceThresholdHigh {
		return apperrors.NewConfigError(fmt.Sprintf("force threshold low (%v) exceeds force threshold high (%v)",
			c.ForceThresholdLow, c.ForceThresholdHigh), nil).
			WithContext("field", "force_threshold_low")
	}
	return nil
}

func isFraction(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
