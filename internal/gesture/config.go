package gesture

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid gesture config")

// Default classification settings.
const (
	DefaultBufferCapacity        = 64
	DefaultNoiseThreshold        = 5.0
	DefaultMinPresentPoints      = 30
	DefaultMinFlips              = 10
	DefaultFlipRatioThreshold    = 0.05
	DefaultFlipVarianceThreshold = 100.0
)

// Config holds the trajectory classification settings for a session.
// It is fixed for the lifetime of the session.
type Config struct {
	// BufferCapacity is the number of samples kept in the track buffer.
	BufferCapacity int `json:"buffer_capacity"`

	// NoiseThreshold is the displacement magnitude a vector must exceed to be kept.
	NoiseThreshold float64 `json:"noise_threshold"`

	// MinPresentPoints is the number of present samples required before classifying.
	MinPresentPoints int `json:"min_present_points"`

	// MinFlips is the number of flips required for a Circle or NotCircle verdict.
	MinFlips int `json:"min_flips"`

	// FlipRatioThreshold and FlipVarianceThreshold bound the Circle verdict.
	FlipRatioThreshold    float64 `json:"flip_ratio_threshold"`
	FlipVarianceThreshold float64 `json:"flip_variance_threshold"`
}

// DefaultConfig returns a Config with the standard thresholds.
func DefaultConfig() Config {
	return Config{
		BufferCapacity:        DefaultBufferCapacity,
		NoiseThreshold:        DefaultNoiseThreshold,
		MinPresentPoints:      DefaultMinPresentPoints,
		MinFlips:              DefaultMinFlips,
		FlipRatioThreshold:    DefaultFlipRatioThreshold,
		FlipVarianceThreshold: DefaultFlipVarianceThreshold,
	}
}

// Validate reports the first setting that is out of range.
func (c Config) Validate() error {
	switch {
	case c.BufferCapacity < 1:
		return fmt.Errorf("%w: buffer capacity %d must be at least 1", ErrInvalidConfig, c.BufferCapacity)
	case c.NoiseThreshold < 0:
		return fmt.Errorf("%w: noise threshold %v must not be negative", ErrInvalidConfig, c.NoiseThreshold)
	case c.MinPresentPoints < 0:
		return fmt.Errorf("%w: min present points %d must not be negative", ErrInvalidConfig, c.MinPresentPoints)
	case c.MinFlips < 0:
		return fmt.Errorf("%w: min flips %d must not be negative", ErrInvalidConfig, c.MinFlips)
	case c.FlipRatioThreshold < 0:
		return fmt.Errorf("%w: flip ratio threshold %v must not be negative", ErrInvalidConfig, c.FlipRatioThreshold)
	case c.FlipVarianceThreshold < 0:
		return fmt.Errorf("%w: flip variance threshold %v must not be negative", ErrInvalidConfig, c.FlipVarianceThreshold)
	}
	return nil
}
