package matcher

import "time"

// Config holds the scoring weights and cutoffs. The defaults are the tuned
// production values; all of them can be overridden at runtime through the
// settings table (custom_auto_confirm_algorithm).
type Config struct {
	SimilarityWeight float64 // Default: 0.6
	AmountWeight     float64 // Default: 0.3
	DateWeight       float64 // Default: 0.1

	// DateDiffMaxDays is a hard cutoff: candidates further apart than this
	// many days are excluded before scoring, not merely penalized.
	DateDiffMaxDays int // Default: 3

	// MinScore is the acceptance threshold for a fuzzy match (inclusive).
	MinScore float64 // Default: 0.7

	// AutoConfirmScore and AutoConfirmAmountTolerance gate system-driven
	// confirmation: score must exceed the former (strict) and the amount
	// ratio stay under the latter (strict); otherwise the match is queued
	// for human review.
	AutoConfirmScore           float64 // Default: 0.9
	AutoConfirmAmountTolerance float64 // Default: 0.05
}

// DefaultConfig returns the tuned scoring defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityWeight:           0.6,
		AmountWeight:               0.3,
		DateWeight:                 0.1,
		DateDiffMaxDays:            3,
		MinScore:                   0.7,
		AutoConfirmScore:           0.9,
		AutoConfirmAmountTolerance: 0.05,
	}
}

// Components breaks a composite score into its inputs so callers can
// surface them for review.
type Components struct {
	Similarity   float64 // Normalized description similarity in [0,1]
	AmountRatio  float64 // |amount delta| / |pending amount|
	DateDiffDays int     // Absolute day difference
}

// DateDiffDays returns the absolute whole-day difference between two dates.
// Symmetric: swapping a and b never changes the result.
func DateDiffDays(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}
