package detector

import (
	"time"

	"github.com/billprepared/backend/internal/domain/projector"
)

// Config holds detection tuning. Every field maps to a key of the
// custom_recurring_algorithm setting so sensitivity stays adjustable at
// runtime.
type Config struct {
	// MinOccurrences is the smallest group that can become a candidate.
	MinOccurrences int // Default: 2

	// IntervalTolerance is the fraction of the mean gap that individual
	// gaps may deviate by. An absolute floor of 7 days applies so short
	// cycles are not rejected over weekend drift.
	IntervalTolerance float64 // Default: 0.3

	// AmountTolerance is the maximum relative deviation of each amount
	// from the group mean.
	AmountTolerance float64 // Default: 0.1

	// Unit sizes in days used to round the mean gap into an interval.
	DailyGapDays   int // Default: 1
	WeeklyGapDays  int // Default: 7
	MonthlyGapDays int // Default: 30
}

// DefaultConfig returns the tuned detection defaults.
func DefaultConfig() Config {
	return Config{
		MinOccurrences:    2,
		IntervalTolerance: 0.3,
		AmountTolerance:   0.1,
		DailyGapDays:      1,
		WeeklyGapDays:     7,
		MonthlyGapDays:    30,
	}
}

// Candidate is an inferred recurring-rule shape. Candidates are a report
// for the user to confirm; detection never persists them.
type Candidate struct {
	// Description is the most frequent raw description in the group,
	// first-encountered winning ties.
	Description string              `json:"description"`
	Amount      float64             `json:"amount"`
	Frequency   projector.Frequency `json:"frequency"`
	Interval    int                 `json:"interval"`
	StartDate   time.Time           `json:"start_date"`
	LastDate    time.Time           `json:"last_date"`
	Occurrences int                 `json:"occurrences"`

	// UniqueDescriptions counts the distinct raw descriptions collapsed
	// into this candidate; DescriptionExamples holds up to three of them
	// so the variance can be shown to the user.
	UniqueDescriptions  int      `json:"unique_descriptions"`
	DescriptionExamples []string `json:"description_examples"`
}
