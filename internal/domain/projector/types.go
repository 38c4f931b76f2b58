package projector

import (
	"errors"
	"time"
)

// ErrInvalidRule is returned when a rule's frequency or interval cannot
// produce a schedule. Projection for that rule is fatal; other rules are
// unaffected.
var ErrInvalidRule = errors.New("invalid recurring rule")

// Frequency is the cadence unit of a recurring rule.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Valid reports whether f is one of the recognized cadences.
func (f Frequency) Valid() bool {
	return f == Daily || f == Weekly || f == Monthly
}

// Rule is the projection view of a recurring rule. Interval is the number of
// frequency units between occurrences and must be >= 1.
type Rule struct {
	ID          int64
	Description string
	Amount      float64
	Label       string
	StartDate   time.Time
	EndDate     *time.Time // nil = open-ended
	Frequency   Frequency
	Interval    int
}

// Draft is an occurrence the projector proposes. The caller diffs drafts
// against existing occurrences and persists the delta; the projector itself
// never writes.
type Draft struct {
	RuleID      int64
	Description string
	Amount      float64
	Date        time.Time
	Label       string
}

// Config holds projection window tuning.
type Config struct {
	// LookbackDays bounds how far before windowStart drafts are still
	// emitted, so recently-past occurrences stay visible when generation
	// runs late. Earlier dates are silently dropped.
	LookbackDays int
}

// DefaultConfig returns the projection defaults.
func DefaultConfig() Config {
	return Config{
		LookbackDays: 30,
	}
}
