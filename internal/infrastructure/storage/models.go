package storage

import "time"

// Occurrence is one ledger transaction: either a standalone entry or an
// occurrence generated from a recurring rule.
type Occurrence struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Label       string    `json:"label,omitempty"`
	IsRecurring bool      `json:"is_recurring"`
	RecurringID *int64    `json:"recurring_id,omitempty"`
	IsConfirmed bool      `json:"is_confirmed"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecurringRule defines a repeating schedule that occurrences are
// generated from.
type RecurringRule struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	Amount      float64    `json:"amount"`
	StartDate   time.Time  `json:"start_date"`
	Label       string     `json:"label,omitempty"`
	Frequency   string     `json:"frequency"`
	Interval    int        `json:"interval"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Setting is one tuning knob. Value is either a scalar or a JSON blob,
// the key decides which.
type Setting struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}
