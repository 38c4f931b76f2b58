package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	OccurrenceRepository
	RuleRepository
	SettingsRepository
	UserRepository
	Close() error
}

// OccurrenceRepository handles ledger transaction operations
type OccurrenceRepository interface {
	// InsertOccurrence inserts a transaction and returns its ID
	InsertOccurrence(o *Occurrence) (int64, error)

	// InsertOccurrences inserts a batch of transactions in one transaction
	InsertOccurrences(occs []Occurrence) error

	// GetOccurrence retrieves a transaction by ID (ErrNotFound when absent)
	GetOccurrence(id int64) (*Occurrence, error)

	// ListOccurrences returns transactions matching the given filters
	ListOccurrences(filters OccurrenceFilters) ([]Occurrence, error)

	// ListUnconfirmed returns all unconfirmed transactions ordered by date
	ListUnconfirmed() ([]Occurrence, error)

	// UpdateOccurrence overwrites a transaction's mutable fields
	UpdateOccurrence(o *Occurrence) error

	// DeleteOccurrence removes a transaction
	DeleteOccurrence(id int64) error

	// ConfirmOccurrence marks a transaction confirmed, optionally at a new amount
	ConfirmOccurrence(id int64, newAmount *float64) error

	// ApplyReconciliation marks the given occurrences confirmed in one
	// transaction; any failure rolls the whole pass back. Amount and date
	// stay as stored: confirmation never rewrites the ledger row.
	ApplyReconciliation(occurrenceIDs []int64) error

	// PropagateRuleAmount sets a rule's amount and pushes it to the rule's
	// unconfirmed occurrences dated strictly after the given day, atomically
	PropagateRuleAmount(ruleID int64, amount float64, after time.Time) error

	// ConfirmAndPropagate confirms one occurrence at a new amount and
	// propagates that amount to the owning rule and the rule's unconfirmed
	// occurrences dated strictly after the given day, all atomically
	ConfirmAndPropagate(occurrenceID, ruleID int64, amount float64, after time.Time) error

	// ReplaceFutureOccurrences deletes a rule's occurrences dated on or
	// after from and inserts the given replacements, atomically
	ReplaceFutureOccurrences(ruleID int64, from time.Time, occs []Occurrence) error
}

// OccurrenceFilters defines filters for listing transactions
type OccurrenceFilters struct {
	Start       time.Time // Inclusive lower date bound (zero = unbounded)
	End         time.Time // Inclusive upper date bound (zero = unbounded)
	Confirmed   *bool     // Filter by confirmation state (nil = all)
	RecurringID *int64    // Filter by owning rule (nil = all)
	Limit       int       // Max results (0 = no limit)
	Offset      int       // Pagination offset
}

// RuleRepository handles recurring rule operations
type RuleRepository interface {
	// InsertRule inserts a rule and returns its ID
	InsertRule(r *RecurringRule) (int64, error)

	// GetRule retrieves a rule by ID (ErrNotFound when absent)
	GetRule(id int64) (*RecurringRule, error)

	// ListRules returns all rules ordered by ID
	ListRules() ([]RecurringRule, error)

	// UpdateRule overwrites a rule's mutable fields
	UpdateRule(r *RecurringRule) error

	// DeleteRule removes a rule and all of its occurrences, atomically
	DeleteRule(id int64) error
}

// SettingsRepository handles the runtime-tunable settings table
type SettingsRepository interface {
	// GetSetting returns the raw value for a key (ErrNotFound when absent)
	GetSetting(key string) (string, error)

	// SetSetting upserts a key
	SetSetting(key, value string) error

	// ListSettings returns all settings
	ListSettings() ([]Setting, error)
}

// UserRepository handles the single-user balance and preference rows
type UserRepository interface {
	// GetBalance returns the current balance
	GetBalance() (float64, error)

	// SetBalance sets the current balance
	SetBalance(v float64) error

	// GetShowAdvanced returns the advanced-mode preference
	GetShowAdvanced() (bool, error)

	// SetShowAdvanced sets the advanced-mode preference
	SetShowAdvanced(v bool) error
}
