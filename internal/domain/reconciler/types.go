package reconciler

import (
	"time"

	"github.com/billprepared/backend/internal/adapters/bankcsv"
)

// Pending is the reconciliation view of an unconfirmed ledger occurrence.
// Order matters: "first match wins" is deterministic only for the
// caller-supplied order, which callers are expected to keep stable.
type Pending struct {
	ID          int64
	RuleID      *int64 // nil for standalone occurrences
	Description string
	Amount      float64
	Date        time.Time
}

// Confirmation is a decided auto-confirmation: the occurrence keeps its
// matched amount unchanged; the record fields are echoed for the response.
type Confirmation struct {
	OccurrenceID int64     `json:"occurrence_id"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Score        float64   `json:"score"`
	Exact        bool      `json:"exact"`
}

// ReviewItem is a match strong enough to surface but not strong enough to
// apply automatically. It carries both sides so a human can decide.
type ReviewItem struct {
	OccurrenceID       int64     `json:"occurrence_id"`
	RuleID             *int64    `json:"rule_id,omitempty"`
	OldAmount          float64   `json:"old_amount"`
	NewAmount          float64   `json:"new_amount"`
	RecordDescription  string    `json:"record_description"`
	PendingDescription string    `json:"pending_description"`
	RecordDate         time.Time `json:"record_date"`
	PendingDate        time.Time `json:"pending_date"`
	Score              float64   `json:"score"`
	AmountRatio        float64   `json:"amount_ratio"`
}

// Result partitions one reconciliation pass. Every input record lands in
// exactly one of the three buckets; nothing is silently dropped.
type Result struct {
	Confirmed   []Confirmation   `json:"confirmed"`
	NeedsReview []ReviewItem     `json:"needs_review"`
	Unmatched   []bankcsv.Record `json:"unmatched"`
}
