package service

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/billprepared/backend/internal/adapters/bankcsv"
	"github.com/billprepared/backend/internal/domain/detector"
	"github.com/billprepared/backend/internal/domain/reconciler"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// DetectionReport is the outcome of one recurring-pattern detection pass
// over an uploaded bank CSV.
type DetectionReport struct {
	PassID     string               `json:"pass_id"`
	RowCount   int                  `json:"row_count"`
	Candidates []detector.Candidate `json:"candidates"`
	Skipped    []bankcsv.SkippedRow `json:"skipped_rows,omitempty"`
}

// ReconciliationReport is the outcome of one reconciliation pass. The
// confirmations it lists have already been applied to storage.
type ReconciliationReport struct {
	PassID      string                    `json:"pass_id"`
	RowCount    int                       `json:"row_count"`
	Confirmed   []reconciler.Confirmation `json:"confirmed"`
	NeedsReview []reconciler.ReviewItem   `json:"needs_review"`
	Unmatched   []bankcsv.Record          `json:"unmatched"`
	Skipped     []bankcsv.SkippedRow      `json:"skipped_rows,omitempty"`
}

// ImportService runs bank CSV imports: recurring-pattern detection and
// reconciliation of records against pending ledger occurrences.
type ImportService struct {
	storage  storage.Repository
	settings *SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewImportService creates a new import service.
func NewImportService(store storage.Repository, settings *SettingsService, logger *slog.Logger) *ImportService {
	return &ImportService{
		storage:  store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// DetectRecurring parses a bank CSV and reports the recurring patterns
// found in it. Nothing is written; the caller decides which candidates
// become rules.
func (s *ImportService) DetectRecurring(r io.Reader) (*DetectionReport, error) {
	records, skipped, err := bankcsv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	candidates := detector.Detect(records, s.settings.DetectorConfig())

	report := &DetectionReport{
		PassID:     uuid.NewString(),
		RowCount:   len(records),
		Candidates: candidates,
		Skipped:    skipped,
	}

	s.logger.Info("recurring detection pass finished",
		"pass_id", report.PassID,
		"rows", len(records),
		"skipped", len(skipped),
		"candidates", len(candidates),
	)
	return report, nil
}

// ReconcileCSV parses a bank CSV, matches its records against the pending
// unconfirmed occurrences, and applies every confirmation of the pass in
// one storage transaction. A storage failure aborts the whole pass.
func (s *ImportService) ReconcileCSV(r io.Reader) (*ReconciliationReport, error) {
	records, skipped, err := bankcsv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	unconfirmed, err := s.storage.ListUnconfirmed()
	if err != nil {
		return nil, fmt.Errorf("failed to load pending occurrences: %w", err)
	}

	pending := make([]reconciler.Pending, 0, len(unconfirmed))
	for _, o := range unconfirmed {
		pending = append(pending, reconciler.Pending{
			ID:          o.ID,
			RuleID:      o.RecurringID,
			Description: o.Description,
			Amount:      o.Amount,
			Date:        o.Date,
		})
	}

	result := reconciler.Reconcile(records, pending, s.settings.MatcherConfig())

	// Auto-confirmation flips is_confirmed only; the occurrence keeps its
	// stored amount and date. Amount changes go through the review flow.
	confirmedIDs := make([]int64, 0, len(result.Confirmed))
	for _, c := range result.Confirmed {
		confirmedIDs = append(confirmedIDs, c.OccurrenceID)
	}
	if err := s.storage.ApplyReconciliation(confirmedIDs); err != nil {
		return nil, fmt.Errorf("reconciliation pass aborted: %w", err)
	}

	report := &ReconciliationReport{
		PassID:      uuid.NewString(),
		RowCount:    len(records),
		Confirmed:   result.Confirmed,
		NeedsReview: result.NeedsReview,
		Unmatched:   result.Unmatched,
		Skipped:     skipped,
	}

	s.logger.Info("reconciliation pass finished",
		"pass_id", report.PassID,
		"rows", len(records),
		"confirmed", len(result.Confirmed),
		"needs_review", len(result.NeedsReview),
		"unmatched", len(result.Unmatched),
	)
	return report, nil
}

// ConfirmUpdate accepts a needs-review item: the occurrence confirms at
// the new amount. With updateFuture the amount also propagates to the
// owning rule and its unconfirmed occurrences dated strictly after today,
// in the same transaction.
func (s *ImportService) ConfirmUpdate(occurrenceID int64, amount float64, updateFuture bool) error {
	occ, err := s.storage.GetOccurrence(occurrenceID)
	if err != nil {
		return err
	}

	if updateFuture && occ.RecurringID != nil {
		if err := s.storage.ConfirmAndPropagate(occurrenceID, *occ.RecurringID, amount, s.today()); err != nil {
			return err
		}
		s.logger.Info("review accepted with propagation",
			"occurrence_id", occurrenceID,
			"rule_id", *occ.RecurringID,
			"amount", amount,
		)
		return nil
	}

	if err := s.storage.ConfirmOccurrence(occurrenceID, &amount); err != nil {
		return err
	}

	s.logger.Info("review accepted", "occurrence_id", occurrenceID, "amount", amount)
	return nil
}

// today returns the current day at midnight UTC.
func (s *ImportService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
