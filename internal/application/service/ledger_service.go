package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/billprepared/backend/internal/domain/projector"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

// Edit modes for transactions that belong to a recurring rule.
const (
	EditSingle = "single"
	EditFuture = "future"
)

// ErrUnknownEditMode is returned when an edit mode is neither "single" nor
// "future".
var ErrUnknownEditMode = errors.New("unknown edit mode")

// LedgerService orchestrates transaction and recurring-rule operations:
// CRUD, schedule projection, and the single/future edit semantics.
type LedgerService struct {
	storage  storage.Repository
	settings *SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store storage.Repository, settings *SettingsService, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		storage:  store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// today returns the current day at midnight UTC.
func (s *LedgerService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// forecastEnd returns the end of the visible ledger window.
func (s *LedgerService) forecastEnd() time.Time {
	return s.today().AddDate(0, s.settings.ForecastMonths(), 0)
}

// ================================================================
// TRANSACTIONS
// ================================================================

// ListTransactions returns transactions for the given filters. A zero End
// defaults to the forecast window from settings.
func (s *LedgerService) ListTransactions(filters storage.OccurrenceFilters) ([]storage.Occurrence, error) {
	if filters.End.IsZero() {
		filters.End = s.forecastEnd()
	}
	return s.storage.ListOccurrences(filters)
}

// GetTransaction retrieves one transaction.
func (s *LedgerService) GetTransaction(id int64) (*storage.Occurrence, error) {
	return s.storage.GetOccurrence(id)
}

// CreateTransaction inserts a standalone transaction.
func (s *LedgerService) CreateTransaction(o *storage.Occurrence) (int64, error) {
	id, err := s.storage.InsertOccurrence(o)
	if err != nil {
		return 0, err
	}

	s.logger.Info("transaction created", "id", id, "description", o.Description, "amount", o.Amount)
	return id, nil
}

// UpdateTransaction applies an edit. For occurrences generated from a
// recurring rule the mode decides the blast radius: EditSingle splits the
// occurrence off its rule as a standalone transaction, EditFuture rewrites
// the rule from the edited date onward and regenerates its future
// occurrences. Standalone transactions update in place regardless of mode.
func (s *LedgerService) UpdateTransaction(o *storage.Occurrence, mode string) error {
	existing, err := s.storage.GetOccurrence(o.ID)
	if err != nil {
		return err
	}

	if existing.RecurringID == nil {
		updated := *existing
		updated.Description = o.Description
		updated.Amount = o.Amount
		updated.Date = o.Date
		updated.Label = o.Label
		updated.IsConfirmed = o.IsConfirmed
		return s.storage.UpdateOccurrence(&updated)
	}

	switch mode {
	case EditFuture:
		return s.editFuture(existing, o)
	case EditSingle, "":
		return s.editSingle(existing, o)
	default:
		return fmt.Errorf("%w %q", ErrUnknownEditMode, mode)
	}
}

// editSingle detaches one generated occurrence from its rule: the edited
// values become a standalone transaction and the generated row is removed.
func (s *LedgerService) editSingle(existing, edit *storage.Occurrence) error {
	standalone := storage.Occurrence{
		Description: edit.Description,
		Amount:      edit.Amount,
		Date:        edit.Date,
		Label:       edit.Label,
		IsConfirmed: edit.IsConfirmed,
	}
	if _, err := s.storage.InsertOccurrence(&standalone); err != nil {
		return err
	}
	if err := s.storage.DeleteOccurrence(existing.ID); err != nil {
		return err
	}

	s.logger.Info("occurrence split off rule",
		"occurrence_id", existing.ID,
		"rule_id", *existing.RecurringID,
	)
	return nil
}

// editFuture moves the owning rule's schedule to the edited values from
// the edited date onward and regenerates the future occurrences.
func (s *LedgerService) editFuture(existing, edit *storage.Occurrence) error {
	ruleID := *existing.RecurringID
	rule, err := s.storage.GetRule(ruleID)
	if err != nil {
		return err
	}

	rule.Description = edit.Description
	rule.Amount = edit.Amount
	rule.Label = edit.Label
	rule.StartDate = edit.Date
	if err := s.storage.UpdateRule(rule); err != nil {
		return err
	}

	occs, err := s.projectOccurrences(rule, true)
	if err != nil {
		return err
	}
	if err := s.storage.ReplaceFutureOccurrences(ruleID, edit.Date, occs); err != nil {
		return err
	}

	s.logger.Info("rule rewritten from occurrence",
		"rule_id", ruleID,
		"effective", edit.Date.Format("2006-01-02"),
	)
	return nil
}

// DeleteTransaction removes a transaction.
func (s *LedgerService) DeleteTransaction(id int64) error {
	return s.storage.DeleteOccurrence(id)
}

// ConfirmTransaction marks a transaction confirmed at its current amount.
func (s *LedgerService) ConfirmTransaction(id int64) error {
	return s.storage.ConfirmOccurrence(id, nil)
}

// ================================================================
// RECURRING RULES
// ================================================================

// CreateRule validates and inserts a rule, then generates its occurrences
// through the forecast window, starting with the rule's start date.
func (s *LedgerService) CreateRule(r *storage.RecurringRule) (int64, error) {
	if err := validateRule(r); err != nil {
		return 0, err
	}

	id, err := s.storage.InsertRule(r)
	if err != nil {
		return 0, err
	}
	r.ID = id

	occs, err := s.projectOccurrences(r, true)
	if err != nil {
		return 0, err
	}
	if err := s.storage.InsertOccurrences(occs); err != nil {
		return 0, err
	}

	s.logger.Info("recurring rule created",
		"rule_id", id,
		"frequency", r.Frequency,
		"interval", r.Interval,
		"occurrences", len(occs),
	)
	return id, nil
}

// GetRule retrieves one rule.
func (s *LedgerService) GetRule(id int64) (*storage.RecurringRule, error) {
	return s.storage.GetRule(id)
}

// ListRules returns all rules.
func (s *LedgerService) ListRules() ([]storage.RecurringRule, error) {
	return s.storage.ListRules()
}

// UpdateRule applies a rule edit. An amount-or-text-only edit keeps the
// generated occurrences and propagates the amount to the future
// unconfirmed ones; a schedule change regenerates them.
func (s *LedgerService) UpdateRule(r *storage.RecurringRule) error {
	if err := validateRule(r); err != nil {
		return err
	}

	existing, err := s.storage.GetRule(r.ID)
	if err != nil {
		return err
	}

	if sameSchedule(existing, r) {
		if err := s.storage.UpdateRule(r); err != nil {
			return err
		}
		if existing.Amount != r.Amount {
			if err := s.storage.PropagateRuleAmount(r.ID, r.Amount, s.today()); err != nil {
				return err
			}
		}
		s.logger.Info("recurring rule updated", "rule_id", r.ID)
		return nil
	}

	// Schedule changed: regenerate from today or from the new start,
	// whichever is later. Past occurrences are left alone.
	if err := s.storage.UpdateRule(r); err != nil {
		return err
	}

	from := s.today()
	includeStart := false
	if r.StartDate.After(from) {
		from = r.StartDate
		includeStart = true
	}

	occs, err := s.projectOccurrences(r, includeStart)
	if err != nil {
		return err
	}
	if err := s.storage.ReplaceFutureOccurrences(r.ID, from, occs); err != nil {
		return err
	}

	s.logger.Info("recurring rule rescheduled", "rule_id", r.ID, "occurrences", len(occs))
	return nil
}

// DeleteRule removes a rule and its occurrences.
func (s *LedgerService) DeleteRule(id int64) error {
	if err := s.storage.DeleteRule(id); err != nil {
		return err
	}

	s.logger.Info("recurring rule deleted", "rule_id", id)
	return nil
}

// ================================================================
// BALANCE AND PREFERENCES
// ================================================================

// Balance returns the current balance.
func (s *LedgerService) Balance() (float64, error) {
	return s.storage.GetBalance()
}

// SetBalance sets the current balance.
func (s *LedgerService) SetBalance(v float64) error {
	return s.storage.SetBalance(v)
}

// ShowAdvanced returns the advanced-mode preference.
func (s *LedgerService) ShowAdvanced() (bool, error) {
	return s.storage.GetShowAdvanced()
}

// EnableAdvanced turns the advanced-mode preference on. The preference is
// one-way: once enabled it stays enabled.
func (s *LedgerService) EnableAdvanced() error {
	return s.storage.SetShowAdvanced(true)
}

// ================================================================
// HELPERS
// ================================================================

// projectOccurrences runs the schedule projector for a rule over the
// forecast window and converts the drafts to storable occurrences. When
// includeStart is set the rule's start date itself is emitted first.
func (s *LedgerService) projectOccurrences(r *storage.RecurringRule, includeStart bool) ([]storage.Occurrence, error) {
	rule := toProjectorRule(r)

	drafts, err := projector.Project(rule, s.today(), s.forecastEnd(), projector.DefaultConfig())
	if err != nil {
		return nil, err
	}

	var occs []storage.Occurrence
	if includeStart {
		occs = append(occs, storage.Occurrence{
			Description: r.Description,
			Amount:      r.Amount,
			Date:        r.StartDate,
			Label:       r.Label,
			IsRecurring: true,
			RecurringID: &r.ID,
		})
	}
	for _, d := range drafts {
		occs = append(occs, storage.Occurrence{
			Description: d.Description,
			Amount:      d.Amount,
			Date:        d.Date,
			Label:       d.Label,
			IsRecurring: true,
			RecurringID: &r.ID,
		})
	}
	return occs, nil
}

func toProjectorRule(r *storage.RecurringRule) projector.Rule {
	return projector.Rule{
		ID:          r.ID,
		Description: r.Description,
		Amount:      r.Amount,
		Label:       r.Label,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Frequency:   projector.Frequency(r.Frequency),
		Interval:    r.Interval,
	}
}

func validateRule(r *storage.RecurringRule) error {
	if !projector.Frequency(r.Frequency).Valid() {
		return fmt.Errorf("%w: unknown frequency %q", projector.ErrInvalidRule, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be >= 1", projector.ErrInvalidRule)
	}
	return nil
}

func sameSchedule(a, b *storage.RecurringRule) bool {
	if !a.StartDate.Equal(b.StartDate) || a.Frequency != b.Frequency || a.Interval != b.Interval {
		return false
	}
	if (a.EndDate == nil) != (b.EndDate == nil) {
		return false
	}
	if a.EndDate != nil && !a.EndDate.Equal(*b.EndDate) {
		return false
	}
	return true
}
