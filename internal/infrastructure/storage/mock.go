package storage

import (
	"sort"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	occurrences map[int64]*Occurrence
	rules       map[int64]*RecurringRule
	settings    map[string]string
	balance     float64
	showAdv     bool
	nextOccID   int64
	nextRuleID  int64

	// Hooks for test assertions
	InsertOccurrenceCalled    bool
	LastInsertedOccurrence    *Occurrence
	ConfirmOccurrenceCalled   bool
	ApplyReconciliationCalled bool
	LastReconciliationIDs     []int64
	PropagateRuleAmountCalled bool
	ConfirmAndPropagateCalled bool
	ReplaceFutureCalled       bool
	LastReplacedRuleID        int64
	LastReplacedFrom          time.Time
	SetSettingCalled          bool

	// Error injection for testing error paths
	InsertOccurrenceErr    error
	GetOccurrenceErr       error
	ListUnconfirmedErr     error
	ConfirmOccurrenceErr   error
	ApplyReconciliationErr error
	PropagateRuleAmountErr error
	ConfirmAndPropagateErr error
	ReplaceFutureErr       error
	InsertRuleErr          error
	GetRuleErr             error
	GetSettingErr          error
	SetSettingErr          error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		occurrences: make(map[int64]*Occurrence),
		rules:       make(map[int64]*RecurringRule),
		settings:    make(map[string]string),
		nextOccID:   1,
		nextRuleID:  1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// ================================================================
// OCCURRENCES
// ================================================================

// InsertOccurrence inserts a transaction into the in-memory map
func (m *MockRepository) InsertOccurrence(o *Occurrence) (int64, error) {
	m.InsertOccurrenceCalled = true
	m.LastInsertedOccurrence = o
	if m.InsertOccurrenceErr != nil {
		return 0, m.InsertOccurrenceErr
	}

	copied := *o
	copied.ID = m.nextOccID
	m.nextOccID++
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	m.occurrences[copied.ID] = &copied

	return copied.ID, nil
}

// InsertOccurrences inserts a batch of transactions
func (m *MockRepository) InsertOccurrences(occs []Occurrence) error {
	for i := range occs {
		if _, err := m.InsertOccurrence(&occs[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetOccurrence retrieves a transaction from the in-memory map
func (m *MockRepository) GetOccurrence(id int64) (*Occurrence, error) {
	if m.GetOccurrenceErr != nil {
		return nil, m.GetOccurrenceErr
	}
	o, ok := m.occurrences[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *o
	return &copied, nil
}

// ListOccurrences returns transactions matching the given filters
func (m *MockRepository) ListOccurrences(filters OccurrenceFilters) ([]Occurrence, error) {
	var matching []Occurrence
	for _, o := range m.occurrences {
		if !filters.Start.IsZero() && o.Date.Before(filters.Start) {
			continue
		}
		if !filters.End.IsZero() && o.Date.After(filters.End) {
			continue
		}
		if filters.Confirmed != nil && o.IsConfirmed != *filters.Confirmed {
			continue
		}
		if filters.RecurringID != nil {
			if o.RecurringID == nil || *o.RecurringID != *filters.RecurringID {
				continue
			}
		}
		matching = append(matching, *o)
	}

	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].Date.Equal(matching[j].Date) {
			return matching[i].Date.Before(matching[j].Date)
		}
		return matching[i].ID < matching[j].ID
	})

	// Apply pagination
	start := filters.Offset
	if start > len(matching) {
		start = len(matching)
	}
	end := len(matching)
	if filters.Limit > 0 && start+filters.Limit < end {
		end = start + filters.Limit
	}

	return matching[start:end], nil
}

// ListUnconfirmed returns all unconfirmed transactions ordered by date
func (m *MockRepository) ListUnconfirmed() ([]Occurrence, error) {
	if m.ListUnconfirmedErr != nil {
		return nil, m.ListUnconfirmedErr
	}
	confirmed := false
	return m.ListOccurrences(OccurrenceFilters{Confirmed: &confirmed})
}

// UpdateOccurrence overwrites a transaction's mutable fields
func (m *MockRepository) UpdateOccurrence(o *Occurrence) error {
	existing, ok := m.occurrences[o.ID]
	if !ok {
		return ErrNotFound
	}
	copied := *o
	copied.CreatedAt = existing.CreatedAt
	m.occurrences[o.ID] = &copied
	return nil
}

// DeleteOccurrence removes a transaction
func (m *MockRepository) DeleteOccurrence(id int64) error {
	if _, ok := m.occurrences[id]; !ok {
		return ErrNotFound
	}
	delete(m.occurrences, id)
	return nil
}

// ConfirmOccurrence marks a transaction confirmed, optionally at a new amount
func (m *MockRepository) ConfirmOccurrence(id int64, newAmount *float64) error {
	m.ConfirmOccurrenceCalled = true
	if m.ConfirmOccurrenceErr != nil {
		return m.ConfirmOccurrenceErr
	}
	o, ok := m.occurrences[id]
	if !ok {
		return ErrNotFound
	}
	o.IsConfirmed = true
	if newAmount != nil {
		o.Amount = *newAmount
	}
	return nil
}

// ApplyReconciliation marks the given occurrences confirmed, leaving their
// stored amount and date untouched. On injected error nothing is mutated,
// mirroring the transaction rollback.
func (m *MockRepository) ApplyReconciliation(occurrenceIDs []int64) error {
	m.ApplyReconciliationCalled = true
	m.LastReconciliationIDs = occurrenceIDs
	if m.ApplyReconciliationErr != nil {
		return m.ApplyReconciliationErr
	}

	for _, id := range occurrenceIDs {
		if _, ok := m.occurrences[id]; !ok {
			return ErrNotFound
		}
	}
	for _, id := range occurrenceIDs {
		m.occurrences[id].IsConfirmed = true
	}
	return nil
}

// PropagateRuleAmount sets a rule's amount and pushes it to the rule's
// unconfirmed occurrences dated strictly after the given day
func (m *MockRepository) PropagateRuleAmount(ruleID int64, amount float64, after time.Time) error {
	m.PropagateRuleAmountCalled = true
	if m.PropagateRuleAmountErr != nil {
		return m.PropagateRuleAmountErr
	}

	rule, ok := m.rules[ruleID]
	if !ok {
		return ErrNotFound
	}
	rule.Amount = amount

	for _, o := range m.occurrences {
		if o.RecurringID == nil || *o.RecurringID != ruleID {
			continue
		}
		if o.IsConfirmed || !o.Date.After(after) {
			continue
		}
		o.Amount = amount
	}
	return nil
}

// ConfirmAndPropagate confirms one occurrence at a new amount and
// propagates that amount to the owning rule's future unconfirmed occurrences
func (m *MockRepository) ConfirmAndPropagate(occurrenceID, ruleID int64, amount float64, after time.Time) error {
	m.ConfirmAndPropagateCalled = true
	if m.ConfirmAndPropagateErr != nil {
		return m.ConfirmAndPropagateErr
	}

	o, ok := m.occurrences[occurrenceID]
	if !ok {
		return ErrNotFound
	}
	if err := m.PropagateRuleAmount(ruleID, amount, after); err != nil {
		return err
	}
	o.IsConfirmed = true
	o.Amount = amount
	return nil
}

// ReplaceFutureOccurrences deletes a rule's occurrences dated on or after
// from and inserts the given replacements
func (m *MockRepository) ReplaceFutureOccurrences(ruleID int64, from time.Time, occs []Occurrence) error {
	m.ReplaceFutureCalled = true
	m.LastReplacedRuleID = ruleID
	m.LastReplacedFrom = from
	if m.ReplaceFutureErr != nil {
		return m.ReplaceFutureErr
	}

	for id, o := range m.occurrences {
		if o.RecurringID != nil && *o.RecurringID == ruleID && !o.Date.Before(from) {
			delete(m.occurrences, id)
		}
	}
	return m.InsertOccurrences(occs)
}

// ================================================================
// RECURRING RULES
// ================================================================

// InsertRule inserts a rule into the in-memory map
func (m *MockRepository) InsertRule(r *RecurringRule) (int64, error) {
	if m.InsertRuleErr != nil {
		return 0, m.InsertRuleErr
	}

	copied := *r
	copied.ID = m.nextRuleID
	m.nextRuleID++
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	m.rules[copied.ID] = &copied

	return copied.ID, nil
}

// GetRule retrieves a rule from the in-memory map
func (m *MockRepository) GetRule(id int64) (*RecurringRule, error) {
	if m.GetRuleErr != nil {
		return nil, m.GetRuleErr
	}
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

// ListRules returns all rules ordered by ID
func (m *MockRepository) ListRules() ([]RecurringRule, error) {
	var rules []RecurringRule
	for _, r := range m.rules {
		rules = append(rules, *r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

// UpdateRule overwrites a rule's mutable fields
func (m *MockRepository) UpdateRule(r *RecurringRule) error {
	existing, ok := m.rules[r.ID]
	if !ok {
		return ErrNotFound
	}
	copied := *r
	copied.CreatedAt = existing.CreatedAt
	m.rules[r.ID] = &copied
	return nil
}

// DeleteRule removes a rule and all of its occurrences
func (m *MockRepository) DeleteRule(id int64) error {
	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	for occID, o := range m.occurrences {
		if o.RecurringID != nil && *o.RecurringID == id {
			delete(m.occurrences, occID)
		}
	}
	return nil
}

// ================================================================
// SETTINGS
// ================================================================

// GetSetting returns the raw value for a key
func (m *MockRepository) GetSetting(key string) (string, error) {
	if m.GetSettingErr != nil {
		return "", m.GetSettingErr
	}
	value, ok := m.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetSetting upserts a key
func (m *MockRepository) SetSetting(key, value string) error {
	m.SetSettingCalled = true
	if m.SetSettingErr != nil {
		return m.SetSettingErr
	}
	m.settings[key] = value
	return nil
}

// ListSettings returns all settings
func (m *MockRepository) ListSettings() ([]Setting, error) {
	var settings []Setting
	for k, v := range m.settings {
		settings = append(settings, Setting{Key: k, Value: v})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

// ================================================================
// USER
// ================================================================

// GetBalance returns the current balance
func (m *MockRepository) GetBalance() (float64, error) {
	return m.balance, nil
}

// SetBalance sets the current balance
func (m *MockRepository) SetBalance(v float64) error {
	m.balance = v
	return nil
}

// GetShowAdvanced returns the advanced-mode preference
func (m *MockRepository) GetShowAdvanced() (bool, error) {
	return m.showAdv, nil
}

// SetShowAdvanced sets the advanced-mode preference
func (m *MockRepository) SetShowAdvanced(v bool) error {
	m.showAdv = v
	return nil
}

// ================================================================
// TEST HELPERS
// ================================================================

// AddOccurrence adds a transaction directly (for test setup)
func (m *MockRepository) AddOccurrence(o *Occurrence) {
	if o.ID == 0 {
		o.ID = m.nextOccID
		m.nextOccID++
	} else if o.ID >= m.nextOccID {
		m.nextOccID = o.ID + 1
	}
	m.occurrences[o.ID] = o
}

// AddRule adds a rule directly (for test setup)
func (m *MockRepository) AddRule(r *RecurringRule) {
	if r.ID == 0 {
		r.ID = m.nextRuleID
		m.nextRuleID++
	} else if r.ID >= m.nextRuleID {
		m.nextRuleID = r.ID + 1
	}
	m.rules[r.ID] = r
}

// GetAllOccurrences returns all stored transactions (for assertions)
func (m *MockRepository) GetAllOccurrences() []Occurrence {
	occs, _ := m.ListOccurrences(OccurrenceFilters{})
	return occs
}

// Reset clears all data and flags (for reuse between tests)
func (m *MockRepository) Reset() {
	m.occurrences = make(map[int64]*Occurrence)
	m.rules = make(map[int64]*RecurringRule)
	m.settings = make(map[string]string)
	m.balance = 0
	m.showAdv = false
	m.nextOccID = 1
	m.nextRuleID = 1
	m.InsertOccurrenceCalled = false
	m.LastInsertedOccurrence = nil
	m.ConfirmOccurrenceCalled = false
	m.ApplyReconciliationCalled = false
	m.LastReconciliationIDs = nil
	m.PropagateRuleAmountCalled = false
	m.ConfirmAndPropagateCalled = false
	m.ReplaceFutureCalled = false
	m.LastReplacedRuleID = 0
	m.LastReplacedFrom = time.Time{}
	m.SetSettingCalled = false
	m.InsertOccurrenceErr = nil
	m.GetOccurrenceErr = nil
	m.ListUnconfirmedErr = nil
	m.ConfirmOccurrenceErr = nil
	m.ApplyReconciliationErr = nil
	m.PropagateRuleAmountErr = nil
	m.ConfirmAndPropagateErr = nil
	m.ReplaceFutureErr = nil
	m.InsertRuleErr = nil
	m.GetRuleErr = nil
	m.GetSettingErr = nil
	m.SetSettingErr = nil
}
