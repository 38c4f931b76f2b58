package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// dateLayout is how occurrence and rule dates are stored. Plain ISO dates
// keep SQLite's lexicographic ordering aligned with chronological order.
const dateLayout = "2006-01-02"

// Storage provides SQLite database access for the ledger.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// ================================================================
// OCCURRENCES
// ================================================================

// InsertOccurrence inserts a transaction and returns its ID
func (s *Storage) InsertOccurrence(o *Occurrence) (int64, error) {
	query := `
		INSERT INTO transactions
		(description, amount, date, label, is_recurring, recurring_id, is_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		o.Description,
		o.Amount,
		o.Date.Format(dateLayout),
		o.Label,
		o.IsRecurring,
		o.RecurringID,
		o.IsConfirmed,
	)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// InsertOccurrences inserts a batch of transactions in one transaction
func (s *Storage) InsertOccurrences(occs []Occurrence) error {
	if len(occs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := insertOccurrencesTx(tx, occs); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func insertOccurrencesTx(tx *sql.Tx, occs []Occurrence) error {
	stmt, err := tx.Prepare(`
		INSERT INTO transactions
		(description, amount, date, label, is_recurring, recurring_id, is_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, o := range occs {
		_, err := stmt.Exec(
			o.Description,
			o.Amount,
			o.Date.Format(dateLayout),
			o.Label,
			o.IsRecurring,
			o.RecurringID,
			o.IsConfirmed,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetOccurrence retrieves a transaction by ID
func (s *Storage) GetOccurrence(id int64) (*Occurrence, error) {
	query := `
		SELECT id, description, amount, date, label, is_recurring,
		       recurring_id, is_confirmed, created_at
		FROM transactions WHERE id = ?
	`

	o, err := scanOccurrence(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

// ListOccurrences returns transactions matching the given filters,
// ordered by date then ID
func (s *Storage) ListOccurrences(filters OccurrenceFilters) ([]Occurrence, error) {
	query := `
		SELECT id, description, amount, date, label, is_recurring,
		       recurring_id, is_confirmed, created_at
		FROM transactions WHERE 1=1
	`
	var args []any

	if !filters.Start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, filters.Start.Format(dateLayout))
	}
	if !filters.End.IsZero() {
		query += ` AND date <= ?`
		args = append(args, filters.End.Format(dateLayout))
	}
	if filters.Confirmed != nil {
		query += ` AND is_confirmed = ?`
		args = append(args, *filters.Confirmed)
	}
	if filters.RecurringID != nil {
		query += ` AND recurring_id = ?`
		args = append(args, *filters.RecurringID)
	}

	query += ` ORDER BY date, id`

	if filters.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filters.Limit, filters.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectOccurrences(rows)
}

// ListUnconfirmed returns all unconfirmed transactions ordered by date
func (s *Storage) ListUnconfirmed() ([]Occurrence, error) {
	query := `
		SELECT id, description, amount, date, label, is_recurring,
		       recurring_id, is_confirmed, created_at
		FROM transactions
		WHERE is_confirmed = 0
		ORDER BY date, id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectOccurrences(rows)
}

// UpdateOccurrence overwrites a transaction's mutable fields
func (s *Storage) UpdateOccurrence(o *Occurrence) error {
	query := `
		UPDATE transactions
		SET description = ?, amount = ?, date = ?, label = ?,
		    is_recurring = ?, recurring_id = ?, is_confirmed = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		o.Description,
		o.Amount,
		o.Date.Format(dateLayout),
		o.Label,
		o.IsRecurring,
		o.RecurringID,
		o.IsConfirmed,
		o.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// DeleteOccurrence removes a transaction
func (s *Storage) DeleteOccurrence(id int64) error {
	result, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ConfirmOccurrence marks a transaction confirmed, optionally at a new amount
func (s *Storage) ConfirmOccurrence(id int64, newAmount *float64) error {
	var result sql.Result
	var err error

	if newAmount != nil {
		result, err = s.db.Exec(
			`UPDATE transactions SET is_confirmed = 1, amount = ? WHERE id = ?`,
			*newAmount, id,
		)
	} else {
		result, err = s.db.Exec(
			`UPDATE transactions SET is_confirmed = 1 WHERE id = ?`,
			id,
		)
	}
	if err != nil {
		return err
	}

	return requireRow(result)
}

// ApplyReconciliation marks the given occurrences confirmed in one
// transaction; any failure rolls the whole pass back. Only is_confirmed
// changes: the stored amount and date stay as projected.
func (s *Storage) ApplyReconciliation(occurrenceIDs []int64) error {
	if len(occurrenceIDs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`UPDATE transactions SET is_confirmed = 1 WHERE id = ?`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range occurrenceIDs {
		result, err := stmt.Exec(id)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to confirm occurrence %d: %w", id, err)
		}
		if err := requireRow(result); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to confirm occurrence %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// PropagateRuleAmount sets a rule's amount and pushes it to the rule's
// unconfirmed occurrences dated strictly after the given day, atomically
func (s *Storage) PropagateRuleAmount(ruleID int64, amount float64, after time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	result, err := tx.Exec(
		`UPDATE recurring_rules SET amount = ? WHERE id = ?`,
		amount, ruleID,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result); err != nil {
		_ = tx.Rollback()
		return err
	}

	_, err = tx.Exec(
		`UPDATE transactions SET amount = ?
		 WHERE recurring_id = ? AND is_confirmed = 0 AND date > ?`,
		amount, ruleID, after.Format(dateLayout),
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ConfirmAndPropagate confirms one occurrence at a new amount and
// propagates that amount to the owning rule and the rule's unconfirmed
// occurrences dated strictly after the given day, all atomically
func (s *Storage) ConfirmAndPropagate(occurrenceID, ruleID int64, amount float64, after time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	result, err := tx.Exec(
		`UPDATE transactions SET is_confirmed = 1, amount = ? WHERE id = ?`,
		amount, occurrenceID,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result); err != nil {
		_ = tx.Rollback()
		return err
	}

	result, err = tx.Exec(
		`UPDATE recurring_rules SET amount = ? WHERE id = ?`,
		amount, ruleID,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result); err != nil {
		_ = tx.Rollback()
		return err
	}

	_, err = tx.Exec(
		`UPDATE transactions SET amount = ?
		 WHERE recurring_id = ? AND is_confirmed = 0 AND date > ?`,
		amount, ruleID, after.Format(dateLayout),
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ReplaceFutureOccurrences deletes a rule's occurrences dated on or after
// from and inserts the given replacements, atomically
func (s *Storage) ReplaceFutureOccurrences(ruleID int64, from time.Time, occs []Occurrence) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`DELETE FROM transactions WHERE recurring_id = ? AND date >= ?`,
		ruleID, from.Format(dateLayout),
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := insertOccurrencesTx(tx, occs); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ================================================================
// RECURRING RULES
// ================================================================

// InsertRule inserts a rule and returns its ID
func (s *Storage) InsertRule(r *RecurringRule) (int64, error) {
	query := `
		INSERT INTO recurring_rules
		(description, amount, start_date, label, frequency, interval, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		r.Description,
		r.Amount,
		r.StartDate.Format(dateLayout),
		r.Label,
		r.Frequency,
		r.Interval,
		nullableDate(r.EndDate),
	)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// GetRule retrieves a rule by ID
func (s *Storage) GetRule(id int64) (*RecurringRule, error) {
	query := `
		SELECT id, description, amount, start_date, label, frequency,
		       interval, end_date, created_at
		FROM recurring_rules WHERE id = ?
	`

	r, err := scanRule(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return r, nil
}

// ListRules returns all rules ordered by ID
func (s *Storage) ListRules() ([]RecurringRule, error) {
	query := `
		SELECT id, description, amount, start_date, label, frequency,
		       interval, end_date, created_at
		FROM recurring_rules ORDER BY id
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rules []RecurringRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}

	return rules, rows.Err()
}

// UpdateRule overwrites a rule's mutable fields
func (s *Storage) UpdateRule(r *RecurringRule) error {
	query := `
		UPDATE recurring_rules
		SET description = ?, amount = ?, start_date = ?, label = ?,
		    frequency = ?, interval = ?, end_date = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query,
		r.Description,
		r.Amount,
		r.StartDate.Format(dateLayout),
		r.Label,
		r.Frequency,
		r.Interval,
		nullableDate(r.EndDate),
		r.ID,
	)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// DeleteRule removes a rule and all of its occurrences, atomically
func (s *Storage) DeleteRule(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`DELETE FROM transactions WHERE recurring_id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	result, err := tx.Exec(`DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ================================================================
// SETTINGS
// ================================================================

// GetSetting returns the raw value for a key
func (s *Storage) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}

	return value, nil
}

// SetSetting upserts a key
func (s *Storage) SetSetting(key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.Exec(query, key, value)
	return err
}

// ListSettings returns all settings
func (s *Storage) ListSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var settings []Setting
	for rows.Next() {
		var st Setting
		if err := rows.Scan(&st.Key, &st.Value, &st.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, st)
	}

	return settings, rows.Err()
}

// ================================================================
// USER
// ================================================================

// GetBalance returns the current balance
func (s *Storage) GetBalance() (float64, error) {
	var balance float64
	err := s.db.QueryRow(`SELECT current_balance FROM user_settings WHERE id = 1`).Scan(&balance)
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// SetBalance sets the current balance
func (s *Storage) SetBalance(v float64) error {
	_, err := s.db.Exec(`UPDATE user_settings SET current_balance = ? WHERE id = 1`, v)
	return err
}

// GetShowAdvanced returns the advanced-mode preference
func (s *Storage) GetShowAdvanced() (bool, error) {
	var show bool
	err := s.db.QueryRow(`SELECT show_advanced FROM users WHERE id = 1`).Scan(&show)
	if err != nil {
		return false, err
	}

	return show, nil
}

// SetShowAdvanced sets the advanced-mode preference
func (s *Storage) SetShowAdvanced(v bool) error {
	_, err := s.db.Exec(`UPDATE users SET show_advanced = ? WHERE id = 1`, v)
	return err
}

// ================================================================
// SCAN HELPERS
// ================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(row rowScanner) (*Occurrence, error) {
	o := &Occurrence{}
	var date string
	var recurringID sql.NullInt64

	err := row.Scan(
		&o.ID,
		&o.Description,
		&o.Amount,
		&date,
		&o.Label,
		&o.IsRecurring,
		&recurringID,
		&o.IsConfirmed,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.Date, err = time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	if recurringID.Valid {
		o.RecurringID = &recurringID.Int64
	}

	return o, nil
}

func collectOccurrences(rows *sql.Rows) ([]Occurrence, error) {
	var occs []Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		occs = append(occs, *o)
	}

	return occs, rows.Err()
}

func scanRule(row rowScanner) (*RecurringRule, error) {
	r := &RecurringRule{}
	var startDate string
	var endDate sql.NullString

	err := row.Scan(
		&r.ID,
		&r.Description,
		&r.Amount,
		&startDate,
		&r.Label,
		&r.Frequency,
		&r.Interval,
		&endDate,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.StartDate, err = time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid stored start date %q: %w", startDate, err)
	}
	if endDate.Valid {
		end, err := time.Parse(dateLayout, endDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored end date %q: %w", endDate.String, err)
		}
		r.EndDate = &end
	}

	return r, nil
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// requireRow turns a zero-row update or delete into ErrNotFound
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
