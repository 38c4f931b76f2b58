// Package projector expands a recurring rule into concrete dated occurrence
// drafts over a window.
//
// Projection is pure: the same rule over the same window always yields the
// same drafts, and the rule's own start date (or the supplied window start)
// is never re-emitted, so regenerating after a rule edit cannot duplicate
// an existing occurrence.
package projector

import (
	"fmt"
	"time"
)

// Project expands rule into ordered occurrence drafts.
//
// Stepping is anchored one interval after the rule's start date, so the
// start itself is never re-emitted (on regeneration after an edit, callers
// set the rule's start to the edit's effective date). The walk stops once
// the stepped date passes windowEnd or the rule's own end date, both
// inclusive. Dates earlier than windowStart minus the lookback window are
// dropped, not erred, so recently-past occurrences stay visible when
// generation runs late.
func Project(rule Rule, windowStart, windowEnd time.Time, cfg Config) ([]Draft, error) {
	if !rule.Frequency.Valid() {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, rule.Frequency)
	}
	if rule.Interval < 1 {
		return nil, fmt.Errorf("%w: interval %d < 1", ErrInvalidRule, rule.Interval)
	}

	end := windowEnd
	if rule.EndDate != nil && rule.EndDate.Before(end) {
		end = *rule.EndDate
	}
	floor := windowStart.AddDate(0, 0, -cfg.LookbackDays)

	var drafts []Draft

	// Skip the first occurrence (the rule start itself) to avoid
	// re-emitting an occurrence that already exists.
	current := step(rule.StartDate, rule.Frequency, rule.Interval)
	for !current.After(end) {
		if !current.Before(floor) {
			drafts = append(drafts, Draft{
				RuleID:      rule.ID,
				Description: rule.Description,
				Amount:      rule.Amount,
				Date:        current,
				Label:       rule.Label,
			})
		}
		next := step(current, rule.Frequency, rule.Interval)
		if !next.After(current) {
			break
		}
		current = next
	}

	return drafts, nil
}

// step advances a date by one rule interval. Frequency is assumed valid.
func step(t time.Time, freq Frequency, interval int) time.Time {
	switch freq {
	case Daily:
		return t.AddDate(0, 0, interval)
	case Weekly:
		return t.AddDate(0, 0, 7*interval)
	default:
		return addMonths(t, interval)
	}
}

// addMonths advances by calendar months with "same day next month"
// semantics: a date on the 31st rolls to the last valid day of a shorter
// month (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which
// normalizes the overflow into the following month.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
