// Package reconciler matches an imported record batch against pending
// ledger occurrences and partitions the outcome into auto-confirmed,
// needs-review and unmatched.
//
// The pass itself is pure: it decides, it does not write. The application
// layer applies the decisions inside one storage transaction so a pass is
// all-or-nothing.
package reconciler

import (
	"github.com/billprepared/backend/internal/adapters/bankcsv"
	"github.com/billprepared/backend/internal/domain/matcher"
)

// Reconcile decides the fate of each record independently, in caller
// order. An exact match (same date, amount and raw description) confirms
// immediately and short-circuits the fuzzy pass for that record. Otherwise
// the best-scoring pending occurrence within the date cutoff is taken,
// first-encountered winning ties; it auto-confirms only above the
// high-confidence gates and is queued for review otherwise. Records whose
// best score falls below the minimum threshold come back unmatched.
//
// An occurrence confirmed earlier in the pass cannot be claimed again by a
// later record. Review candidates stay claimable: they remain unconfirmed
// until a human decides.
func Reconcile(records []bankcsv.Record, pending []Pending, cfg matcher.Config) Result {
	var result Result
	claimed := make(map[int64]bool)

	for _, rec := range records {
		if c, ok := exactMatch(rec, pending, claimed); ok {
			claimed[c.OccurrenceID] = true
			result.Confirmed = append(result.Confirmed, c)
			continue
		}

		best, score, comps, found := bestFuzzyMatch(rec, pending, claimed, cfg)
		if !found || score < cfg.MinScore {
			result.Unmatched = append(result.Unmatched, rec)
			continue
		}

		if score > cfg.AutoConfirmScore && comps.AmountRatio < cfg.AutoConfirmAmountTolerance {
			claimed[best.ID] = true
			result.Confirmed = append(result.Confirmed, Confirmation{
				OccurrenceID: best.ID,
				Description:  rec.Description,
				Amount:       rec.Amount,
				Date:         rec.Date,
				Score:        score,
			})
			continue
		}

		result.NeedsReview = append(result.NeedsReview, ReviewItem{
			OccurrenceID:       best.ID,
			RuleID:             best.RuleID,
			OldAmount:          best.Amount,
			NewAmount:          rec.Amount,
			RecordDescription:  rec.Description,
			PendingDescription: best.Description,
			RecordDate:         rec.Date,
			PendingDate:        best.Date,
			Score:              score,
			AmountRatio:        comps.AmountRatio,
		})
	}

	return result
}

// exactMatch finds the first unclaimed pending occurrence identical in
// date, amount and raw (non-normalized) description.
func exactMatch(rec bankcsv.Record, pending []Pending, claimed map[int64]bool) (Confirmation, bool) {
	for _, p := range pending {
		if claimed[p.ID] {
			continue
		}
		if p.Date.Equal(rec.Date) && p.Amount == rec.Amount && p.Description == rec.Description {
			return Confirmation{
				OccurrenceID: p.ID,
				Description:  rec.Description,
				Amount:       rec.Amount,
				Date:         rec.Date,
				Score:        1,
				Exact:        true,
			}, true
		}
	}
	return Confirmation{}, false
}

// bestFuzzyMatch scans unclaimed pending occurrences within the date
// cutoff and keeps the maximum score. A later candidate must strictly beat
// the incumbent, so ties keep the first encountered in scan order.
func bestFuzzyMatch(rec bankcsv.Record, pending []Pending, claimed map[int64]bool, cfg matcher.Config) (best Pending, bestScore float64, bestComps matcher.Components, found bool) {
	recEntry := matcher.Entry{Description: rec.Description, Amount: rec.Amount, Date: rec.Date}

	for _, p := range pending {
		if claimed[p.ID] {
			continue
		}
		score, comps, ok := matcher.Score(recEntry, matcher.Entry{
			Description: p.Description,
			Amount:      p.Amount,
			Date:        p.Date,
		}, cfg)
		if !ok {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, bestComps, found = p, score, comps, true
		}
	}
	return best, bestScore, bestComps, found
}
