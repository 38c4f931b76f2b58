// Package matcher scores externally-sourced transaction records against
// pending ledger occurrences. It combines description similarity, amount
// closeness and date proximity into one composite confidence in [0,1].
package matcher

import "time"

// Entry is one side of a comparison: either an imported record or a pending
// ledger occurrence.
type Entry struct {
	Description string
	Amount      float64
	Date        time.Time
}

// Score computes the composite match score of an external record against a
// pending occurrence, along with its component breakdown.
//
// The score blends description similarity (over normalized text), amount
// closeness and date proximity with the configured weights. The amount
// ratio is relative to the pending amount and treated as maximal when the
// pending amount is zero. ok is false when the date difference exceeds the
// hard cutoff; such candidates must be excluded, not ranked.
func Score(record, pending Entry, cfg Config) (score float64, comps Components, ok bool) {
	comps.DateDiffDays = DateDiffDays(record.Date, pending.Date)
	if comps.DateDiffDays > cfg.DateDiffMaxDays {
		return 0, comps, false
	}

	comps.Similarity = Ratio(Normalize(record.Description), Normalize(pending.Description))
	comps.AmountRatio = amountRatio(record.Amount, pending.Amount)

	score = comps.Similarity*cfg.SimilarityWeight +
		(1-comps.AmountRatio)*cfg.AmountWeight +
		(1-float64(comps.DateDiffDays)/float64(cfg.DateDiffMaxDays))*cfg.DateWeight

	return score, comps, true
}

// amountRatio returns |record-pending| / |pending|, maximal when the
// pending amount is zero.
func amountRatio(record, pending float64) float64 {
	if pending == 0 {
		return 1
	}
	diff := record - pending
	if diff < 0 {
		diff = -diff
	}
	if pending < 0 {
		pending = -pending
	}
	return diff / pending
}
