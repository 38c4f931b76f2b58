// Package detector infers candidate recurring rules from an unordered
// batch of imported transaction records.
//
// Grouping is by exact amount (rounded to the cent), deliberately ignoring
// descriptions so recurring charges whose free-text label varies between
// statements are still caught. A group becomes a candidate only when its
// day-gaps are regular and its amounts homogeneous.
package detector

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/billprepared/backend/internal/adapters/bankcsv"
	"github.com/billprepared/backend/internal/domain/matcher"
	"github.com/billprepared/backend/internal/domain/projector"
)

// toleranceFloorDays is the absolute floor of the gap tolerance, so short
// cycles survive weekend/banking-day drift.
const toleranceFloorDays = 7

// Detect groups records by amount and returns the groups that look
// periodic as recurring-rule candidates, most occurrences first. Ties and
// group identity follow the caller-supplied record order; detection is
// deterministic for a fixed input order and never mutates its input.
func Detect(records []bankcsv.Record, cfg Config) []Candidate {
	groups, order := groupByAmount(records)

	var candidates []Candidate
	for _, key := range order {
		if c, ok := evaluateGroup(groups[key], cfg); ok {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Occurrences > candidates[j].Occurrences
	})
	return candidates
}

// groupByAmount buckets records by their amount rounded to two decimals.
// The cent-exact decimal string is used as the key so float noise cannot
// split a bucket. Returned order is first-encountered.
func groupByAmount(records []bankcsv.Record) (map[string][]bankcsv.Record, []string) {
	groups := make(map[string][]bankcsv.Record)
	var order []string
	for _, rec := range records {
		key := decimal.NewFromFloat(rec.Amount).Round(2).String()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}
	return groups, order
}

// evaluateGroup decides whether one amount-group is periodic and, if so,
// shapes it into a candidate.
func evaluateGroup(group []bankcsv.Record, cfg Config) (Candidate, bool) {
	if len(group) < cfg.MinOccurrences || len(group) < 2 {
		return Candidate{}, false
	}

	sorted := make([]bankcsv.Record, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, float64(matcher.DateDiffDays(sorted[i].Date, sorted[i-1].Date)))
	}
	meanGap := mean(gaps)

	if !gapsRegular(gaps, meanGap, cfg.IntervalTolerance) {
		return Candidate{}, false
	}

	amounts := make([]float64, len(sorted))
	for i, rec := range sorted {
		amounts[i] = rec.Amount
	}
	meanAmount := mean(amounts)
	if !amountsConsistent(amounts, meanAmount, cfg.AmountTolerance) {
		return Candidate{}, false
	}

	freq := classifyFrequency(meanGap)
	desc, unique, examples := representativeDescription(group)

	return Candidate{
		Description:         desc,
		Amount:              meanAmount,
		Frequency:           freq,
		Interval:            deriveInterval(meanGap, freq, cfg),
		StartDate:           sorted[0].Date,
		LastDate:            sorted[len(sorted)-1].Date,
		Occurrences:         len(sorted),
		UniqueDescriptions:  unique,
		DescriptionExamples: examples,
	}, true
}

// gapsRegular checks every gap against an adaptive tolerance around the
// mean: tighter for short cycles, looser for long ones. The boundary is
// inclusive.
func gapsRegular(gaps []float64, meanGap, tolerance float64) bool {
	limit := math.Max(toleranceFloorDays, meanGap*tolerance)
	for _, g := range gaps {
		if math.Abs(g-meanGap) > limit {
			return false
		}
	}
	return true
}

// amountsConsistent requires every amount within the relative tolerance of
// the group mean, inclusive.
func amountsConsistent(amounts []float64, meanAmount, tolerance float64) bool {
	if meanAmount == 0 {
		return false
	}
	for _, a := range amounts {
		if math.Abs(a-meanAmount)/math.Abs(meanAmount) > tolerance {
			return false
		}
	}
	return true
}

// classifyFrequency maps a mean day-gap onto a cadence.
func classifyFrequency(meanGap float64) projector.Frequency {
	switch {
	case meanGap > 25:
		return projector.Monthly
	case meanGap > 5:
		return projector.Weekly
	default:
		return projector.Daily
	}
}

// deriveInterval rounds the mean gap to whole units of the chosen cadence.
// Gaps under 10 days always collapse to interval 1 regardless of the
// classification.
func deriveInterval(meanGap float64, freq projector.Frequency, cfg Config) int {
	if meanGap < 10 {
		return 1
	}
	unit := cfg.DailyGapDays
	switch freq {
	case projector.Monthly:
		unit = cfg.MonthlyGapDays
	case projector.Weekly:
		unit = cfg.WeeklyGapDays
	}
	if unit < 1 {
		unit = 1
	}
	interval := int(math.Round(meanGap / float64(unit)))
	if interval < 1 {
		interval = 1
	}
	return interval
}

// representativeDescription picks the most frequent raw description in the
// group (first-encountered wins ties) and collects up to three distinct
// examples in encounter order.
func representativeDescription(group []bankcsv.Record) (best string, unique int, examples []string) {
	counts := make(map[string]int)
	var order []string
	for _, rec := range group {
		if _, seen := counts[rec.Description]; !seen {
			order = append(order, rec.Description)
		}
		counts[rec.Description]++
	}

	best = order[0]
	for _, desc := range order {
		if counts[desc] > counts[best] {
			best = desc
		}
	}

	unique = len(order)
	if len(order) > 3 {
		order = order[:3]
	}
	return best, unique, order
}

// mean of a non-empty slice.
func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
