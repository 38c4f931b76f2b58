package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billprepared/backend/internal/adapters/bankcsv"
	"github.com/billprepared/backend/internal/domain/matcher"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestReconcile_ExactMatchConfirms(t *testing.T) {
	// Arrange
	pending := []Pending{
		{ID: 1, Description: "NETFLIX.COM", Amount: 15.99, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 15.99, Description: "NETFLIX.COM"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Confirmed, 1)
	assert.Equal(t, int64(1), result.Confirmed[0].OccurrenceID)
	assert.True(t, result.Confirmed[0].Exact)
	assert.Equal(t, 1.0, result.Confirmed[0].Score)
	assert.Empty(t, result.NeedsReview)
	assert.Empty(t, result.Unmatched)
}

func TestReconcile_ExactMatchSkipsFuzzyScan(t *testing.T) {
	// Arrange: occurrence 2 would be a very strong fuzzy candidate, but
	// occurrence 1 matches exactly and must win.
	pending := []Pending{
		{ID: 2, Description: "netflix com", Amount: 15.99, Date: day(5)},
		{ID: 1, Description: "NETFLIX.COM", Amount: 15.99, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 15.99, Description: "NETFLIX.COM"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Confirmed, 1)
	assert.Equal(t, int64(1), result.Confirmed[0].OccurrenceID)
	assert.True(t, result.Confirmed[0].Exact)
	assert.Empty(t, result.NeedsReview)
}

func TestReconcile_FuzzyAutoConfirm(t *testing.T) {
	// Arrange: raw descriptions differ in case only, same date and amount.
	pending := []Pending{
		{ID: 7, Description: "netflix", Amount: 15.99, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 15.99, Description: "NETFLIX"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Confirmed, 1)
	assert.Equal(t, int64(7), result.Confirmed[0].OccurrenceID)
	assert.False(t, result.Confirmed[0].Exact)
	assert.InDelta(t, 1.0, result.Confirmed[0].Score, 1e-9)
	assert.Empty(t, result.NeedsReview)
	assert.Empty(t, result.Unmatched)
}

func TestReconcile_AmountDriftGoesToReview(t *testing.T) {
	// Arrange: confident description match but the amount moved 20%, so
	// the high-confidence amount gate fails.
	ruleID := int64(3)
	pending := []Pending{
		{ID: 9, RuleID: &ruleID, Description: "Gym Membership", Amount: 50.00, Date: day(10)},
	}
	records := []bankcsv.Record{
		{Date: day(10), Amount: 60.00, Description: "Gym Membership"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.NeedsReview, 1)
	item := result.NeedsReview[0]
	assert.Equal(t, int64(9), item.OccurrenceID)
	require.NotNil(t, item.RuleID)
	assert.Equal(t, int64(3), *item.RuleID)
	assert.Equal(t, 50.00, item.OldAmount)
	assert.Equal(t, 60.00, item.NewAmount)
	assert.InDelta(t, 0.2, item.AmountRatio, 1e-9)
	assert.Empty(t, result.Confirmed)
	assert.Empty(t, result.Unmatched)
}

func TestReconcile_ThresholdIsInclusive(t *testing.T) {
	// Arrange: identical description, same date, amount ratio exactly 1.
	// Score lands exactly on the minimum threshold and must be accepted.
	pending := []Pending{
		{ID: 4, Description: "water bill", Amount: 100.00, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 200.00, Description: "Water Bill"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.NeedsReview, 1)
	assert.InDelta(t, 0.7, result.NeedsReview[0].Score, 1e-9)
	assert.Empty(t, result.Unmatched)
}

func TestReconcile_BelowThresholdIsUnmatched(t *testing.T) {
	// Arrange: same as the boundary case but one day off drops the score
	// under the minimum.
	pending := []Pending{
		{ID: 4, Description: "water bill", Amount: 100.00, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(6), Amount: 200.00, Description: "Water Bill"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Water Bill", result.Unmatched[0].Description)
	assert.Empty(t, result.Confirmed)
	assert.Empty(t, result.NeedsReview)
}

func TestReconcile_OutsideDateCutoffIsUnmatched(t *testing.T) {
	// Arrange
	pending := []Pending{
		{ID: 4, Description: "Rent", Amount: 900.00, Date: day(1)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 900.00, Description: "Rent"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Unmatched, 1)
	assert.Empty(t, result.Confirmed)
	assert.Empty(t, result.NeedsReview)
}

func TestReconcile_ConfirmedOccurrenceNotClaimedTwice(t *testing.T) {
	// Arrange: two identical records, one matching occurrence. The first
	// record claims it and the second comes back unmatched.
	pending := []Pending{
		{ID: 1, Description: "Spotify", Amount: 9.99, Date: day(5)},
	}
	records := []bankcsv.Record{
		{Date: day(5), Amount: 9.99, Description: "Spotify"},
		{Date: day(5), Amount: 9.99, Description: "Spotify"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.Confirmed, 1)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Spotify", result.Unmatched[0].Description)
}

func TestReconcile_ReviewDoesNotClaim(t *testing.T) {
	// Arrange: two records both land in the review band against the only
	// occurrence. Neither confirms, so both reference the same occurrence.
	pending := []Pending{
		{ID: 1, Description: "Gym Membership", Amount: 50.00, Date: day(10)},
	}
	records := []bankcsv.Record{
		{Date: day(10), Amount: 60.00, Description: "Gym Membership"},
		{Date: day(10), Amount: 62.00, Description: "Gym Membership"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.NeedsReview, 2)
	assert.Equal(t, int64(1), result.NeedsReview[0].OccurrenceID)
	assert.Equal(t, int64(1), result.NeedsReview[1].OccurrenceID)
	assert.Empty(t, result.Confirmed)
}

func TestReconcile_TieKeepsFirstPending(t *testing.T) {
	// Arrange: two occurrences score identically against the record.
	pending := []Pending{
		{ID: 11, Description: "Gym Membership", Amount: 50.00, Date: day(10)},
		{ID: 12, Description: "Gym Membership", Amount: 50.00, Date: day(10)},
	}
	records := []bankcsv.Record{
		{Date: day(10), Amount: 60.00, Description: "Gym Membership"},
	}

	// Act
	result := Reconcile(records, pending, matcher.DefaultConfig())

	// Assert
	require.Len(t, result.NeedsReview, 1)
	assert.Equal(t, int64(11), result.NeedsReview[0].OccurrenceID)
}

func TestReconcile_NoPendingAllUnmatched(t *testing.T) {
	// Arrange
	records := []bankcsv.Record{
		{Date: day(1), Amount: 12.50, Description: "Coffee"},
		{Date: day(2), Amount: 8.00, Description: "Lunch"},
	}

	// Act
	result := Reconcile(records, nil, matcher.DefaultConfig())

	// Assert
	assert.Len(t, result.Unmatched, 2)
	assert.Empty(t, result.Confirmed)
	assert.Empty(t, result.NeedsReview)
}
