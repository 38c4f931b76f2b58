package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips digits and punctuation", "NETFLIX.COM 0423 REF#99812", "netflixcom ref"},
		{"collapses whitespace", "  ACME   CORP \t MONTHLY ", "acme corp monthly"},
		{"lower cases", "Spotify AB", "spotify ab"},
		{"already clean", "rent", "rent"},
		{"empty", "", ""},
		{"only noise", "123-456/789", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRatio_IdenticalAfterNormalization(t *testing.T) {
	a := Normalize("NETFLIX.COM 0423")
	b := Normalize("Netflix Com #88")

	assert.Equal(t, 1.0, Ratio(a, b))
}

func TestRatio_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abcd", "wxyz"))

	r := Ratio("electric bill", "electric co bill")
	assert.Greater(t, r, 0.5)
	assert.Less(t, r, 1.0)
}

func TestScore_PerfectMatch(t *testing.T) {
	// Arrange
	rec := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 10)}

	// Act
	score, comps, ok := Score(rec, pending, DefaultConfig())

	// Assert - all three components maxed
	require.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Equal(t, 1.0, comps.Similarity)
	assert.Equal(t, 0.0, comps.AmountRatio)
	assert.Equal(t, 0, comps.DateDiffDays)
}

func TestScore_DateCutoffExcludes(t *testing.T) {
	rec := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 14)}

	_, comps, ok := Score(rec, pending, DefaultConfig())

	assert.False(t, ok, "4 days apart must be excluded before scoring")
	assert.Equal(t, 4, comps.DateDiffDays)
}

func TestScore_DateCutoffBoundaryIncluded(t *testing.T) {
	rec := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Netflix", Amount: -15.99, Date: date(2025, time.March, 13)}

	score, comps, ok := Score(rec, pending, DefaultConfig())

	require.True(t, ok, "exactly 3 days apart is within the cutoff")
	assert.Equal(t, 3, comps.DateDiffDays)
	// similarity 1.0, amount exact, date component zeroed out
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestScore_DateDiffSymmetric(t *testing.T) {
	a := Entry{Description: "Gym", Amount: -30, Date: date(2025, time.March, 10)}
	b := Entry{Description: "Gym", Amount: -30, Date: date(2025, time.March, 12)}

	s1, c1, ok1 := Score(a, b, DefaultConfig())
	s2, c2, ok2 := Score(b, a, DefaultConfig())

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, c1.DateDiffDays, c2.DateDiffDays)
	assert.InDelta(t, s1, s2, 1e-9)
}

func TestScore_ZeroPendingAmountMaxPenalty(t *testing.T) {
	rec := Entry{Description: "Refund", Amount: 10, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Refund", Amount: 0, Date: date(2025, time.March, 10)}

	score, comps, ok := Score(rec, pending, DefaultConfig())

	require.True(t, ok)
	assert.Equal(t, 1.0, comps.AmountRatio)
	// similarity 1.0 * 0.6 + 0 * 0.3 + 1.0 * 0.1
	assert.InDelta(t, 0.7, score, 1e-9)
}

func TestScore_AmountRatioRelativeToPending(t *testing.T) {
	rec := Entry{Description: "Power", Amount: -110, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Power", Amount: -100, Date: date(2025, time.March, 10)}

	_, comps, ok := Score(rec, pending, DefaultConfig())

	require.True(t, ok)
	assert.InDelta(t, 0.10, comps.AmountRatio, 1e-9)
}

func TestScore_WeightsFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityWeight = 1.0
	cfg.AmountWeight = 0
	cfg.DateWeight = 0

	rec := Entry{Description: "Water board", Amount: -55, Date: date(2025, time.March, 10)}
	pending := Entry{Description: "Water board", Amount: -999, Date: date(2025, time.March, 12)}

	score, _, ok := Score(rec, pending, cfg)

	require.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.6, cfg.SimilarityWeight)
	assert.Equal(t, 0.3, cfg.AmountWeight)
	assert.Equal(t, 0.1, cfg.DateWeight)
	assert.Equal(t, 3, cfg.DateDiffMaxDays)
	assert.Equal(t, 0.7, cfg.MinScore)
	assert.Equal(t, 0.9, cfg.AutoConfirmScore)
	assert.Equal(t, 0.05, cfg.AutoConfirmAmountTolerance)
}
