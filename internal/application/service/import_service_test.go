package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billprepared/backend/internal/infrastructure/storage"
)

func newImportFixture() (*ImportService, *storage.MockRepository) {
	repo := storage.NewMockRepository()
	settings := NewSettingsService(repo, testLogger())
	svc := NewImportService(repo, settings, testLogger())
	svc.now = func() time.Time { return time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestImportService_DetectRecurring(t *testing.T) {
	// Arrange
	svc, _ := newImportFixture()
	csv := strings.Join([]string{
		"05/01/2025,15.99,NETFLIX.COM",
		"05/02/2025,15.99,NETFLIX.COM",
		"05/03/2025,15.99,NETFLIX.COM",
		"not a date,1.00,junk row",
		"12/02/2025,42.00,ONE OFF PURCHASE",
	}, "\n")

	// Act
	report, err := svc.DetectRecurring(strings.NewReader(csv))

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, report.PassID)
	assert.Equal(t, 4, report.RowCount)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, 4, report.Skipped[0].Line)

	require.Len(t, report.Candidates, 1)
	c := report.Candidates[0]
	assert.Equal(t, "NETFLIX.COM", c.Description)
	assert.Equal(t, 15.99, c.Amount)
	assert.Equal(t, 3, c.Occurrences)
}

func TestImportService_ReconcileCSV_AppliesConfirmations(t *testing.T) {
	// Arrange: one pending occurrence matching the CSV exactly
	svc, repo := newImportFixture()
	occID, err := repo.InsertOccurrence(&storage.Occurrence{
		Description: "NETFLIX.COM", Amount: 15.99, Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	csv := "05/03/2025,15.99,NETFLIX.COM\n01/03/2025,77.00,MYSTERY SHOP"

	// Act
	report, err := svc.ReconcileCSV(strings.NewReader(csv))

	// Assert
	require.NoError(t, err)
	require.Len(t, report.Confirmed, 1)
	assert.Equal(t, occID, report.Confirmed[0].OccurrenceID)
	assert.True(t, report.Confirmed[0].Exact)
	require.Len(t, report.Unmatched, 1)
	assert.Equal(t, "MYSTERY SHOP", report.Unmatched[0].Description)
	assert.Empty(t, report.NeedsReview)

	occ, err := repo.GetOccurrence(occID)
	require.NoError(t, err)
	assert.True(t, occ.IsConfirmed)
}

func TestImportService_ReconcileCSV_AutoConfirmKeepsStoredValues(t *testing.T) {
	// Arrange: bank row drifts from the pending occurrence by 2% in amount
	// and one day, close enough to auto-confirm
	svc, repo := newImportFixture()
	occID, err := repo.InsertOccurrence(&storage.Occurrence{
		Description: "NETFLIX.COM", Amount: 100.00, Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Act
	report, err := svc.ReconcileCSV(strings.NewReader("06/03/2025,102.00,NETFLIX.COM"))

	// Assert: confirmed, but the stored amount and date stay as projected
	require.NoError(t, err)
	require.Len(t, report.Confirmed, 1)
	assert.Equal(t, occID, report.Confirmed[0].OccurrenceID)
	assert.False(t, report.Confirmed[0].Exact)
	assert.Equal(t, []int64{occID}, repo.LastReconciliationIDs)

	occ, err := repo.GetOccurrence(occID)
	require.NoError(t, err)
	assert.True(t, occ.IsConfirmed)
	assert.Equal(t, 100.00, occ.Amount)
	assert.True(t, occ.Date.Equal(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)))
}

func TestImportService_ReconcileCSV_ReviewLeavesPendingUntouched(t *testing.T) {
	// Arrange: strong description match with a 20% amount drift
	svc, repo := newImportFixture()
	occID, err := repo.InsertOccurrence(&storage.Occurrence{
		Description: "Gym Membership", Amount: 50.00, Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	// Act
	report, err := svc.ReconcileCSV(strings.NewReader("10/03/2025,60.00,Gym Membership"))

	// Assert
	require.NoError(t, err)
	require.Len(t, report.NeedsReview, 1)
	assert.Equal(t, occID, report.NeedsReview[0].OccurrenceID)
	assert.Equal(t, 50.00, report.NeedsReview[0].OldAmount)
	assert.Equal(t, 60.00, report.NeedsReview[0].NewAmount)
	assert.Empty(t, report.Confirmed)

	occ, err := repo.GetOccurrence(occID)
	require.NoError(t, err)
	assert.False(t, occ.IsConfirmed)
	assert.Equal(t, 50.00, occ.Amount)
}

func TestImportService_ReconcileCSV_AbortsOnStorageFailure(t *testing.T) {
	// Arrange
	svc, repo := newImportFixture()
	occID, err := repo.InsertOccurrence(&storage.Occurrence{
		Description: "NETFLIX.COM", Amount: 15.99, Date: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	repo.ApplyReconciliationErr = assert.AnError

	// Act
	_, err = svc.ReconcileCSV(strings.NewReader("05/03/2025,15.99,NETFLIX.COM"))

	// Assert: pass aborted, nothing confirmed
	require.Error(t, err)
	occ, err := repo.GetOccurrence(occID)
	require.NoError(t, err)
	assert.False(t, occ.IsConfirmed)
}

func TestImportService_ConfirmUpdate(t *testing.T) {
	svc, repo := newImportFixture()
	occID, err := repo.InsertOccurrence(&storage.Occurrence{
		Description: "Gym", Amount: 50, Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmUpdate(occID, 60, false))

	occ, err := repo.GetOccurrence(occID)
	require.NoError(t, err)
	assert.True(t, occ.IsConfirmed)
	assert.Equal(t, 60.00, occ.Amount)
	assert.False(t, repo.ConfirmAndPropagateCalled)
}

func TestImportService_ConfirmUpdate_PropagatesToFutureOccurrences(t *testing.T) {
	// Arrange
	svc, repo := newImportFixture()
	ruleID, err := repo.InsertRule(&storage.RecurringRule{
		Description: "Gym", Amount: 50,
		StartDate: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		Frequency: "monthly", Interval: 1,
	})
	require.NoError(t, err)

	reviewed := storage.Occurrence{
		Description: "Gym", Amount: 50,
		Date:        time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
		IsRecurring: true, RecurringID: &ruleID,
	}
	reviewedID, err := repo.InsertOccurrence(&reviewed)
	require.NoError(t, err)

	future := storage.Occurrence{
		Description: "Gym", Amount: 50,
		Date:        time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC),
		IsRecurring: true, RecurringID: &ruleID,
	}
	futureID, err := repo.InsertOccurrence(&future)
	require.NoError(t, err)

	past := storage.Occurrence{
		Description: "Gym", Amount: 50,
		Date:        time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
		IsRecurring: true, RecurringID: &ruleID, IsConfirmed: true,
	}
	pastID, err := repo.InsertOccurrence(&past)
	require.NoError(t, err)

	// Act
	require.NoError(t, svc.ConfirmUpdate(reviewedID, 60, true))

	// Assert
	rule, err := repo.GetRule(ruleID)
	require.NoError(t, err)
	assert.Equal(t, 60.00, rule.Amount)

	confirmed, _ := repo.GetOccurrence(reviewedID)
	assert.True(t, confirmed.IsConfirmed)
	assert.Equal(t, 60.00, confirmed.Amount)

	futureOcc, _ := repo.GetOccurrence(futureID)
	assert.Equal(t, 60.00, futureOcc.Amount)
	assert.False(t, futureOcc.IsConfirmed)

	pastOcc, _ := repo.GetOccurrence(pastID)
	assert.Equal(t, 50.00, pastOcc.Amount)
}
