package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/testutil"
)

func TestTimeSeriesWindowMonthNavigation(t *testing.T) {
	w := NewTimeSeriesWindow()
	require.NoError(t, w.Load(testutil.Daily()))

	want := []domain.MonthBucket{
		{MonthKey: "2025-01", TotalPackagesReceived: 13},
		{MonthKey: "2025-02", TotalPackagesReceived: 5},
	}
	if diff := cmp.Diff(want, w.Buckets()); diff != "" {
		t.Fatalf("buckets mismatch (-want +got):\n%s", diff)
	}

	cursor, ok := w.Cursor()
	require.True(t, ok)
	assert.Equal(t, 1, cursor)

	assert.False(t, w.NextMonth(), "nextMonth at the last bucket is a no-op")
	cursor, _ = w.Cursor()
	assert.Equal(t, 1, cursor)

	assert.True(t, w.PreviousMonth())
	cursor, _ = w.Cursor()
	assert.Equal(t, 0, cursor)

	daily := w.CurrentMonthDaily()
	require.Len(t, daily, 2)
	assert.Equal(t, "2025-01-05", daily[0].ArrivalDate.String())
	assert.Equal(t, "2025-01-20", daily[1].ArrivalDate.String())

	assert.False(t, w.PreviousMonth(), "no wraparound at the first bucket")
	assert.False(t, w.CanGoPrevious())
	assert.True(t, w.CanGoNext())
}

func TestBucketByMonthIgnoresInputOrder(t *testing.T) {
	points := []domain.DailyPoint{
		{ArrivalDate: domain.MustParseDate("2024-12-31"), PackagesReceived: 1},
		{ArrivalDate: domain.MustParseDate("2025-03-02"), PackagesReceived: 4},
		{ArrivalDate: domain.MustParseDate("2025-01-01"), PackagesReceived: 2},
		{ArrivalDate: domain.MustParseDate("2025-03-01"), PackagesReceived: 8},
	}
	want := BucketByMonth(points)
	require.Len(t, want, 3)
	assert.Equal(t, "2024-12", want[0].MonthKey)
	assert.Equal(t, 12, want[2].TotalPackagesReceived)

	permutations := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, perm := range permutations {
		shuffled := make([]domain.DailyPoint, len(points))
		for i, j := range perm {
			shuffled[i] = points[j]
		}

		w := NewTimeSeriesWindow()
		require.NoError(t, w.Load(shuffled))
		require.NoError(t, w.Load(shuffled))
		if diff := cmp.Diff(want, w.Buckets()); diff != "" {
			t.Fatalf("permutation %v (-want +got):\n%s", perm, diff)
		}
		if diff := cmp.Diff(SortDaily(points), SortDaily(shuffled)); diff != "" {
			t.Fatalf("sorted daily differs for %v:\n%s", perm, diff)
		}
	}
}

func TestBucketByMonthDoesNotMutateInput(t *testing.T) {
	points := testutil.Daily()
	_ = BucketByMonth(points)
	assert.Equal(t, "2025-01-05", points[0].ArrivalDate.String())
	assert.Equal(t, "2025-02-01", points[1].ArrivalDate.String())
}

func TestTimeSeriesWindowEmpty(t *testing.T) {
	w := NewTimeSeriesWindow()
	require.NoError(t, w.Load(nil))

	_, ok := w.Cursor()
	assert.False(t, ok)
	assert.Empty(t, w.Buckets())
	assert.NotNil(t, w.CurrentMonthDaily())
	assert.Empty(t, w.CurrentMonthDaily())
	assert.False(t, w.PreviousMonth())
	assert.False(t, w.NextMonth())
	assert.False(t, w.CanGoNext())
}

func TestTimeSeriesWindowRejectsBadPoints(t *testing.T) {
	w := NewTimeSeriesWindow()
	require.NoError(t, w.Load(testutil.Daily()))

	err := w.Load([]domain.DailyPoint{{ArrivalDate: domain.MustParseDate("2025-01-01"), PackagesReceived: -1}})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "packages_received", ve.Field)

	assert.Error(t, w.Load([]domain.DailyPoint{{PackagesReceived: 1}}))
	assert.Len(t, w.Buckets(), 2, "a rejected load keeps the previous series")
}
