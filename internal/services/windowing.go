package services

import (
	"cmp"
	"slices"
	"strconv"
	"sync"

	"shipment-dashboard/internal/domain"
)

// SortDaily returns a copy of points in ascending date order. Equal dates
// are ordered by count so any permutation of the same input sorts the same.
func SortDaily(points []domain.DailyPoint) []domain.DailyPoint {
	out := slices.Clone(points)
	if out == nil {
		out = []domain.DailyPoint{}
	}
	slices.SortStableFunc(out, func(a, b domain.DailyPoint) int {
		if c := a.ArrivalDate.Compare(b.ArrivalDate); c != 0 {
			return c
		}
		return cmp.Compare(a.PackagesReceived, b.PackagesReceived)
	})
	return out
}

// BucketByMonth sums packages per calendar month, ascending by month key.
// Input order is not trusted.
func BucketByMonth(points []domain.DailyPoint) []domain.MonthBucket {
	buckets := []domain.MonthBucket{}
	for _, p := range SortDaily(points) {
		key := p.ArrivalDate.MonthKey()
		if n := len(buckets); n > 0 && buckets[n-1].MonthKey == key {
			buckets[n-1].TotalPackagesReceived += p.PackagesReceived
			continue
		}
		buckets = append(buckets, domain.MonthBucket{MonthKey: key, TotalPackagesReceived: p.PackagesReceived})
	}
	return buckets
}

// TimeSeriesWindow reduces a daily series to monthly buckets and tracks
// which month is on display.
type TimeSeriesWindow struct {
	mu      sync.RWMutex
	points  []domain.DailyPoint
	buckets []domain.MonthBucket
	cursor  int
}

func NewTimeSeriesWindow() *TimeSeriesWindow {
	return &TimeSeriesWindow{cursor: -1}
}

// Load replaces the series and moves the cursor to the most recent month.
func (w *TimeSeriesWindow) Load(points []domain.DailyPoint) error {
	for i, p := range points {
		if p.ArrivalDate.IsZero() {
			return &domain.ValidationError{Field: "arrival_date", Value: strconv.Itoa(i), Reason: "daily point has no date"}
		}
		if p.PackagesReceived < 0 {
			return &domain.ValidationError{
				Field:  "packages_received",
				Value:  strconv.Itoa(p.PackagesReceived),
				Reason: "must not be negative",
			}
		}
	}

	sorted := SortDaily(points)
	buckets := BucketByMonth(sorted)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.points = sorted
	w.buckets = buckets
	w.cursor = len(buckets) - 1
	return nil
}

func (w *TimeSeriesWindow) Buckets() []domain.MonthBucket {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return slices.Clone(w.buckets)
}

// Cursor returns the index of the displayed month; ok is false with no data.
func (w *TimeSeriesWindow) Cursor() (int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cursor, w.cursor >= 0
}

func (w *TimeSeriesWindow) Current() (domain.MonthBucket, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.cursor < 0 {
		return domain.MonthBucket{}, false
	}
	return w.buckets[w.cursor], true
}

// PreviousMonth moves the cursor back one month. It reports false at the
// first month or with no data.
func (w *TimeSeriesWindow) PreviousMonth() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor <= 0 {
		return false
	}
	w.cursor--
	return true
}

// NextMonth moves the cursor forward one month. It reports false at the
// last month or with no data.
func (w *TimeSeriesWindow) NextMonth() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor < 0 || w.cursor >= len(w.buckets)-1 {
		return false
	}
	w.cursor++
	return true
}

func (w *TimeSeriesWindow) CanGoPrevious() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cursor > 0
}

func (w *TimeSeriesWindow) CanGoNext() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.cursor >= 0 && w.cursor < len(w.buckets)-1
}

// CurrentMonthDaily returns the daily points of the displayed month in
// ascending date order, or an empty slice with no data.
func (w *TimeSeriesWindow) CurrentMonthDaily() []domain.DailyPoint {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := []domain.DailyPoint{}
	if w.cursor < 0 {
		return out
	}
	key := w.buckets[w.cursor].MonthKey
	for _, p := range w.points {
		if p.ArrivalDate.MonthKey() == key {
			out = append(out, p)
		}
	}
	return out
}
