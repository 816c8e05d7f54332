package dto

import (
	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

// ThroughputResponse is the monthly chart. Cursor is -1 and Current is nil
// when no data is loaded.
type ThroughputResponse struct {
	Buckets []domain.MonthBucket `json:"buckets"`
	Cursor  int                  `json:"cursor"`
	Current *domain.MonthBucket  `json:"current"`
	CanPrev bool                 `json:"can_prev"`
	CanNext bool                 `json:"can_next"`
	Daily   []domain.DailyPoint  `json:"daily"`
}

func NewThroughputResponse(v services.View) ThroughputResponse {
	buckets := v.Buckets
	if buckets == nil {
		buckets = []domain.MonthBucket{}
	}
	res := ThroughputResponse{
		Buckets: buckets,
		Cursor:  v.Cursor,
		CanPrev: v.CanPrevMonth,
		CanNext: v.CanNextMonth,
		Daily:   v.MonthDaily,
	}
	if v.Cursor >= 0 && v.Cursor < len(buckets) {
		cur := buckets[v.Cursor]
		res.Current = &cur
	}
	return res
}
