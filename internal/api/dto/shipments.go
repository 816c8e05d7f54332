package dto

import (
	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

type FilterResponse struct {
	Status       string `json:"status"`
	Destination  string `json:"destination"`
	Carrier      string `json:"carrier"`
	ArrivalStart string `json:"arrival_date_start"`
	ArrivalEnd   string `json:"arrival_date_end"`
	Search       string `json:"search"`
	Page         int    `json:"page"`
	PageSize     int    `json:"page_size"`
}

type PageResponse struct {
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalCount int                     `json:"total_count"`
	Shipments  []domain.ShipmentRecord `json:"shipments"`
}

// StateResponse is the shipment table as the dashboard should render it.
// Page is nil when there is nothing to show. Stale marks a last-good page
// kept on screen after a failed refresh.
type StateResponse struct {
	Filter     FilterResponse `json:"filter"`
	State      string         `json:"state"`
	Error      string         `json:"error,omitempty"`
	Page       *PageResponse  `json:"page"`
	Stale      bool           `json:"stale"`
	TotalPages int            `json:"total_pages"`
	CanPrev    bool           `json:"can_prev"`
	CanNext    bool           `json:"can_next"`
}

type FilterRequest struct {
	Value string `json:"value"`
}

func NewFilterResponse(f domain.FilterState) FilterResponse {
	return FilterResponse{
		Status:       string(f.Status),
		Destination:  f.Destination,
		Carrier:      f.Carrier,
		ArrivalStart: f.ArrivalStart.String(),
		ArrivalEnd:   f.ArrivalEnd.String(),
		Search:       f.Search,
		Page:         f.Page,
		PageSize:     f.PageSize,
	}
}

func NewStateResponse(v services.View) StateResponse {
	res := StateResponse{
		Filter:     NewFilterResponse(v.Filter),
		State:      v.State.String(),
		Stale:      v.Stale,
		TotalPages: v.TotalPages,
		CanPrev:    v.CanPrev,
		CanNext:    v.CanNext,
	}
	if v.Err != nil {
		res.Error = domain.UserMessage(v.Err, "Failed to load shipments")
	}
	if v.HasPage {
		items := v.Page.Items
		if items == nil {
			items = []domain.ShipmentRecord{}
		}
		res.Page = &PageResponse{
			Page:       v.Page.Page,
			PageSize:   v.Page.PageSize,
			TotalCount: v.Page.TotalCount,
			Shipments:  items,
		}
	}
	return res
}
