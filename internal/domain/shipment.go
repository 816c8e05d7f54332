package domain

import "fmt"

// ShipmentRecord is an immutable snapshot of one shipment as returned by the
// metrics API. It is identified uniquely by ID.
type ShipmentRecord struct {
	ID            int64   `json:"shipment_id"`
	CustomerID    int64   `json:"customer_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Weight        float64 `json:"weight"`
	Volume        float64 `json:"volume"`
	Carrier       string  `json:"carrier"`
	Mode          string  `json:"mode"`
	Status        Status  `json:"status"`
	ArrivalDate   Date    `json:"arrival_date"`
	DepartureDate Date    `json:"departure_date"`
	DeliveredDate Date    `json:"delivered_date"`
}

// PageResult is one page of shipments for a filter snapshot.
type PageResult struct {
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalCount int              `json:"total_count"`
	Items      []ShipmentRecord `json:"shipments"`
}

// TotalPages is ceil(totalCount / pageSize), never less than 1.
func TotalPages(totalCount, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 1
	}
	return (totalCount + pageSize - 1) / pageSize
}

func (p PageResult) TotalPages() int { return TotalPages(p.TotalCount, p.PageSize) }

func (p PageResult) Empty() bool { return p.TotalCount == 0 && len(p.Items) == 0 }

// Validate enforces the paging invariants: items fit in a page and page lies
// within [1, max(totalPages, 1)].
func (p PageResult) Validate() error {
	switch {
	case p.PageSize <= 0:
		return fmt.Errorf("%w: page_size %d must be positive", ErrInvalidPageResult, p.PageSize)
	case p.TotalCount < 0:
		return fmt.Errorf("%w: total_count %d is negative", ErrInvalidPageResult, p.TotalCount)
	case len(p.Items) > p.PageSize:
		return fmt.Errorf("%w: %d items exceed page_size %d", ErrInvalidPageResult, len(p.Items), p.PageSize)
	case p.Page < 1 || p.Page > p.TotalPages():
		return fmt.Errorf("%w: page %d outside [1, %d]", ErrInvalidPageResult, p.Page, p.TotalPages())
	}
	return nil
}

// Clone copies the item slice so the result can be handed out without
// exposing cache internals.
func (p PageResult) Clone() PageResult {
	out := p
	out.Items = append([]ShipmentRecord(nil), p.Items...)
	if out.Items == nil {
		out.Items = []ShipmentRecord{}
	}
	return out
}
