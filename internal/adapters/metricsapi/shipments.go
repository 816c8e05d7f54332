package metricsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
)

// shipmentQuery builds the query for GET /metrics/shipments: page and
// page_size always, every other filter only when set.
func shipmentQuery(f domain.FilterState) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("page_size", strconv.Itoa(f.PageSize))

	for _, field := range domain.FilterFields {
		if v := f.Value(field); v != "" {
			q.Set(string(field), v)
		}
	}
	return q
}

func (c *Client) ListShipments(ctx context.Context, f domain.FilterState) (_ domain.PageResult, err error) {
	defer obs.Time(ctx, "metricsapi.ListShipments")(&err)

	var page domain.PageResult
	if err := c.getJSON(ctx, "list shipments", c.endpoint("/metrics/shipments", shipmentQuery(f)), &page); err != nil {
		return domain.PageResult{}, fmt.Errorf("list shipments: %w", err)
	}
	if page.Items == nil {
		page.Items = []domain.ShipmentRecord{}
	}
	return page, nil
}

func (c *Client) GetShipment(ctx context.Context, id int64) (_ domain.ShipmentRecord, err error) {
	defer obs.Time(ctx, "metricsapi.GetShipment")(&err)

	var rec domain.ShipmentRecord
	path := "/metrics/shipments/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, "get shipment", c.endpoint(path, nil), &rec); err != nil {
		var te *domain.TransportError
		if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
			return domain.ShipmentRecord{}, fmt.Errorf("get shipment %d: %w: %w", id, domain.ErrNotFound, err)
		}
		return domain.ShipmentRecord{}, fmt.Errorf("get shipment %d: %w", id, err)
	}
	return rec, nil
}
