package metricsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
)

type consolidationResponse struct {
	Groups []domain.ConsolidationGroup `json:"cargo_consolidation"`
}

func (c *Client) Consolidation(ctx context.Context, f domain.ConsolidationFilter) (_ []domain.ConsolidationGroup, err error) {
	defer obs.Time(ctx, "metricsapi.Consolidation")(&err)

	q := url.Values{}
	if f.Destination != "" {
		q.Set("destination", f.Destination)
	}
	if !f.ArrivalDate.IsZero() {
		q.Set("arrival_date", f.ArrivalDate.String())
	}

	var resp consolidationResponse
	if err := c.getJSON(ctx, "consolidation", c.endpoint("/metrics/consolidation", q), &resp); err != nil {
		return nil, fmt.Errorf("consolidation: %w", err)
	}
	if resp.Groups == nil {
		resp.Groups = []domain.ConsolidationGroup{}
	}
	return resp.Groups, nil
}

// ExportConsolidation posts the scope list and returns the CSV body as
// received. Exports are never retried.
func (c *Client) ExportConsolidation(ctx context.Context, req domain.ExportRequest) (_ io.ReadCloser, err error) {
	defer obs.Time(ctx, "metricsapi.ExportConsolidation")(&err)

	if req.Scopes == nil {
		req.Scopes = []domain.ExportScope{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal export request: %w", err)
	}

	resp, err := c.post(ctx, "export consolidation", c.endpoint("/metrics/consolidation/export", nil), payload, "application/json")
	if err != nil {
		return nil, fmt.Errorf("export consolidation: %w", err)
	}
	return resp.Body, nil
}
