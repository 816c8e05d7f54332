package metricsapi

import (
	"context"
	"fmt"
	"net/url"

	"shipment-dashboard/internal/domain"
)

type carrierResponse struct {
	Carriers []domain.CarrierCount `json:"received_by_carrier"`
}

type modeResponse struct {
	Modes []domain.ModeVolume `json:"volume_by_mode"`
}

type throughputResponse struct {
	Throughput []domain.DailyPoint `json:"throughput"`
}

func (c *Client) Summary(ctx context.Context) (domain.Summary, error) {
	var s domain.Summary
	if err := c.getJSON(ctx, "summary", c.endpoint("/metrics/summary", nil), &s); err != nil {
		return domain.Summary{}, fmt.Errorf("summary: %w", err)
	}
	return s, nil
}

func (c *Client) ReceivedByCarrier(ctx context.Context, r domain.DateRange) ([]domain.CarrierCount, error) {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.String())
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.String())
	}

	var resp carrierResponse
	if err := c.getJSON(ctx, "received by carrier", c.endpoint("/metrics/received-by-carrier", q), &resp); err != nil {
		return nil, fmt.Errorf("received by carrier: %w", err)
	}
	if resp.Carriers == nil {
		resp.Carriers = []domain.CarrierCount{}
	}
	return resp.Carriers, nil
}

func (c *Client) VolumeByMode(ctx context.Context) ([]domain.ModeVolume, error) {
	var resp modeResponse
	if err := c.getJSON(ctx, "volume by mode", c.endpoint("/metrics/volume-by-mode", nil), &resp); err != nil {
		return nil, fmt.Errorf("volume by mode: %w", err)
	}
	if resp.Modes == nil {
		resp.Modes = []domain.ModeVolume{}
	}
	return resp.Modes, nil
}

func (c *Client) Throughput(ctx context.Context) ([]domain.DailyPoint, error) {
	var resp throughputResponse
	if err := c.getJSON(ctx, "throughput", c.endpoint("/metrics/throughput", nil), &resp); err != nil {
		return nil, fmt.Errorf("throughput: %w", err)
	}
	if resp.Throughput == nil {
		resp.Throughput = []domain.DailyPoint{}
	}
	return resp.Throughput, nil
}
