package testutil

import (
	"bytes"
	"cmp"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"shipment-dashboard/internal/domain"
)

// FakeAPI is an in-memory metrics API. Shipment queries filter and page
// Records the way the real backend does; consolidation groups received
// shipments by destination and arrival date.
type FakeAPI struct {
	mu sync.Mutex

	Records   []domain.ShipmentRecord
	KPIs      domain.Summary
	Carriers  []domain.CarrierCount
	Modes     []domain.ModeVolume
	Daily     []domain.DailyPoint
	UploadMsg string

	// Err fails every call when set. ExportErr fails only exports.
	Err       error
	ExportErr error

	calls      map[string]int
	lastExport *domain.ExportRequest
	uploads    []string
}

func NewFakeAPI(records []domain.ShipmentRecord) *FakeAPI {
	return &FakeAPI{Records: records, calls: map[string]int{}}
}

func (f *FakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
	return f.Err
}

// Calls returns how often op was invoked.
func (f *FakeAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[op]
}

// LastExport returns the body of the most recent export request.
func (f *FakeAPI) LastExport() (domain.ExportRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.lastExport == nil {
		return domain.ExportRequest{}, false
	}
	return *f.lastExport, true
}

func (f *FakeAPI) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.uploads)
}

func (f *FakeAPI) ListShipments(ctx context.Context, filter domain.FilterState) (domain.PageResult, error) {
	if err := f.record("shipments"); err != nil {
		return domain.PageResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.PageResult{}, err
	}

	matched := []domain.ShipmentRecord{}
	for _, r := range f.Records {
		if Matches(r, filter) {
			matched = append(matched, r)
		}
	}
	slices.SortFunc(matched, func(a, b domain.ShipmentRecord) int { return cmp.Compare(a.ID, b.ID) })

	start := (filter.Page - 1) * filter.PageSize
	end := min(start+filter.PageSize, len(matched))
	items := []domain.ShipmentRecord{}
	if start < len(matched) {
		items = append(items, matched[start:end]...)
	}

	return domain.PageResult{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: len(matched),
		Items:      items,
	}, nil
}

// Matches applies the backend's shipment filter: equality on enums,
// inclusive arrival range, and search by shipment or customer id.
func Matches(r domain.ShipmentRecord, f domain.FilterState) bool {
	switch {
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Destination != "" && r.Destination != f.Destination:
		return false
	case f.Carrier != "" && r.Carrier != f.Carrier:
		return false
	case !f.ArrivalStart.IsZero() && r.ArrivalDate.Before(f.ArrivalStart):
		return false
	case !f.ArrivalEnd.IsZero() && f.ArrivalEnd.Before(r.ArrivalDate):
		return false
	}
	if f.Search != "" {
		id, err := strconv.ParseInt(f.Search, 10, 64)
		if err != nil || (r.ID != id && r.CustomerID != id) {
			return false
		}
	}
	return true
}

func (f *FakeAPI) GetShipment(ctx context.Context, id int64) (domain.ShipmentRecord, error) {
	if err := f.record("shipment"); err != nil {
		return domain.ShipmentRecord{}, err
	}
	for _, r := range f.Records {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.ShipmentRecord{}, fmt.Errorf("shipment %d: %w", id, domain.ErrNotFound)
}

func (f *FakeAPI) Consolidation(ctx context.Context, filter domain.ConsolidationFilter) ([]domain.ConsolidationGroup, error) {
	if err := f.record("consolidation"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return domain.ConsolidationCandidates(f.Records, filter), nil
}

// ExportConsolidation renders the groups matching the request scopes as CSV.
func (f *FakeAPI) ExportConsolidation(ctx context.Context, req domain.ExportRequest) (io.ReadCloser, error) {
	if err := f.record("export"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.lastExport = &req
	exportErr := f.ExportErr
	f.mu.Unlock()
	if exportErr != nil {
		return nil, exportErr
	}

	filters := []domain.ConsolidationFilter{{}}
	if len(req.Scopes) > 0 {
		filters = filters[:0]
		for _, s := range req.Scopes {
			d, err := domain.ParseDate(s.ArrivalDate)
			if err != nil {
				return nil, err
			}
			filters = append(filters, domain.ConsolidationFilter{Destination: s.Destination, ArrivalDate: d})
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"destination", "arrival_date", "shipment_id", "customer_id"})
	for _, cf := range filters {
		for _, g := range domain.ConsolidationCandidates(f.Records, cf) {
			for _, s := range g.Shipments {
				_ = w.Write([]string{
					g.Destination,
					g.ArrivalDate.String(),
					strconv.FormatInt(s.ShipmentID, 10),
					strconv.FormatInt(s.CustomerID, 10),
				})
			}
		}
	}
	w.Flush()
	return io.NopCloser(&buf), w.Error()
}

func (f *FakeAPI) Summary(ctx context.Context) (domain.Summary, error) {
	if err := f.record("summary"); err != nil {
		return domain.Summary{}, err
	}
	return f.KPIs, nil
}

func (f *FakeAPI) ReceivedByCarrier(ctx context.Context, r domain.DateRange) ([]domain.CarrierCount, error) {
	if err := f.record("received_by_carrier"); err != nil {
		return nil, err
	}
	out := []domain.CarrierCount{}
	for _, c := range f.Carriers {
		if !r.Start.IsZero() && c.ArrivalDate.Before(r.Start) {
			continue
		}
		if !r.End.IsZero() && r.End.Before(c.ArrivalDate) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *FakeAPI) VolumeByMode(ctx context.Context) ([]domain.ModeVolume, error) {
	if err := f.record("volume_by_mode"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Modes), nil
}

func (f *FakeAPI) Throughput(ctx context.Context) ([]domain.DailyPoint, error) {
	if err := f.record("throughput"); err != nil {
		return nil, err
	}
	return slices.Clone(f.Daily), nil
}

func (f *FakeAPI) Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error) {
	if err := f.record("upload"); err != nil {
		return domain.UploadResult{}, err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return domain.UploadResult{}, err
	}
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return domain.UploadResult{}, &domain.TransportError{
			Op: "upload", StatusCode: 400, Detail: "Could not parse CSV: " + err.Error(),
		}
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, filename)
	msg := f.UploadMsg
	f.mu.Unlock()
	if msg == "" {
		msg = "Upload successful"
	}

	n := max(len(rows)-1, 0)
	return domain.UploadResult{Message: msg, TotalUploaded: n, TotalShipments: n}, nil
}
