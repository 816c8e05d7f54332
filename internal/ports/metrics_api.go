package ports

import (
	"context"
	"io"
	"shipment-dashboard/internal/domain"
)

// Port: paged shipment queries against the remote metrics API.
type ShipmentQuerier interface {
	// Return one page of shipments matching the snapshot.
	ListShipments(ctx context.Context, filter domain.FilterState) (domain.PageResult, error)
	// Return a single shipment. Missing shipments yield domain.ErrNotFound.
	GetShipment(ctx context.Context, id int64) (domain.ShipmentRecord, error)
}

// Port: server-side consolidation grouping and CSV export.
type ConsolidationSource interface {
	Consolidation(ctx context.Context, filter domain.ConsolidationFilter) ([]domain.ConsolidationGroup, error)
	// Return the raw CSV payload. The caller must close it.
	ExportConsolidation(ctx context.Context, req domain.ExportRequest) (io.ReadCloser, error)
}

// Port: dashboard KPIs and chart series.
type OverviewSource interface {
	Summary(ctx context.Context) (domain.Summary, error)
	ReceivedByCarrier(ctx context.Context, r domain.DateRange) ([]domain.CarrierCount, error)
	VolumeByMode(ctx context.Context) ([]domain.ModeVolume, error)
	Throughput(ctx context.Context) ([]domain.DailyPoint, error)
}

// Port: bulk CSV ingest.
type Ingestor interface {
	Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error)
}

// MetricsAPI is the full remote contract the orchestration engine consumes.
type MetricsAPI interface {
	ShipmentQuerier
	ConsolidationSource
	OverviewSource
	Ingestor
}
