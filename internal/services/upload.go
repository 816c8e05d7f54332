package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/obs"
	"shipment-dashboard/internal/ports"
)

// UploadShipments sends a CSV file for bulk ingest. Names not ending in
// .csv are rejected before any network call. On success the overview
// cache is invalidated since every KPI may have moved.
func UploadShipments(
	ctx context.Context,
	ingestor ports.Ingestor,
	overview *OverviewLoader,
	filename string,
	r io.Reader,
	logger *zap.Logger,
) (res domain.UploadResult, err error) {
	defer obs.Time(ctx, "upload")(&err)

	if err := domain.ValidateUploadName(filename); err != nil {
		return domain.UploadResult{}, err
	}

	res, err = ingestor.Upload(ctx, filename, r)
	if err != nil {
		return domain.UploadResult{}, fmt.Errorf("upload %q: %w", filename, err)
	}

	if overview != nil {
		if ierr := overview.Invalidate(ctx); ierr != nil && logger != nil {
			logger.Warn("overview cache not invalidated after upload", zap.Error(ierr))
		}
	}
	return res, nil
}
