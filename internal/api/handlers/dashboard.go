package handlers

import (
	"context"
	"io"
	"strconv"
	"strings"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

// Dashboard is the engine surface the HTTP handlers drive.
type Dashboard interface {
	View() services.View
	SetFilter(field domain.Field, value string) (domain.FilterState, error)
	ClearFilters() domain.FilterState
	SetPage(n int) (domain.FilterState, error)
	NextPage() (domain.FilterState, error)
	PreviousPage() (domain.FilterState, error)
	Refresh(ctx context.Context) error
	Wait(ctx context.Context) error

	ShipmentDetail(ctx context.Context, id int64) (domain.ShipmentRecord, error)

	FetchGroups(ctx context.Context, f domain.ConsolidationFilter) ([]domain.ConsolidationGroup, error)
	ToggleDetail(i int) (int, error)
	ExportCSV(ctx context.Context) (services.Artifact, error)
	ExportStream(ctx context.Context) (string, io.ReadCloser, error)

	LoadOverview(ctx context.Context, r domain.DateRange) (domain.Overview, error)
	FetchThroughput(ctx context.Context) error
	PreviousMonth() bool
	NextMonth() bool

	Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadResult, error)
}

var _ Dashboard = (*services.Engine)(nil)

func parseInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &domain.ValidationError{Field: field, Value: raw, Reason: "expected an integer", Err: err}
	}
	return n, nil
}

func parseDate(field, raw string) (domain.Date, error) {
	d, err := domain.ParseDate(raw)
	if err != nil {
		return domain.Date{}, &domain.ValidationError{Field: field, Value: raw, Reason: "expected YYYY-MM-DD", Err: err}
	}
	return d, nil
}

func truthy(raw string) bool {
	b, _ := strconv.ParseBool(raw)
	return b
}
