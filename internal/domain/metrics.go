package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type WarehouseUtilization struct {
	TotalVolume        float64 `json:"total_volume"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// Summary holds the headline KPIs.
type Summary struct {
	TotalShipments       int                  `json:"total_shipments"`
	OnTime               int                  `json:"on_time"`
	Delayed              int                  `json:"delayed"`
	WarehouseUtilization WarehouseUtilization `json:"warehouse_utilization"`
}

type CarrierCount struct {
	ArrivalDate Date   `json:"arrival_date"`
	Carrier     string `json:"carrier"`
	Count       int    `json:"count"`
}

type ModeVolume struct {
	Mode        string  `json:"mode"`
	TotalVolume float64 `json:"total_volume"`
}

// DailyPoint is the number of packages received on one calendar date.
// A date with no entry means zero packages.
type DailyPoint struct {
	ArrivalDate      Date `json:"arrival_date"`
	PackagesReceived int  `json:"packages_received"`
}

// MonthBucket is the monthly sum of DailyPoint.PackagesReceived.
type MonthBucket struct {
	MonthKey              string `json:"month_key"`
	TotalPackagesReceived int    `json:"total_packages_received"`
}

// DateRange bounds the carrier breakdown. Zero ends are open.
type DateRange struct {
	Start Date
	End   Date
}

// Overview bundles everything the dashboard header and charts need.
type Overview struct {
	Summary    Summary        `json:"summary"`
	Carriers   []CarrierCount `json:"received_by_carrier"`
	Modes      []ModeVolume   `json:"volume_by_mode"`
	Throughput []DailyPoint   `json:"throughput"`
	FetchedAt  time.Time      `json:"fetched_at"`
}

// UploadResult is the server's acknowledgement of a bulk CSV ingest.
type UploadResult struct {
	Message           string `json:"message"`
	TotalUploaded     int    `json:"total_uploaded"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
	TotalShipments    int    `json:"total_shipments"`
}

// ValidateUploadName accepts only .csv files.
func ValidateUploadName(name string) error {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "" || !strings.HasSuffix(strings.ToLower(base), ".csv") {
		return &ValidationError{Field: "file", Value: name, Reason: "only .csv files are accepted"}
	}
	return nil
}

// ExportFileName names the consolidation CSV after the export date.
func ExportFileName(exportedAt time.Time) string {
	return "consolidation-" + exportedAt.Format(DateLayout) + ".csv"
}
