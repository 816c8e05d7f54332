package dto

import (
	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
)

// ConsolidationResponse lists the groups for the applied filter. Expanded is
// the index of the group showing its shipments, or -1.
type ConsolidationResponse struct {
	Destination string                      `json:"destination"`
	ArrivalDate string                      `json:"arrival_date"`
	State       string                      `json:"state"`
	Error       string                      `json:"error,omitempty"`
	Groups      []domain.ConsolidationGroup `json:"groups"`
	Expanded    int                         `json:"expanded"`
}

type ExportResponse struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

func NewConsolidationResponse(v services.View) ConsolidationResponse {
	groups := v.Groups
	if groups == nil {
		groups = []domain.ConsolidationGroup{}
	}
	res := ConsolidationResponse{
		Destination: v.Consolidation.Destination,
		ArrivalDate: v.Consolidation.ArrivalDate.String(),
		State:       v.GroupsState.String(),
		Groups:      groups,
		Expanded:    v.Expanded,
	}
	if v.GroupsErr != nil {
		res.Error = domain.UserMessage(v.GroupsErr, "Failed to load consolidation")
	}
	return res
}

func NewExportResponse(a services.Artifact) ExportResponse {
	return ExportResponse{Name: a.Name, Path: a.Path, Bytes: a.Bytes}
}
