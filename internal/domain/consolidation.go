package domain

import (
	"cmp"
	"slices"
	"strings"
)

// ShipmentRef is the detail row of a consolidation group.
type ShipmentRef struct {
	ShipmentID int64 `json:"shipment_id"`
	CustomerID int64 `json:"customer_id"`
}

// GroupKey is the consolidation grouping key. Carrier, customer and every
// other attribute are irrelevant to grouping.
type GroupKey struct {
	Destination string
	ArrivalDate Date
}

// ConsolidationGroup is a set of shipments headed to the same destination
// that arrived on the same day.
type ConsolidationGroup struct {
	Destination string        `json:"destination"`
	ArrivalDate Date          `json:"arrival_date"`
	GroupCount  int           `json:"group_count"`
	Shipments   []ShipmentRef `json:"shipments"`
}

func (g ConsolidationGroup) Key() GroupKey {
	return GroupKey{Destination: g.Destination, ArrivalDate: g.ArrivalDate}
}

// ConsolidationFilter narrows the consolidation query.
type ConsolidationFilter struct {
	Destination string `json:"destination"`
	ArrivalDate Date   `json:"arrival_date"`
}

func (f ConsolidationFilter) IsZero() bool {
	return f.Destination == "" && f.ArrivalDate.IsZero()
}

func (f ConsolidationFilter) Validate() error {
	if f.Destination == "" {
		return nil
	}
	if !slices.Contains(Destinations, f.Destination) {
		return &ValidationError{
			Field:  "destination",
			Value:  f.Destination,
			Reason: "must be one of " + strings.Join(Destinations, " "),
		}
	}
	return nil
}

// ExportScope is a single destination/date constraint bounding an export.
type ExportScope struct {
	Destination string `json:"destination,omitempty"`
	ArrivalDate string `json:"arrival_date,omitempty"`
}

// ExportRequest is the body of POST /metrics/consolidation/export. An empty
// Scopes list means "export everything under the server defaults".
type ExportRequest struct {
	Scopes []ExportScope `json:"scopes"`
}

// ScopesFor returns one scope mirroring f, or none when f is empty.
func ScopesFor(f ConsolidationFilter) []ExportScope {
	if f.IsZero() {
		return []ExportScope{}
	}
	return []ExportScope{{
		Destination: f.Destination,
		ArrivalDate: f.ArrivalDate.String(),
	}}
}

func NewExportRequest(f ConsolidationFilter) ExportRequest {
	return ExportRequest{Scopes: ScopesFor(f)}
}

// GroupShipments groups records by (destination, arrival date). Groups are
// ordered by arrival date then destination; shipments within a group by ID.
func GroupShipments(records []ShipmentRecord) []ConsolidationGroup {
	index := make(map[GroupKey]int)
	groups := make([]ConsolidationGroup, 0)

	for _, r := range records {
		k := GroupKey{Destination: r.Destination, ArrivalDate: r.ArrivalDate}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, ConsolidationGroup{Destination: k.Destination, ArrivalDate: k.ArrivalDate})
		}
		groups[i].Shipments = append(groups[i].Shipments, ShipmentRef{ShipmentID: r.ID, CustomerID: r.CustomerID})
	}

	for i := range groups {
		slices.SortFunc(groups[i].Shipments, func(a, b ShipmentRef) int { return cmp.Compare(a.ShipmentID, b.ShipmentID) })
		groups[i].GroupCount = len(groups[i].Shipments)
	}
	slices.SortFunc(groups, compareGroups)

	return groups
}

// ConsolidationCandidates applies the consolidation policy: only received
// shipments are eligible, and a group needs at least two of them.
func ConsolidationCandidates(records []ShipmentRecord, f ConsolidationFilter) []ConsolidationGroup {
	eligible := make([]ShipmentRecord, 0, len(records))
	for _, r := range records {
		if r.Status != StatusReceived {
			continue
		}
		if f.Destination != "" && r.Destination != f.Destination {
			continue
		}
		if !f.ArrivalDate.IsZero() && !r.ArrivalDate.Equal(f.ArrivalDate) {
			continue
		}
		eligible = append(eligible, r)
	}

	out := make([]ConsolidationGroup, 0)
	for _, g := range GroupShipments(eligible) {
		if g.GroupCount > 1 {
			out = append(out, g)
		}
	}
	return out
}

// NormalizeGroups merges groups that share a key, keeping first-seen order,
// and drops repeated shipment IDs. When detail rows are present GroupCount
// is recomputed from them.
func NormalizeGroups(groups []ConsolidationGroup) []ConsolidationGroup {
	index := make(map[GroupKey]int, len(groups))
	out := make([]ConsolidationGroup, 0, len(groups))
	seen := make(map[GroupKey]map[int64]struct{}, len(groups))

	for _, g := range groups {
		k := g.Key()
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			seen[k] = make(map[int64]struct{})
			out = append(out, ConsolidationGroup{
				Destination: g.Destination,
				ArrivalDate: g.ArrivalDate,
				GroupCount:  g.GroupCount,
				Shipments:   []ShipmentRef{},
			})
		} else if len(g.Shipments) == 0 {
			out[i].GroupCount += g.GroupCount
		}

		for _, s := range g.Shipments {
			if _, dup := seen[k][s.ShipmentID]; dup {
				continue
			}
			seen[k][s.ShipmentID] = struct{}{}
			out[i].Shipments = append(out[i].Shipments, s)
		}
	}

	for i := range out {
		if len(out[i].Shipments) > 0 {
			out[i].GroupCount = len(out[i].Shipments)
		}
	}
	return out
}

func compareGroups(a, b ConsolidationGroup) int {
	if c := a.ArrivalDate.Compare(b.ArrivalDate); c != 0 {
		return c
	}
	return cmp.Compare(a.Destination, b.Destination)
}
