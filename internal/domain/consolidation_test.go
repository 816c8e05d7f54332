package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupShipmentsKeysOnDestinationAndDate(t *testing.T) {
	jan5 := MustParseDate("2025-01-05")
	jan6 := MustParseDate("2025-01-06")

	records := []ShipmentRecord{
		{ID: 4000003, CustomerID: 9, Destination: "GUY", ArrivalDate: jan5, Carrier: "DHL"},
		{ID: 4000001, CustomerID: 7, Destination: "GUY", ArrivalDate: jan5, Carrier: "UPS"},
		{ID: 4000002, CustomerID: 7, Destination: "SLU", ArrivalDate: jan5, Carrier: "DHL"},
		{ID: 4000004, CustomerID: 8, Destination: "GUY", ArrivalDate: jan6, Carrier: "DHL"},
	}

	groups := GroupShipments(records)
	require.Len(t, groups, 3)

	assert.Equal(t, GroupKey{Destination: "GUY", ArrivalDate: jan5}, groups[0].Key())
	assert.Equal(t, []ShipmentRef{{ShipmentID: 4000001, CustomerID: 7}, {ShipmentID: 4000003, CustomerID: 9}}, groups[0].Shipments)
	assert.Equal(t, "SLU", groups[1].Destination)
	assert.Equal(t, jan6, groups[2].ArrivalDate)

	for _, g := range groups {
		assert.Equal(t, len(g.Shipments), g.GroupCount)
	}
}

func TestGroupShipmentsSharedKeyAlwaysSameGroup(t *testing.T) {
	day := MustParseDate("2025-03-10")
	records := make([]ShipmentRecord, 0, 20)
	for i := range 20 {
		dest := Destinations[i%3]
		records = append(records, ShipmentRecord{
			ID:          int64(4000000 + i),
			Destination: dest,
			ArrivalDate: day,
			Carrier:     Carriers[i%len(Carriers)],
			CustomerID:  int64(i),
		})
	}

	where := make(map[int64]GroupKey)
	for _, g := range GroupShipments(records) {
		for _, s := range g.Shipments {
			_, dup := where[s.ShipmentID]
			require.False(t, dup, "shipment %d appears in two groups", s.ShipmentID)
			where[s.ShipmentID] = g.Key()
		}
	}

	for _, a := range records {
		for _, b := range records {
			if a.Destination == b.Destination && a.ArrivalDate.Equal(b.ArrivalDate) {
				assert.Equal(t, where[a.ID], where[b.ID])
			}
		}
	}
}

func TestConsolidationCandidatesPolicy(t *testing.T) {
	day := MustParseDate("2025-02-01")
	records := []ShipmentRecord{
		{ID: 1, Destination: "GUY", ArrivalDate: day, Status: StatusReceived},
		{ID: 2, Destination: "GUY", ArrivalDate: day, Status: StatusReceived},
		{ID: 3, Destination: "GUY", ArrivalDate: day, Status: StatusDelivered},
		{ID: 4, Destination: "DOM", ArrivalDate: day, Status: StatusReceived},
	}

	groups := ConsolidationCandidates(records, ConsolidationFilter{})
	require.Len(t, groups, 1)
	assert.Equal(t, "GUY", groups[0].Destination)
	assert.Equal(t, 2, groups[0].GroupCount)

	assert.Empty(t, ConsolidationCandidates(records, ConsolidationFilter{Destination: "DOM"}))
}

func TestNormalizeGroupsMergesDuplicateKeys(t *testing.T) {
	day := MustParseDate("2025-02-01")
	in := []ConsolidationGroup{
		{Destination: "GUY", ArrivalDate: day, GroupCount: 2, Shipments: []ShipmentRef{{ShipmentID: 1}, {ShipmentID: 2}}},
		{Destination: "SVG", ArrivalDate: day, GroupCount: 5},
		{Destination: "GUY", ArrivalDate: day, GroupCount: 2, Shipments: []ShipmentRef{{ShipmentID: 2}, {ShipmentID: 3}}},
	}

	out := NormalizeGroups(in)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].GroupCount)
	assert.Len(t, out[0].Shipments, 3)
	assert.Equal(t, 5, out[1].GroupCount, "count without detail is kept")
}

func TestExportScopesMirrorFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ConsolidationFilter
		want   string
	}{
		{name: "no filters", filter: ConsolidationFilter{}, want: `{"scopes":[]}`},
		{name: "destination only", filter: ConsolidationFilter{Destination: "GUY"}, want: `{"scopes":[{"destination":"GUY"}]}`},
		{name: "date only", filter: ConsolidationFilter{ArrivalDate: MustParseDate("2025-01-05")}, want: `{"scopes":[{"arrival_date":"2025-01-05"}]}`},
		{
			name:   "both",
			filter: ConsolidationFilter{Destination: "SXM", ArrivalDate: MustParseDate("2025-01-05")},
			want:   `{"scopes":[{"destination":"SXM","arrival_date":"2025-01-05"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(NewExportRequest(tt.filter))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(body))
		})
	}
}
