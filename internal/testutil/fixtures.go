package testutil

import "shipment-dashboard/internal/domain"

// Shipments returns n received shipments spread over destinations,
// carriers and two arrival dates. IDs start at 1.
func Shipments(n int) []domain.ShipmentRecord {
	dates := []domain.Date{domain.MustParseDate("2025-01-05"), domain.MustParseDate("2025-02-01")}
	out := make([]domain.ShipmentRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.ShipmentRecord{
			ID:          int64(i + 1),
			CustomerID:  int64(100 + i%7),
			Origin:      "MIA",
			Destination: domain.Destinations[i%3],
			Weight:      float64(10 + i),
			Volume:      float64(2 * (i + 1)),
			Carrier:     domain.Carriers[i%len(domain.Carriers)],
			Mode:        []string{"air", "sea"}[i%2],
			Status:      domain.StatusReceived,
			ArrivalDate: dates[i%2],
		})
	}
	return out
}

// Daily is the throughput series used across tests: two January points
// out of order and one in February.
func Daily() []domain.DailyPoint {
	return []domain.DailyPoint{
		{ArrivalDate: domain.MustParseDate("2025-01-05"), PackagesReceived: 10},
		{ArrivalDate: domain.MustParseDate("2025-02-01"), PackagesReceived: 5},
		{ArrivalDate: domain.MustParseDate("2025-01-20"), PackagesReceived: 3},
	}
}
