package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
		{5, 0, 1},
	}

	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.size); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestPageResultValidate(t *testing.T) {
	items := make([]ShipmentRecord, 3)

	valid := PageResult{Page: 2, PageSize: 3, TotalCount: 6, Items: items}
	require.NoError(t, valid.Validate())

	empty := PageResult{Page: 1, PageSize: 10}
	require.NoError(t, empty.Validate())
	assert.True(t, empty.Empty())

	bad := []PageResult{
		{Page: 1, PageSize: 2, TotalCount: 3, Items: items},
		{Page: 3, PageSize: 3, TotalCount: 6, Items: items},
		{Page: 0, PageSize: 3, TotalCount: 6},
		{Page: 1, PageSize: 0},
	}
	for _, p := range bad {
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidPageResult))
	}
}

func TestShipmentRecordDecodesAPIDates(t *testing.T) {
	payload := `{
		"shipment_id": 4000001, "customer_id": 12, "origin": "MIA", "destination": "GUY",
		"weight": 2.5, "volume": 1200, "carrier": "DHL", "mode": "air", "status": "intransit",
		"arrival_date": "2025-01-05T00:00:00", "departure_date": "2025-01-07", "delivered_date": null
	}`

	var rec ShipmentRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))
	assert.Equal(t, NewDate(2025, time.January, 5), rec.ArrivalDate)
	assert.Equal(t, "2025-01-07", rec.DepartureDate.String())
	assert.True(t, rec.DeliveredDate.IsZero())
	assert.Equal(t, StatusInTransit, rec.Status)
}

func TestValidateUploadName(t *testing.T) {
	require.NoError(t, ValidateUploadName("shipments.csv"))
	require.NoError(t, ValidateUploadName("/tmp/SHIPMENTS.CSV"))

	for _, name := range []string{"", "shipments.xlsx", "csv", "data.csv.gz"} {
		err := ValidateUploadName(name)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "name %q should be rejected", name)
	}
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2025, time.March, 9, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "consolidation-2025-03-09.csv", ExportFileName(at))
}

func TestUserMessage(t *testing.T) {
	withDetail := &TransportError{Op: "upload", StatusCode: 400, Detail: "Missing columns: weight"}
	assert.Equal(t, "Missing columns: weight", UserMessage(withDetail, "upload failed"))

	bare := &TransportError{Op: "export", StatusCode: 502}
	assert.Equal(t, "export failed with status: 502", UserMessage(bare, "export failed"))

	network := &TransportError{Op: "list", Err: errors.New("connection refused")}
	assert.Equal(t, "request failed", UserMessage(network, "request failed"))
	assert.True(t, network.Retryable())
	assert.False(t, (&TransportError{Op: "x", StatusCode: 404}).Retryable())
}
