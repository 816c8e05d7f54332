package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStateWithResetsPage(t *testing.T) {
	values := map[Field]string{
		FieldStatus:       "delivered",
		FieldDestination:  "GUY",
		FieldCarrier:      "DHL",
		FieldArrivalStart: "2025-01-01",
		FieldArrivalEnd:   "2025-01-31",
		FieldSearch:       "4000123",
	}

	for _, field := range FilterFields {
		t.Run(string(field), func(t *testing.T) {
			start := NewFilterState(10)
			start.Page = 7

			next, err := start.With(field, values[field])
			require.NoError(t, err)
			assert.Equal(t, 1, next.Page, "page must reset after %s changes", field)
			assert.Equal(t, values[field], next.Value(field))
			assert.Equal(t, 7, start.Page, "original snapshot must not change")
		})
	}
}

func TestFilterStateWithPageKeepsFilters(t *testing.T) {
	start, err := NewFilterState(10).With(FieldCarrier, "ups")
	require.NoError(t, err)

	next, err := start.With(FieldPage, "3")
	require.NoError(t, err)
	assert.Equal(t, 3, next.Page)
	assert.Equal(t, "UPS", next.Carrier)
}

func TestFilterStateWithUnchangedValueIsNoop(t *testing.T) {
	start := NewFilterState(10)
	start.Destination = "SLU"
	start.Page = 4

	next, err := start.With(FieldDestination, "SLU")
	require.NoError(t, err)
	assert.Equal(t, 4, next.Page)
}

func TestFilterStateWithClearsField(t *testing.T) {
	start := NewFilterState(10)
	start.Status = StatusReceived
	start.Page = 2

	next, err := start.With(FieldStatus, "")
	require.NoError(t, err)
	assert.Empty(t, next.Status)
	assert.Equal(t, 1, next.Page)
}

func TestFilterStateWithRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
	}{
		{name: "unknown status", field: FieldStatus, value: "lost"},
		{name: "unknown destination", field: FieldDestination, value: "NYC"},
		{name: "unknown carrier", field: FieldCarrier, value: "POSTNL"},
		{name: "malformed date", field: FieldArrivalStart, value: "01/02/2025"},
		{name: "date with trailing garbage", field: FieldArrivalStart, value: "2025-01-05garbage"},
		{name: "date with extra digits", field: FieldArrivalEnd, value: "2025-01-0512"},
		{name: "non numeric page", field: FieldPage, value: "two"},
		{name: "zero page", field: FieldPage, value: "0"},
		{name: "unknown field", field: Field("mode"), value: "air"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := NewFilterState(10)
			start.Page = 2

			next, err := start.With(tt.field, tt.value)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %T", err)
			assert.Equal(t, start, next)
		})
	}
}

func TestFilterStateWithSearchHasNoLengthLimit(t *testing.T) {
	long := strings.Repeat("9", 100)

	next, err := NewFilterState(10).With(FieldSearch, long)

	require.NoError(t, err)
	assert.Equal(t, long, next.Search)
}

func TestFilterStateQueryKeyIgnoresPage(t *testing.T) {
	a := NewFilterState(10)
	b := a
	b.Page = 5

	assert.Equal(t, a.QueryKey(), b.QueryKey())
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" Arrival_Date_Start ")
	require.NoError(t, err)
	assert.Equal(t, FieldArrivalStart, f)

	_, err = ParseField("weight")
	require.Error(t, err)
}
