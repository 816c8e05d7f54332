package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipment-dashboard/internal/adapters/metricsapi"
	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/services"
	"shipment-dashboard/internal/testutil"
)

func throughputEngine(t *testing.T) *services.Engine {
	t.Helper()

	engine, err := services.NewEngine(services.EngineConfig{PageSize: 10}, services.Deps{API: testutil.NewFakeAPI(nil)})
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	require.NoError(t, engine.LoadThroughput(testutil.Daily()))
	return engine
}

func TestSeekMonth(t *testing.T) {
	engine := throughputEngine(t)

	require.NoError(t, seekMonth(engine, "2025-01"))
	assert.Equal(t, 0, engine.View().Cursor)

	require.NoError(t, seekMonth(engine, "2025-02"))
	assert.Equal(t, 1, engine.View().Cursor)

	assert.Error(t, seekMonth(engine, "2024-12"))
	assert.Equal(t, 1, engine.View().Cursor, "unknown month leaves the cursor alone")
}

func TestPrintThroughputMarksSelectedMonth(t *testing.T) {
	engine := throughputEngine(t)
	require.NoError(t, seekMonth(engine, "2025-01"))

	var out bytes.Buffer
	printThroughput(&out, engine.View())

	assert.Regexp(t, `2025-01\s+13\s+<`, out.String())
	assert.Contains(t, out.String(), "2025-01-20")
	assert.NotContains(t, out.String(), "2025-02-01")
}

func TestPrintShipmentsWithoutData(t *testing.T) {
	engine := throughputEngine(t)

	var out bytes.Buffer
	printShipments(&out, engine.View())

	assert.Equal(t, "no data\n", out.String())
}

func statusClient(t *testing.T, baseURL string) *metricsapi.Client {
	t.Helper()

	c, err := metricsapi.NewClient(baseURL, metricsapi.Options{
		Timeout:          time.Second,
		MaxAttempts:      1,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	})
	require.NoError(t, err)
	return c
}

func TestPrintStatusReachable(t *testing.T) {
	fake := testutil.NewFakeAPI(nil)
	fake.KPIs = domain.Summary{TotalShipments: 42, OnTime: 40, Delayed: 2}
	srv := testutil.NewMetricsServer(fake)
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, printStatus(context.Background(), &out, statusClient(t, srv.URL), srv.URL))

	assert.Equal(t, "metrics api "+srv.URL+": ok, 42 shipments (breaker closed)\n", out.String())
}

func TestPrintStatusUnavailableTripsBreaker(t *testing.T) {
	srv := testutil.NewMetricsServer(testutil.NewFakeAPI(nil))
	url := srv.URL
	srv.Close()

	var out bytes.Buffer
	err := printStatus(context.Background(), &out, statusClient(t, url), url)

	require.Error(t, err)
	assert.Equal(t, "metrics api "+url+": unavailable (breaker open)\n", out.String())
}
