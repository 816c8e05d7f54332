package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.QuerySubmitted("shipments")
	m.ObserveAPI("summary", 200, time.Now())
	m.Export(true)
	assert.Nil(t, m.Registry())
}

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.QuerySubmitted("shipments")
	m.QuerySubmitted("shipments")
	m.QueryDiscarded("shipments")
	m.Export(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueriesSubmitted.WithLabelValues("shipments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesDiscarded.WithLabelValues("shipments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("failed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "dashboard_queries_submitted_total"))
}
