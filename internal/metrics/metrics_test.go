package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Quote("warsaw-center", true)
	m.Quote("warsaw-center", true)
	m.Quote("", false)
	m.Transition("ready", "applied")
	m.Sync(nil, 4)
	m.Sync(errors.New("boom"), 0)
	m.KitchenClients(3)
	m.ObserveHTTP(http.MethodGet, "/api/delivery/zones", http.StatusOK, 10*time.Millisecond)

	out := scrape(t, m)

	assert.Contains(t, out, `delivery_quotes_total{available="true",zone="warsaw-center"} 2`)
	assert.Contains(t, out, `delivery_quotes_total{available="false",zone="none"} 1`)
	assert.Contains(t, out, `kitchen_status_transitions_total{outcome="applied",to="ready"} 1`)
	assert.Contains(t, out, `kitchen_order_sync_total{outcome="error"} 1`)
	assert.Contains(t, out, `kitchen_synced_orders 4`)
	assert.Contains(t, out, `kitchen_ws_clients 3`)
	assert.Contains(t, out, `http_requests_total{code="200",method="GET",route="/api/delivery/zones"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.Quote("x", true)
	m.Locate("ok")
	m.Sync(nil, 1)
	m.LiveSessionOpened()
	m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}
