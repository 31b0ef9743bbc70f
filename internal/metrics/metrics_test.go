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

func TestUpdateWorld(t *testing.T) {
	UpdateWorld(40, 3, 12)
	assert.Equal(t, 40.0, testutil.ToFloat64(scoreGauge))
	assert.Equal(t, 3.0, testutil.ToFloat64(bulletsActive))
	assert.Equal(t, 12.0, testutil.ToFloat64(targetsActive))
}

func TestCounters(t *testing.T) {
	hits := testutil.ToFloat64(targetHits)
	AddTargetHits(2)
	assert.Equal(t, hits+2, testutil.ToFloat64(targetHits))

	before := testutil.ToFloat64(collisions)
	IncCollisions()
	assert.Equal(t, before+1, testutil.ToFloat64(collisions))

	rejected := testutil.ToFloat64(connectionRejected.WithLabelValues("ws_limit"))
	RecordConnectionRejected("ws_limit")
	assert.Equal(t, rejected+1, testutil.ToFloat64(connectionRejected.WithLabelValues("ws_limit")))
}

func TestDebugHandler(t *testing.T) {
	RecordTick(2 * time.Millisecond)
	RecordRequest(http.MethodGet, "/api/state", http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(DebugHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := httptest.NewRecorder()
	DebugHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "flight_tick_duration_seconds"))
	assert.True(t, strings.Contains(body, "http_requests_total"))
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("localhost:6060"))
	assert.True(t, isLoopback("127.0.0.1:6060"))
	assert.True(t, isLoopback("[::1]:6060"))
	assert.False(t, isLoopback("0.0.0.0:6060"))
	assert.False(t, isLoopback(":6060"))
	assert.False(t, isLoopback("garbage"))
}
