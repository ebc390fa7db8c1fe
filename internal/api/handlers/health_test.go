package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

type staticHealth map[string]interface{}

func (s staticHealth) Health() map[string]interface{} { return s }

type stubCache struct {
	stats    map[string]interface{}
	err      error
	cleared  bool
	clearErr error
}

func (c *stubCache) Get(context.Context, string) (string, error) { return "", services.ErrCacheMiss }
func (c *stubCache) Set(context.Context, string, string) error   { return nil }
func (c *stubCache) Delete(context.Context, string) error        { return nil }
func (c *stubCache) Clear(context.Context) error {
	c.cleared = true
	return c.clearErr
}
func (c *stubCache) GetStats(context.Context) (map[string]interface{}, error) { return c.stats, c.err }
func (c *stubCache) Health() map[string]interface{} {
	return map[string]interface{}{"status": "healthy", "backend": "memory"}
}

func serve(handler gin.HandlerFunc, method, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Handle(method, path, handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func status(s string) map[string]interface{} {
	return map[string]interface{}{"status": s}
}

func TestHealthHandler_GetHealth(t *testing.T) {
	tests := []struct {
		name     string
		services staticHealth
		want     string
		code     int
	}{
		{"all healthy", staticHealth{"cache": status("healthy"), "ingest": status("healthy")}, "healthy", http.StatusOK},
		{"degraded cache", staticHealth{"cache": status("degraded"), "ingest": status("healthy")}, "degraded", http.StatusOK},
		{"unhealthy feed", staticHealth{"feed": status("unhealthy"), "cache": status("degraded")}, "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(NewHealthHandler(tt.services, quietLogger()).GetHealth, http.MethodGet, "/health")

			require.Equal(t, tt.code, w.Code)
			var body models.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Status)
			assert.Equal(t, Version, body.Version)
			assert.Len(t, body.Services, len(tt.services))
		})
	}
}

func TestHealthHandler_ServiceError(t *testing.T) {
	svcs := staticHealth{"cache": map[string]interface{}{"status": "degraded", "error": "dial tcp: refused"}}
	w := serve(NewHealthHandler(svcs, quietLogger()).GetHealth, http.MethodGet, "/health")

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "dial tcp: refused", body.Services["cache"].Error)
}

func TestHealthHandler_GetReadiness(t *testing.T) {
	ready := serve(NewHealthHandler(staticHealth{"cache": status("unhealthy"), "ingest": status("healthy")}, quietLogger()).GetReadiness, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, ready.Code)

	notReady := serve(NewHealthHandler(staticHealth{"ingest": status("unhealthy")}, quietLogger()).GetReadiness, http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, notReady.Code)
	assert.Contains(t, notReady.Body.String(), "ingest service is unhealthy")
}

func TestHealthHandler_GetLiveness(t *testing.T) {
	w := serve(NewHealthHandler(staticHealth{}, quietLogger()).GetLiveness, http.MethodGet, "/health/live")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alive":true`)
}

func TestMetricsHandler_GetMetrics(t *testing.T) {
	tenders := &stubTenderService{stats: services.Stats{
		Invocations:     4,
		FetchErrors:     1,
		Fetched:         75,
		Accepted:        69,
		Skipped:         6,
		Delivered:       59,
		FieldWarnings:   3,
		GroupsDelivered: 6,
		GroupsFailed:    1,
		TotalDuration:   3 * time.Second,
		LastRun:         time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
		LastSink:        "queue",
	}}
	cache := &stubCache{stats: map[string]interface{}{
		"hits":   int64(3),
		"misses": int64(1),
		"memory": map[string]interface{}{"size": 1},
		"redis":  map[string]interface{}{"available": true, "keys": int64(2)},
	}}

	w := serve(NewMetricsHandler(tenders, cache, quietLogger()).GetMetrics, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	var body models.MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.EqualValues(t, 4, body.Invocations.Total)
	assert.InDelta(t, 75.0, body.Invocations.SuccessRate, 0.001)
	assert.EqualValues(t, 1000, body.Invocations.AvgDuration)
	assert.Equal(t, "2025-10-01T09:00:00Z", body.Invocations.LastRun)
	assert.Equal(t, "queue", body.Invocations.LastSink)
	assert.EqualValues(t, 59, body.Records.Delivered)
	assert.EqualValues(t, 1, body.Records.GroupsFailed)
	assert.InDelta(t, 75.0, body.Cache.HitRate, 0.001)
	assert.EqualValues(t, 3, body.Cache.Size)
	assert.Positive(t, body.System.Goroutines)
}

func TestMetricsHandler_NoRuns(t *testing.T) {
	cache := &stubCache{err: errors.New("redis down")}
	w := serve(NewMetricsHandler(&stubTenderService{}, cache, quietLogger()).GetMetrics, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	var body models.MetricsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Invocations.SuccessRate)
	assert.Zero(t, body.Invocations.AvgDuration)
	assert.Empty(t, body.Invocations.LastRun)
	assert.Zero(t, body.Cache.Hits)
}

func TestCacheHandler(t *testing.T) {
	cache := &stubCache{stats: map[string]interface{}{"hits": int64(1)}}
	handler := NewCacheHandler(cache, quietLogger())

	stats := serve(handler.GetStats, http.MethodGet, "/api/v1/cache/stats")
	assert.Equal(t, http.StatusOK, stats.Code)
	assert.Contains(t, stats.Body.String(), `"backend":"memory"`)

	cleared := serve(handler.Clear, http.MethodDelete, "/api/v1/cache/clear")
	assert.Equal(t, http.StatusOK, cleared.Code)
	assert.True(t, cache.cleared)

	failing := NewCacheHandler(&stubCache{err: errors.New("x"), clearErr: errors.New("x")}, quietLogger())
	assert.Equal(t, http.StatusInternalServerError, serve(failing.GetStats, http.MethodGet, "/s").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(failing.Clear, http.MethodDelete, "/c").Code)
}
