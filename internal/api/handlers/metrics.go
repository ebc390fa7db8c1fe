package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

// StatsProvider exposes the ingestion counters
type StatsProvider interface {
	GetStats() services.Stats
}

// MetricsHandler handles metrics requests
type MetricsHandler struct {
	tenders StatsProvider
	cache   services.CacheServiceInterface
	logger  *logrus.Logger
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(tenders StatsProvider, cache services.CacheServiceInterface, logger *logrus.Logger) *MetricsHandler {
	return &MetricsHandler{
		tenders: tenders,
		cache:   cache,
		logger:  logger,
	}
}

// GetMetrics handles metrics request
// @Summary Get application metrics
// @Description Get ingestion counters, feed cache statistics and runtime metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} models.MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Debug("Getting application metrics")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := h.tenders.GetStats()

	response := models.MetricsResponse{
		Invocations: models.InvocationMetrics{
			Total:       stats.Invocations,
			FetchErrors: stats.FetchErrors,
			SuccessRate: percent(stats.Invocations-stats.FetchErrors, stats.Invocations),
			LastSink:    stats.LastSink,
		},
		Records: models.RecordMetrics{
			Fetched:         stats.Fetched,
			Accepted:        stats.Accepted,
			Skipped:         stats.Skipped,
			Delivered:       stats.Delivered,
			FieldWarnings:   stats.FieldWarnings,
			GroupsFailed:    stats.GroupsFailed,
			GroupsDelivered: stats.GroupsDelivered,
		},
		System: models.SystemMetrics{
			MemoryUsage: float64(m.Alloc) / 1024 / 1024, // MB
			Goroutines:  runtime.NumGoroutine(),
		},
		Timestamp: time.Now(),
	}

	// fetch failures are not timed
	if completed := stats.Invocations - stats.FetchErrors; completed > 0 {
		response.Invocations.AvgDuration = stats.TotalDuration.Milliseconds() / completed
	}
	if !stats.LastRun.IsZero() {
		response.Invocations.LastRun = stats.LastRun.UTC().Format(time.RFC3339)
	}

	if h.cache != nil {
		cacheStats, err := h.cache.GetStats(c.Request.Context())
		if err != nil {
			h.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Warn("Failed to get cache statistics")
		} else {
			response.Cache = cacheMetrics(cacheStats)
		}
	}

	c.JSON(http.StatusOK, response)
}

func cacheMetrics(stats map[string]interface{}) models.CacheMetrics {
	var metrics models.CacheMetrics

	if hits, ok := stats["hits"].(int64); ok {
		metrics.Hits = hits
	}
	if misses, ok := stats["misses"].(int64); ok {
		metrics.Misses = misses
	}
	metrics.HitRate = percent(metrics.Hits, metrics.Hits+metrics.Misses)

	if memMap, ok := stats["memory"].(map[string]interface{}); ok {
		if size, ok := memMap["size"].(int); ok {
			metrics.Size = int64(size)
		}
	}
	if redisMap, ok := stats["redis"].(map[string]interface{}); ok {
		if keys, ok := redisMap["keys"].(int64); ok {
			metrics.Size += keys
		}
	}

	return metrics
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
