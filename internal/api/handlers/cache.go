package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services"
)

// CacheHandler handles feed cache management requests
type CacheHandler struct {
	cacheService services.CacheServiceInterface
	logger       *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Get feed response cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	requestID := c.GetString("request_id")

	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to get cache statistics")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "Failed to retrieve cache statistics",
			Code:      "CACHE_STATS_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"timestamp": time.Now(),
		"health":    h.cacheService.Health(),
	})
}

// Clear drops cached feed responses so the next run hits the source
// @Summary Clear feed cache
// @Description Drop cached feed responses so the next ingestion fetches fresh data
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	requestID := c.GetString("request_id")

	h.logger.WithField("request_id", requestID).Info("Clearing feed cache")

	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to clear cache")

		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "Failed to clear cache",
			Code:      "CACHE_CLEAR_ERROR",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Cache cleared successfully",
		"timestamp": time.Now(),
		"success":   true,
	})
}
