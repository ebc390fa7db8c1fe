package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthChecker reports per-service health maps keyed by service name
type HealthChecker interface {
	Health() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	services  HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(services HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		services:  services,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.services.Health()

	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo, len(servicesHealth)),
		Uptime:    time.Since(h.startTime).String(),
	}

	for name, serviceHealth := range servicesHealth {
		info := serviceInfo(serviceHealth)
		response.Services[name] = info

		switch {
		case info.Status == "unhealthy":
			response.Status = "unhealthy"
		case info.Status == "degraded" && response.Status == "healthy":
			response.Status = "degraded"
		}
	}

	httpStatus := http.StatusOK
	if response.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the API is ready to serve ingestion requests
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.services.Health()

	ready := true
	issues := make([]string, 0)

	// the cache degrades to memory, so only the ingest path gates readiness
	for _, name := range []string{"ingest", "feed"} {
		if info := serviceInfo(servicesHealth[name]); info.Status == "unhealthy" {
			ready = false
			issues = append(issues, name+" service is unhealthy")
		}
	}

	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}

	if len(issues) > 0 {
		response["issues"] = issues
	}

	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).String(),
		"version":   Version,
	})
}

func serviceInfo(health interface{}) models.ServiceInfo {
	info := models.ServiceInfo{LastCheck: time.Now()}

	healthMap, ok := health.(map[string]interface{})
	if !ok {
		return info
	}
	if status, ok := healthMap["status"].(string); ok {
		info.Status = status
	}
	if errMsg, ok := healthMap["error"].(string); ok {
		info.Error = errMsg
	}
	return info
}
