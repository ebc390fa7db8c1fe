package models

import (
	"time"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Feed unavailable"`
	Message   string    `json:"message" example:"failed to fetch data from source API"`
	Code      string    `json:"code,omitempty" example:"FETCH_FAILED"`
	Timestamp time.Time `json:"timestamp" example:"2025-10-01T09:00:00Z"`
	Path      string    `json:"path" example:"/api/v1/tenders"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp time.Time              `json:"timestamp" example:"2025-10-01T09:00:00Z"`
	Version   string                 `json:"version" example:"1.0.0"`
	Services  map[string]ServiceInfo `json:"services"`
	Uptime    string                 `json:"uptime" example:"2h30m45s"`
}

// ServiceInfo represents individual service health
type ServiceInfo struct {
	Status    string    `json:"status" example:"healthy"`
	LastCheck time.Time `json:"last_check" example:"2025-10-01T09:00:00Z"`
	Error     string    `json:"error,omitempty"`
}

// MetricsResponse represents metrics response
type MetricsResponse struct {
	Invocations InvocationMetrics `json:"invocations"`
	Records     RecordMetrics     `json:"records"`
	Cache       CacheMetrics      `json:"cache"`
	System      SystemMetrics     `json:"system"`
	Timestamp   time.Time         `json:"timestamp" example:"2025-10-01T09:00:00Z"`
}

// InvocationMetrics counts ingestion runs
type InvocationMetrics struct {
	Total       int64   `json:"total" example:"40"`
	FetchErrors int64   `json:"fetch_errors" example:"1"`
	SuccessRate float64 `json:"success_rate" example:"97.5"`
	AvgDuration int64   `json:"avg_duration_ms" example:"1800"`
	LastRun     string  `json:"last_run,omitempty" example:"2025-10-01T09:00:00Z"`
	LastSink    string  `json:"last_sink,omitempty" example:"inline"`
}

// RecordMetrics counts records across all runs
type RecordMetrics struct {
	Fetched         int64 `json:"fetched" example:"1000"`
	Accepted        int64 `json:"accepted" example:"990"`
	Skipped         int64 `json:"skipped" example:"10"`
	Delivered       int64 `json:"delivered" example:"980"`
	FieldWarnings   int64 `json:"field_warnings" example:"25"`
	GroupsFailed    int64 `json:"groups_failed" example:"1"`
	GroupsDelivered int64 `json:"groups_delivered" example:"99"`
}

// CacheMetrics represents cache metrics
type CacheMetrics struct {
	HitRate float64 `json:"hit_rate" example:"85.5"`
	Hits    int64   `json:"hits" example:"34"`
	Misses  int64   `json:"misses" example:"6"`
	Size    int64   `json:"size" example:"1"`
}

// SystemMetrics represents system metrics
type SystemMetrics struct {
	MemoryUsage float64 `json:"memory_usage" example:"512.5"`
	Goroutines  int     `json:"goroutines" example:"12"`
}
