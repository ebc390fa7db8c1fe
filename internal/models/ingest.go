package models

import (
	"encoding/json"
	"time"
)

// Diagnostic describes a recoverable per-item or per-group problem
type Diagnostic struct {
	Kind   string `json:"kind" example:"validation"`
	ID     string `json:"id" example:"123"`
	Field  string `json:"field,omitempty" example:"CLOSING_DATE"`
	Group  *int   `json:"group,omitempty"`
	Reason string `json:"reason" example:"missing TENDER_ID"`
}

// Diagnostic kinds
const (
	DiagnosticValidation = "validation"
	DiagnosticFieldParse = "field_parse"
	DiagnosticDelivery   = "delivery"
)

// GroupOutcome reports what happened to one delivery group
type GroupOutcome struct {
	Index     int    `json:"index" example:"0"`
	Size      int    `json:"size" example:"10"`
	Delivered int    `json:"delivered" example:"10"`
	Error     string `json:"error,omitempty"`
}

// IngestRequest represents a request to normalize caller supplied raw records
type IngestRequest struct {
	Records   []any  `json:"records" binding:"required"`
	GroupSize int    `json:"group_size,omitempty" example:"10"`
	Sink      string `json:"sink,omitempty" example:"inline"`
}

// IngestResponse is the result of one ingestion invocation
type IngestResponse struct {
	InvocationID string          `json:"invocation_id" example:"5f0c6a9e-0d51-4c55-8c38-2f8f4a3a7e11"`
	Sink         string          `json:"sink" example:"inline"`
	Total        int             `json:"total" example:"25"`
	Accepted     int             `json:"accepted" example:"23"`
	Skipped      int             `json:"skipped" example:"2"`
	Delivered    int             `json:"delivered" example:"23"`
	Groups       []GroupOutcome  `json:"groups"`
	Diagnostics  []Diagnostic    `json:"diagnostics"`
	Tenders      json.RawMessage `json:"tenders,omitempty" swaggertype:"array,object"`
	DurationMs   int64           `json:"duration_ms" example:"1200"`
	Timestamp    time.Time       `json:"timestamp" example:"2025-10-01T09:00:00Z"`
}
