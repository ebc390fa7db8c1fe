package ingest

import (
	"errors"
	"fmt"
)

// Record level errors
var (
	ErrMissingTenderID = errors.New("missing TENDER_ID")
	ErrInvalidTenderID = errors.New("TENDER_ID is not a scalar value")
	ErrMalformedRecord = errors.New("record is not a JSON object")
	ErrRecordPanic     = errors.New("normalization panicked")
)

// Field level errors, recovered as warnings
var (
	ErrMissingDate = errors.New("date field missing")
	ErrDateType    = errors.New("date field is not a string")
	ErrInvalidDate = errors.New("date field is not ISO-8601")
)

// Delivery errors
var (
	ErrDeliveryPanic   = errors.New("sink panicked")
	ErrPartialDelivery = errors.New("sink accepted only part of the group")
)

// Fetch errors
var (
	ErrFetchFailed = errors.New("failed to fetch data from source API")
	ErrInvalidFeed = errors.New("invalid JSON response from source API")
)

// ValidationError reports a raw record that could not be normalized
type ValidationError struct {
	ID  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tender %s: %v", e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FieldParseWarning reports a field that was degraded to its zero value
type FieldParseWarning struct {
	ID    string
	Field string
	Value any
	Err   error
}

func (w *FieldParseWarning) Error() string {
	return fmt.Sprintf("tender %s has invalid %s: %v (%v)", w.ID, w.Field, w.Value, w.Err)
}

func (w *FieldParseWarning) Unwrap() error {
	return w.Err
}

// DeliveryError reports a group that failed to reach its sink
type DeliveryError struct {
	Group int
	Sink  string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("group %d to %s: %v", e.Group, e.Sink, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// FetchError means the raw record sequence could not be retrieved or decoded.
// It is fatal to the whole invocation.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
