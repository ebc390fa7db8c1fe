package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

// Raw feed keys
const (
	KeyTenderID       = "TENDER_ID"
	KeyHeader         = "HEADER_DESC"
	KeyScope          = "SCOPE_DETAILS"
	KeyPublishedDate  = "PUBLISHEDDATE"
	KeyClosingDate    = "CLOSING_DATE"
	KeyOfficeLocation = "OFFICE_LOCATION"
	KeyEmail          = "EMAIL"
	KeyAddress        = "ADDRESS"
	KeyProvince       = "Province"
	KeyAudience       = "Audience"
)

// Normalizer defaults
const (
	DefaultSource      = "Eskom"
	DefaultDocName     = "Eskom Tender Bulletin"
	DefaultURLTemplate = "https://tenderbulletin.eskom.co.za/webapi/api/Lookup/GetTender?TENDER_ID={tenderId}"
	TenderIDToken      = "{tenderId}"
	UnknownTenderID    = "Unknown"
)

// dateLayouts accepts the ISO-8601 forms the feed produces. Fractional
// seconds are accepted by the parser without being listed.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// NormalizerConfig holds the normalizer settings
type NormalizerConfig struct {
	Source      string
	DocName     string
	URLTemplate string
	Rules       FieldRules
}

// Normalizer converts raw feed records into tenders
type Normalizer struct {
	config      NormalizerConfig
	diagnostics DiagnosticSink
}

// NewNormalizer creates a normalizer. Empty config values fall back to the
// Eskom defaults and a nil sink discards diagnostics.
func NewNormalizer(cfg NormalizerConfig, diagnostics DiagnosticSink) *Normalizer {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.DocName == "" {
		cfg.DocName = DefaultDocName
	}
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.Rules == nil {
		cfg.Rules = FieldRules{}
	}

	return &Normalizer{
		config:      cfg,
		diagnostics: orDiscard(diagnostics),
	}
}

// Normalize converts one raw record into a Tender. It fails with a
// *ValidationError only when the record is not an object or has no usable
// TENDER_ID. Bad dates are reported to the diagnostic sink.
func (n *Normalizer) Normalize(raw any) (models.Tender, error) {
	return n.normalize(raw, n.diagnostics.Emit)
}

// DetailURL returns the canonical detail URL of a tender
func (n *Normalizer) DetailURL(tenderID string) string {
	return strings.ReplaceAll(n.config.URLTemplate, TenderIDToken, tenderID)
}

func (n *Normalizer) normalize(raw any, emit func(models.Diagnostic)) (models.Tender, error) {
	record, ok := asRecord(raw)
	if !ok {
		return models.Tender{}, &ValidationError{ID: UnknownTenderID, Err: ErrMalformedRecord}
	}

	id, err := tenderID(record)
	if err != nil {
		label := UnknownTenderID
		if id != "" {
			label = id
		}
		return models.Tender{}, &ValidationError{ID: label, Err: err}
	}

	published := n.parseDate(record, id, KeyPublishedDate, emit)
	closing := n.parseDate(record, id, KeyClosingDate, emit)

	return models.Tender{
		TenderNumber:  n.config.Rules.apply(FieldTenderNumber, id),
		Title:         n.text(record, KeyHeader, FieldTitle),
		Description:   n.text(record, KeyScope, FieldDescription),
		Source:        n.config.Source,
		PublishedDate: published,
		ClosingDate:   closing,
		SupportingDocs: []models.SupportingDoc{
			{Name: n.config.DocName, URL: n.DetailURL(id)},
		},
		Tags:           []string{},
		OfficeLocation: n.text(record, KeyOfficeLocation, FieldOfficeLocation),
		Email:          n.text(record, KeyEmail, FieldEmail),
		Address:        n.text(record, KeyAddress, FieldAddress),
		Province:       n.text(record, KeyProvince, FieldProvince),
		Audience:       n.text(record, KeyAudience, FieldAudience),
	}, nil
}

func (n *Normalizer) text(record map[string]any, key, field string) string {
	return n.config.Rules.apply(field, scalarString(record[key]))
}

func (n *Normalizer) parseDate(record map[string]any, id, key string, emit func(models.Diagnostic)) *time.Time {
	value, present := record[key]
	ts, err := parseTimestamp(value, present)
	if err != nil {
		warning := &FieldParseWarning{ID: id, Field: key, Value: value, Err: err}
		emit(models.Diagnostic{
			Kind:   models.DiagnosticFieldParse,
			ID:     id,
			Field:  key,
			Reason: warning.Error(),
		})
		return nil
	}
	return ts
}

func parseTimestamp(value any, present bool) (*time.Time, error) {
	if !present || value == nil {
		return nil, ErrMissingDate
	}
	s, ok := value.(string)
	if !ok {
		return nil, ErrDateType
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &ts, nil
		}
	}
	return nil, ErrInvalidDate
}

// TenderID returns the best-effort identifier of a raw record, or "Unknown"
func TenderID(raw any) string {
	record, ok := asRecord(raw)
	if !ok {
		return UnknownTenderID
	}
	id, err := tenderID(record)
	if err != nil || id == "" {
		return UnknownTenderID
	}
	return id
}

func tenderID(record map[string]any) (string, error) {
	value, ok := record[KeyTenderID]
	if !ok || value == nil {
		return "", ErrMissingTenderID
	}
	switch value.(type) {
	case map[string]any, []any, models.RawRecord:
		return "", ErrInvalidTenderID
	}

	id := cleanText(scalarString(value))
	if id == "" {
		return "", ErrMissingTenderID
	}
	return id, nil
}

func asRecord(raw any) (map[string]any, bool) {
	switch r := raw.(type) {
	case map[string]any:
		return r, r != nil
	case models.RawRecord:
		return r, r != nil
	}
	return nil, false
}

// scalarString renders a JSON scalar as text. Null and composite values
// become the empty string.
func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any, models.RawRecord:
		return ""
	}
	return fmt.Sprint(value)
}
