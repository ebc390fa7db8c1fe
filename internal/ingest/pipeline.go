package ingest

import (
	"errors"
	"fmt"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

// ProcessResult is the outcome of running the pipeline over one feed
type ProcessResult struct {
	Accepted    []models.Tender
	Skipped     int
	Diagnostics []models.Diagnostic
}

// Total returns the number of records processed
func (r ProcessResult) Total() int {
	return len(r.Accepted) + r.Skipped
}

// Pipeline runs the normalizer over a sequence of raw records
type Pipeline struct {
	normalizer  *Normalizer
	diagnostics DiagnosticSink
}

// NewPipeline creates a pipeline. Diagnostics are returned in the result and
// also forwarded to the given sink.
func NewPipeline(normalizer *Normalizer, diagnostics DiagnosticSink) *Pipeline {
	return &Pipeline{
		normalizer:  normalizer,
		diagnostics: orDiscard(diagnostics),
	}
}

// Process normalizes every record in order. A record that fails is counted as
// skipped and never stops the run.
func (p *Pipeline) Process(records []any) ProcessResult {
	result := ProcessResult{
		Accepted:    make([]models.Tender, 0, len(records)),
		Diagnostics: []models.Diagnostic{},
	}

	emit := func(d models.Diagnostic) {
		result.Diagnostics = append(result.Diagnostics, d)
		p.diagnostics.Emit(d)
	}

	for _, raw := range records {
		tender, err := p.normalizeOne(raw, emit)
		if err != nil {
			result.Skipped++
			id, reason := describeSkip(raw, err)
			emit(models.Diagnostic{
				Kind:   models.DiagnosticValidation,
				ID:     id,
				Reason: reason,
			})
			continue
		}
		result.Accepted = append(result.Accepted, tender)
	}

	return result
}

func (p *Pipeline) normalizeOne(raw any, emit func(models.Diagnostic)) (tender models.Tender, err error) {
	defer func() {
		if r := recover(); r != nil {
			tender = models.Tender{}
			err = &ValidationError{
				ID:  TenderID(raw),
				Err: fmt.Errorf("%w: %v", ErrRecordPanic, r),
			}
		}
	}()

	return p.normalizer.normalize(raw, emit)
}

func describeSkip(raw any, err error) (id, reason string) {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.ID != "" {
		return verr.ID, verr.Err.Error()
	}
	return TenderID(raw), err.Error()
}
