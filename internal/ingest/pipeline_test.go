package ingest

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

func TestPipeline_SkipsBadRecords(t *testing.T) {
	collector := &Collector{}
	p := NewPipeline(NewNormalizer(NormalizerConfig{}, nil), collector)

	result := p.Process([]any{
		map[string]any{"TENDER_ID": "1", "HEADER_DESC": "first"},
		map[string]any{"HEADER_DESC": "no id"},
		"garbage",
		map[string]any{"TENDER_ID": "4", "HEADER_DESC": "fourth", "CLOSING_DATE": "bad"},
	})

	require.Len(t, result.Accepted, 2)
	assert.Equal(t, "1", result.Accepted[0].TenderNumber)
	assert.Equal(t, "4", result.Accepted[1].TenderNumber)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 4, result.Total())

	var validation, fieldParse int
	for _, d := range result.Diagnostics {
		switch d.Kind {
		case models.DiagnosticValidation:
			validation++
			assert.Equal(t, UnknownTenderID, d.ID)
		case models.DiagnosticFieldParse:
			fieldParse++
		}
	}
	assert.Equal(t, 2, validation)
	// record 1 has no dates, record 4 has a bad closing date and no published date
	assert.Equal(t, 4, fieldParse)

	assert.Equal(t, result.Diagnostics, collector.Diagnostics())
}

func TestPipeline_Empty(t *testing.T) {
	p := NewPipeline(NewNormalizer(NormalizerConfig{}, nil), nil)

	result := p.Process(nil)
	assert.Empty(t, result.Accepted)
	assert.NotNil(t, result.Accepted)
	assert.Zero(t, result.Skipped)
	assert.NotNil(t, result.Diagnostics)
}

func TestPipeline_CountsAndOrder(t *testing.T) {
	p := NewPipeline(NewNormalizer(NormalizerConfig{}, nil), nil)
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 20; run++ {
		n := rng.Intn(60)
		records := make([]any, n)
		var want []string
		for i := range records {
			switch rng.Intn(4) {
			case 0:
				records[i] = map[string]any{"HEADER_DESC": "missing"}
			case 1:
				records[i] = []any{i}
			default:
				id := fmt.Sprintf("T%03d", i)
				records[i] = map[string]any{"TENDER_ID": id, "PUBLISHEDDATE": "2025-01-01"}
				want = append(want, id)
			}
		}

		result := p.Process(records)
		assert.Equal(t, n, len(result.Accepted)+result.Skipped)

		got := make([]string, 0, len(result.Accepted))
		for _, tender := range result.Accepted {
			got = append(got, tender.TenderNumber)
		}
		assert.Equal(t, len(want), len(got))
		for i := range want {
			assert.Equal(t, want[i], got[i])
		}
	}
}

func TestPipeline_RecoversFromPanic(t *testing.T) {
	p := NewPipeline(NewNormalizer(NormalizerConfig{}, nil), nil)

	panicking := 0
	emitPanics := func(models.Diagnostic) {
		panicking++
		panic("sink exploded")
	}

	tender, err := p.normalizeOne(map[string]any{"TENDER_ID": "9"}, emitPanics)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecordPanic)
	assert.Empty(t, tender.TenderNumber)
	assert.Equal(t, 1, panicking)

	id, reason := describeSkip(map[string]any{"TENDER_ID": "9"}, err)
	assert.Equal(t, "9", id)
	assert.Contains(t, reason, "sink exploded")
}

type panickingSink struct{}

func (panickingSink) Emit(d models.Diagnostic) {
	if d.Kind == models.DiagnosticFieldParse {
		panic("diagnostics unavailable")
	}
}

func TestPipeline_PanicCountsAsSkip(t *testing.T) {
	p := NewPipeline(NewNormalizer(NormalizerConfig{}, nil), panickingSink{})

	result := p.Process([]any{
		map[string]any{"TENDER_ID": "1", "PUBLISHEDDATE": "2025-01-01", "CLOSING_DATE": "2025-02-01"},
		map[string]any{"TENDER_ID": "2", "CLOSING_DATE": "bad"},
	})

	require.Len(t, result.Accepted, 1)
	assert.Equal(t, "1", result.Accepted[0].TenderNumber)
	assert.Equal(t, 1, result.Skipped)
}
