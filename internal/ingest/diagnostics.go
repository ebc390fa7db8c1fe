package ingest

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/models"
)

// DiagnosticSink receives recoverable problems found while ingesting.
// Implementations must be safe for concurrent use.
type DiagnosticSink interface {
	Emit(d models.Diagnostic)
}

// LogDiagnostics writes diagnostics to a logrus logger
type LogDiagnostics struct {
	logger *logrus.Entry
}

// NewLogDiagnostics creates a diagnostic sink backed by logger
func NewLogDiagnostics(logger *logrus.Logger) *LogDiagnostics {
	return &LogDiagnostics{logger: logrus.NewEntry(logger)}
}

// With returns a copy that adds fields to every diagnostic
func (l *LogDiagnostics) With(fields logrus.Fields) *LogDiagnostics {
	return &LogDiagnostics{logger: l.logger.WithFields(fields)}
}

// Emit logs d at warning level, or error level for delivery failures
func (l *LogDiagnostics) Emit(d models.Diagnostic) {
	fields := logrus.Fields{
		"kind":      d.Kind,
		"tender_id": d.ID,
		"reason":    d.Reason,
	}
	if d.Field != "" {
		fields["field"] = d.Field
	}
	if d.Group != nil {
		fields["group"] = *d.Group
	}

	entry := l.logger.WithFields(fields)
	switch d.Kind {
	case models.DiagnosticDelivery:
		entry.Error("Group delivery failed")
	case models.DiagnosticFieldParse:
		entry.Warn("Field degraded to empty value")
	default:
		entry.Warn("Skipping tender due to a validation error")
	}
}

// Collector keeps every diagnostic it receives, in arrival order
type Collector struct {
	mu    sync.Mutex
	items []models.Diagnostic
}

// Emit implements DiagnosticSink
func (c *Collector) Emit(d models.Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of the collected diagnostics
func (c *Collector) Diagnostics() []models.Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

type discard struct{}

func (discard) Emit(models.Diagnostic) {}

func orDiscard(sink DiagnosticSink) DiagnosticSink {
	if sink == nil {
		return discard{}
	}
	return sink
}
