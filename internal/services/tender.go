package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/logger"
	"github.com/tenderbridge/tender-ingest/internal/models"
	"github.com/tenderbridge/tender-ingest/internal/services/sinks"
)

// ErrInvalidGroupSize is returned for a negative group size override
var ErrInvalidGroupSize = errors.New("group size must be positive")

// IngestOptions overrides the configured sink and group size for one run
type IngestOptions struct {
	Sink      string
	GroupSize int
}

// Stats holds counters accumulated over all invocations
type Stats struct {
	Invocations     int64
	FetchErrors     int64
	Fetched         int64
	Accepted        int64
	Skipped         int64
	Delivered       int64
	FieldWarnings   int64
	GroupsDelivered int64
	GroupsFailed    int64
	TotalDuration   time.Duration
	LastRun         time.Time
	LastSink        string
}

// TenderService runs the fetch, normalize and deliver flow
type TenderService struct {
	config     config.IngestConfig
	fetcher    FeedFetcherInterface
	sinks      SinkProviderInterface
	normalizer *ingest.Normalizer
	logger     *logrus.Logger

	mu    sync.RWMutex
	stats Stats
}

// NewTenderService creates a new tender service
func NewTenderService(cfg config.IngestConfig, feed config.FeedConfig, fetcher FeedFetcherInterface, sinkProvider SinkProviderInterface, log *logrus.Logger) *TenderService {
	normalizer := ingest.NewNormalizer(ingest.NormalizerConfig{
		Source:      feed.Source,
		DocName:     feed.DocName,
		URLTemplate: feed.APITemplate,
		Rules:       cfg.FieldRules,
	}, ingest.NewLogDiagnostics(log))

	return &TenderService{
		config:     cfg,
		fetcher:    fetcher,
		sinks:      sinkProvider,
		normalizer: normalizer,
		logger:     log,
	}
}

// Ingest fetches the feed and delivers it. A fetch failure is returned as
// *ingest.FetchError before any record is normalized.
func (s *TenderService) Ingest(ctx context.Context, options IngestOptions) (*models.IngestResponse, error) {
	start := time.Now()
	invocationID := uuid.New().String()
	entry := logger.WithInvocation(s.logger, invocationID, s.sinkName(options))

	entry.Info("Starting tender ingestion")

	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.stats.Invocations++
		s.stats.FetchErrors++
		s.stats.LastRun = start
		s.mu.Unlock()

		entry.WithError(err).Error("Tender ingestion aborted")
		return nil, err
	}

	return s.run(ctx, invocationID, entry, records, options, start)
}

// Normalize runs caller supplied records through the pipeline
func (s *TenderService) Normalize(ctx context.Context, records []any, options IngestOptions) (*models.IngestResponse, error) {
	start := time.Now()
	invocationID := uuid.New().String()
	entry := logger.WithInvocation(s.logger, invocationID, s.sinkName(options))

	entry.WithField("records", len(records)).Info("Normalizing supplied records")
	return s.run(ctx, invocationID, entry, records, options, start)
}

func (s *TenderService) run(ctx context.Context, invocationID string, entry *logrus.Entry, records []any, options IngestOptions, start time.Time) (*models.IngestResponse, error) {
	groupSize, err := s.groupSize(options)
	if err != nil {
		return nil, err
	}

	sinkName := s.sinkName(options)
	sink, err := s.sinks.Sink(sinkName)
	if err != nil {
		return nil, err
	}

	diagnostics := ingest.NewLogDiagnostics(s.logger).With(logrus.Fields{
		"invocation_id": invocationID,
		"sink":          sinkName,
	})

	result := ingest.NewPipeline(s.normalizer, diagnostics).Process(records)
	entry.WithFields(logrus.Fields{
		"accepted": len(result.Accepted),
		"skipped":  result.Skipped,
	}).Info("Processed tender records")
	if result.Skipped > 0 {
		entry.WithField("skipped", result.Skipped).Warn("Skipped tenders due to errors")
	}

	dispatcher := ingest.NewDispatcher(diagnostics,
		ingest.WithGroupSize(groupSize),
		ingest.WithConcurrency(s.config.DispatchConcurrency),
	)
	report := dispatcher.Dispatch(ctx, result.Accepted, sink)

	response := &models.IngestResponse{
		InvocationID: invocationID,
		Sink:         sinkName,
		Total:        len(records),
		Accepted:     len(result.Accepted),
		Skipped:      result.Skipped,
		Delivered:    report.Delivered,
		Groups:       report.Groups,
		Diagnostics:  append(append([]models.Diagnostic{}, result.Diagnostics...), report.Diagnostics...),
		Timestamp:    time.Now(),
	}

	if inline, ok := sink.(*sinks.InlineSink); ok {
		body, err := inline.Body()
		if err != nil {
			return nil, fmt.Errorf("encode tenders: %w", err)
		}
		response.Tenders = body
	}

	duration := time.Since(start)
	response.DurationMs = duration.Milliseconds()
	s.record(response, duration, start)

	entry.WithFields(logrus.Fields{
		"total":     response.Total,
		"accepted":  response.Accepted,
		"skipped":   response.Skipped,
		"delivered": response.Delivered,
		"groups":    len(response.Groups),
		"duration":  duration,
	}).Info("Tender ingestion completed")

	return response, nil
}

func (s *TenderService) sinkName(options IngestOptions) string {
	if options.Sink != "" {
		return options.Sink
	}
	return s.config.Sink
}

func (s *TenderService) groupSize(options IngestOptions) (int, error) {
	switch {
	case options.GroupSize < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidGroupSize, options.GroupSize)
	case options.GroupSize > 0:
		return options.GroupSize, nil
	}
	return s.config.GroupSize, nil
}

func (s *TenderService) record(response *models.IngestResponse, duration time.Duration, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Invocations++
	s.stats.Fetched += int64(response.Total)
	s.stats.Accepted += int64(response.Accepted)
	s.stats.Skipped += int64(response.Skipped)
	s.stats.Delivered += int64(response.Delivered)
	for _, d := range response.Diagnostics {
		if d.Kind == models.DiagnosticFieldParse {
			s.stats.FieldWarnings++
		}
	}
	for _, g := range response.Groups {
		if g.Error == "" {
			s.stats.GroupsDelivered++
		} else {
			s.stats.GroupsFailed++
		}
	}
	s.stats.TotalDuration += duration
	s.stats.LastRun = start
	s.stats.LastSink = response.Sink
}

// GetStats returns a snapshot of the counters
func (s *TenderService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Health returns service health status
func (s *TenderService) Health() map[string]interface{} {
	stats := s.GetStats()

	health := map[string]interface{}{
		"status":      "healthy",
		"sink":        s.config.Sink,
		"sinks":       s.sinks.Names(),
		"invocations": stats.Invocations,
	}
	if stats.Invocations > 0 && stats.FetchErrors == stats.Invocations {
		health["status"] = "degraded"
	}
	return health
}
