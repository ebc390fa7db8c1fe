package services

import (
	"context"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/models"
)

// FeedFetcherInterface defines the interface for the raw record source
type FeedFetcherInterface interface {
	// Fetch retrieves and decodes the raw tender records. Failures are
	// returned as *ingest.FetchError.
	Fetch(ctx context.Context) ([]any, error)

	// Health returns fetcher health status
	Health() map[string]interface{}
}

// TenderServiceInterface defines the interface for the ingestion service
type TenderServiceInterface interface {
	// Ingest fetches the feed, normalizes it and delivers it to a sink
	Ingest(ctx context.Context, options IngestOptions) (*models.IngestResponse, error)

	// Normalize runs caller supplied records through the pipeline and delivers them
	Normalize(ctx context.Context, records []any, options IngestOptions) (*models.IngestResponse, error)

	// GetStats returns counters accumulated over all invocations
	GetStats() Stats

	// Health returns service health status
	Health() map[string]interface{}
}

// CacheServiceInterface defines the interface for cache service
type CacheServiceInterface interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value string) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all cache entries owned by the service
	Clear(ctx context.Context) error

	// GetStats returns cache statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Health returns cache service health status
	Health() map[string]interface{}
}

// SinkProviderInterface builds delivery sinks by name
type SinkProviderInterface interface {
	// Sink returns a fresh sink for one invocation
	Sink(name string) (ingest.DeliverySink, error)

	// Names lists the sinks that can be built
	Names() []string

	// Close releases transport resources
	Close() error
}
