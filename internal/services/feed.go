package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/ingest"
)

const maxFeedBytes = 32 << 20

// FeedFetcher retrieves the raw tender list from the feed API
type FeedFetcher struct {
	url     string
	client  *http.Client
	cache   CacheServiceInterface
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu        sync.RWMutex
	lastFetch time.Time
	lastError string
}

// NewFeedFetcher creates a feed fetcher. A nil cache disables response caching.
func NewFeedFetcher(cfg config.FeedConfig, cache CacheServiceInterface, logger *logrus.Logger) *FeedFetcher {
	limit := rate.Inf
	if cfg.RatePerMinute > 0 {
		limit = rate.Limit(float64(cfg.RatePerMinute) / 60.0)
	}

	return &FeedFetcher{
		url:     cfg.URL(),
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Fetch retrieves and decodes the feed. Cached bodies are served while fresh.
func (f *FeedFetcher) Fetch(ctx context.Context) ([]any, error) {
	logger := f.logger.WithField("url", f.url)
	cacheKey := "feed:" + f.url

	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, cacheKey); err == nil {
			records, err := DecodeRecords([]byte(cached))
			if err == nil {
				logger.WithField("records", len(records)).Info("Tender feed served from cache")
				return records, nil
			}
			logger.WithError(err).Warn("Failed to decode cached feed, refetching")
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, f.fail(&ingest.FetchError{URL: f.url, Err: fmt.Errorf("%w: %v", ingest.ErrFetchFailed, err)})
	}

	logger.Info("Fetching tender feed")

	body, err := f.get(ctx)
	if err != nil {
		return nil, f.fail(err)
	}

	records, err := DecodeRecords(body)
	if err != nil {
		logger.WithField("body", truncate(string(body), 256)).Error("Failed to decode JSON from feed response")
		return nil, f.fail(&ingest.FetchError{URL: f.url, Err: fmt.Errorf("%w: %v", ingest.ErrInvalidFeed, err)})
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, cacheKey, string(body)); err != nil {
			logger.WithError(err).Warn("Failed to cache feed response")
		}
	}

	f.mu.Lock()
	f.lastFetch = time.Now()
	f.lastError = ""
	f.mu.Unlock()

	logger.WithField("records", len(records)).Info("Successfully fetched tender feed")
	return records, nil
}

func (f *FeedFetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, &ingest.FetchError{URL: f.url, Err: fmt.Errorf("%w: %v", ingest.ErrFetchFailed, err)}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &ingest.FetchError{URL: f.url, Err: fmt.Errorf("%w: %v", ingest.ErrFetchFailed, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ingest.FetchError{
			URL:        f.url,
			StatusCode: resp.StatusCode,
			Err:        ingest.ErrFetchFailed,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, &ingest.FetchError{URL: f.url, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %v", ingest.ErrFetchFailed, err)}
	}
	return body, nil
}

func (f *FeedFetcher) fail(err error) error {
	f.mu.Lock()
	f.lastError = err.Error()
	f.mu.Unlock()

	f.logger.WithError(err).Error("Failed to fetch data from API")
	return err
}

// Health returns fetcher health status
func (f *FeedFetcher) Health() map[string]interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()

	health := map[string]interface{}{
		"status": "healthy",
		"url":    f.url,
	}
	if !f.lastFetch.IsZero() {
		health["last_fetch"] = f.lastFetch
	}
	if f.lastError != "" {
		health["status"] = "degraded"
		health["error"] = f.lastError
	}
	return health
}

// DecodeRecords decodes a JSON array keeping numbers as json.Number so ids
// are not rounded
func DecodeRecords(body []byte) ([]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	records, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", payload)
	}
	return records, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
