package services

import (
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/services/sinks"
)

// Sink errors
var (
	ErrUnknownSink     = errors.New("unknown delivery sink")
	ErrSinkUnavailable = errors.New("delivery sink is not configured")
)

// KafkaWriter is a closable Kafka message writer
type KafkaWriter interface {
	sinks.MessageWriter
	io.Closer
}

// SinkProvider builds delivery sinks from configuration
type SinkProvider struct {
	config config.IngestConfig
	kafka  KafkaWriter
	redis  *redis.Client
}

// NewSinkProvider creates a sink provider. Transports left nil make the
// matching sink unavailable.
func NewSinkProvider(cfg config.IngestConfig, kafka KafkaWriter, redisClient *redis.Client) *SinkProvider {
	return &SinkProvider{
		config: cfg,
		kafka:  kafka,
		redis:  redisClient,
	}
}

// Sink returns a sink for one invocation
func (p *SinkProvider) Sink(name string) (ingest.DeliverySink, error) {
	switch name {
	case sinks.InlineName:
		return sinks.NewInlineSink(), nil
	case sinks.QueueName:
		if p.kafka == nil {
			return nil, fmt.Errorf("%w: %s", ErrSinkUnavailable, name)
		}
		return sinks.NewKafkaSink(p.kafka, p.config.QueueGroupKey, p.config.GroupSize), nil
	case sinks.StreamName:
		if p.redis == nil || p.config.QueueTarget == "" {
			return nil, fmt.Errorf("%w: %s", ErrSinkUnavailable, name)
		}
		return sinks.NewStreamSink(p.redis, p.config.QueueTarget, p.config.QueueGroupKey, p.config.GroupSize), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSink, name)
}

// Names lists the sinks that can be built
func (p *SinkProvider) Names() []string {
	names := []string{sinks.InlineName}
	if p.kafka != nil {
		names = append(names, sinks.QueueName)
	}
	if p.redis != nil && p.config.QueueTarget != "" {
		names = append(names, sinks.StreamName)
	}
	return names
}

// Close closes the Kafka writer
func (p *SinkProvider) Close() error {
	if p.kafka != nil {
		return p.kafka.Close()
	}
	return nil
}
