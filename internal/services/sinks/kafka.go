package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
)

// QueueName is the name of the Kafka sink
const QueueName = "queue"

// Message header keys
const (
	HeaderMessageID = "message-id"
	HeaderDedupID   = "dedup-id"
	HeaderSource    = "source"
)

var (
	_ ingest.DeliverySink = (*KafkaSink)(nil)
	_ ingest.GroupLimiter = (*KafkaSink)(nil)
)

// MessageWriter is the part of *kafka.Writer the sink uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaConfig holds the Kafka sink settings
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	GroupKey     string
	GroupSize    int
	WriteTimeout time.Duration
	RequiredAcks int
}

// NewKafkaWriter creates a writer that hashes on the message key, so every
// tender sharing the grouping key lands on one partition in order
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Balancer:     &kafka.Hash{},
		BatchSize:    max(cfg.GroupSize, 1),
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// KafkaSink publishes one message per tender. A group is submitted with a
// single WriteMessages call.
type KafkaSink struct {
	writer    MessageWriter
	groupKey  string
	groupSize int
}

// NewKafkaSink creates a Kafka sink over writer
func NewKafkaSink(writer MessageWriter, groupKey string, groupSize int) *KafkaSink {
	if groupSize <= 0 {
		groupSize = ingest.DefaultGroupSize
	}
	return &KafkaSink{
		writer:    writer,
		groupKey:  groupKey,
		groupSize: groupSize,
	}
}

// Name implements ingest.DeliverySink
func (s *KafkaSink) Name() string {
	return QueueName
}

// GroupLimit implements ingest.GroupLimiter
func (s *KafkaSink) GroupLimit() int {
	return s.groupSize
}

// Deliver publishes the group and reports how many messages the broker accepted
func (s *KafkaSink) Deliver(ctx context.Context, group ingest.Group) (ingest.Outcome, error) {
	messages, err := s.messages(group)
	if err != nil {
		return ingest.Outcome{}, err
	}

	err = s.writer.WriteMessages(ctx, messages...)
	if err == nil {
		return ingest.Outcome{Succeeded: len(messages)}, nil
	}

	var writeErrors kafka.WriteErrors
	if errors.As(err, &writeErrors) {
		accepted := 0
		for _, e := range writeErrors {
			if e == nil {
				accepted++
			}
		}
		// partial acceptance is reported through the count
		return ingest.Outcome{Succeeded: accepted}, nil
	}

	return ingest.Outcome{}, fmt.Errorf("publish to kafka: %w", err)
}

func (s *KafkaSink) messages(group ingest.Group) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(group.Tenders))
	now := time.Now()

	for i, tender := range group.Tenders {
		body, err := json.Marshal(tender)
		if err != nil {
			return nil, fmt.Errorf("encode tender %s: %w", tender.TenderNumber, err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(s.groupKey),
			Value: body,
			Time:  now,
			Headers: []kafka.Header{
				{Key: HeaderMessageID, Value: []byte(strconv.Itoa(i))},
				{Key: HeaderDedupID, Value: []byte(tender.TenderNumber)},
				{Key: HeaderSource, Value: []byte(tender.Source)},
			},
		})
	}
	return messages, nil
}
