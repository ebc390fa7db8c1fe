package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/tenderbridge/tender-ingest/internal/ingest"
	"github.com/tenderbridge/tender-ingest/internal/models"
)

// StreamName is the name of the Redis stream sink
const StreamName = "stream"

var (
	_ ingest.DeliverySink = (*StreamSink)(nil)
	_ ingest.GroupLimiter = (*StreamSink)(nil)
)

// Pipeliner is the part of a Redis client the stream sink uses
type Pipeliner interface {
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// StreamSink appends one stream entry per tender. A group is sent as a single
// pipeline.
type StreamSink struct {
	client    Pipeliner
	stream    string
	groupKey  string
	groupSize int
	maxLen    int64
}

// NewStreamSink creates a stream sink writing to stream
func NewStreamSink(client Pipeliner, stream, groupKey string, groupSize int) *StreamSink {
	if groupSize <= 0 {
		groupSize = ingest.DefaultGroupSize
	}
	return &StreamSink{
		client:    client,
		stream:    stream,
		groupKey:  groupKey,
		groupSize: groupSize,
		maxLen:    10000,
	}
}

// Name implements ingest.DeliverySink
func (s *StreamSink) Name() string {
	return StreamName
}

// GroupLimit implements ingest.GroupLimiter
func (s *StreamSink) GroupLimit() int {
	return s.groupSize
}

// Deliver appends the group and counts the entries Redis accepted
func (s *StreamSink) Deliver(ctx context.Context, group ingest.Group) (ingest.Outcome, error) {
	entries := make([]map[string]interface{}, 0, len(group.Tenders))
	for i, tender := range group.Tenders {
		values, err := s.values(i, tender)
		if err != nil {
			return ingest.Outcome{}, err
		}
		entries = append(entries, values)
	}

	cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, values := range entries {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: s.stream,
				MaxLen: s.maxLen,
				Approx: true,
				Values: values,
			})
		}
		return nil
	})

	accepted := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			accepted++
		}
	}
	if accepted == 0 && err != nil {
		return ingest.Outcome{}, fmt.Errorf("append to stream %s: %w", s.stream, err)
	}

	return ingest.Outcome{Succeeded: accepted}, nil
}

func (s *StreamSink) values(position int, tender models.Tender) (map[string]interface{}, error) {
	body, err := json.Marshal(tender)
	if err != nil {
		return nil, fmt.Errorf("encode tender %s: %w", tender.TenderNumber, err)
	}

	return map[string]interface{}{
		HeaderMessageID: strconv.Itoa(position),
		HeaderDedupID:   tender.TenderNumber,
		"group":         s.groupKey,
		"body":          string(body),
	}, nil
}
