package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPipeliner struct {
	err error
}

func (p failingPipeliner) Pipelined(context.Context, func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return nil, p.err
}

func TestStreamSink_Values(t *testing.T) {
	sink := NewStreamSink(failingPipeliner{}, "tenders", "eskom-tenders", 0)
	g := group(0, 2)

	values, err := sink.values(1, g.Tenders[1])
	require.NoError(t, err)

	assert.Equal(t, "1", values[HeaderMessageID])
	assert.Equal(t, "T0-1", values[HeaderDedupID])
	assert.Equal(t, "eskom-tenders", values["group"])

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(values["body"].(string)), &body))
	assert.Equal(t, "T0-1", body["tenderNumber"])
	assert.Equal(t, 10, sink.GroupLimit())
	assert.Equal(t, StreamName, sink.Name())
}

func TestStreamSink_TransportError(t *testing.T) {
	sink := NewStreamSink(failingPipeliner{err: errors.New("connection refused")}, "tenders", "k", 10)

	outcome, err := sink.Deliver(context.Background(), group(0, 3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append to stream tenders")
	assert.Zero(t, outcome.Succeeded)
}

func TestStreamSink_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	outcome, err := NewStreamSink(client, "tenders", "k", 10).Deliver(context.Background(), group(0, 2))
	assert.Error(t, err)
	assert.Zero(t, outcome.Succeeded)
}
