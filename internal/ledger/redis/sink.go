// Package redis publishes usage events to a Redis stream so external
// metrics pipelines can consume them without polling the process.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/wayfinder/internal/ledger"
)

const defaultMaxLen = 10000

// StreamSink appends usage events to a capped Redis stream.
type StreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamSink creates a sink writing to the named stream.
func NewStreamSink(client *redis.Client, stream string) (*StreamSink, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if stream == "" {
		return nil, fmt.Errorf("stream name cannot be empty")
	}

	return &StreamSink{
		client: client,
		stream: stream,
		maxLen: defaultMaxLen,
	}, nil
}

// Publish appends one usage event to the stream.
func (s *StreamSink) Publish(ctx context.Context, event ledger.Event) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"backend_id":  event.BackendID,
			"category":    event.Category,
			"tokens_used": strconv.Itoa(event.TokensUsed),
			"cost_usd":    strconv.FormatFloat(event.CostUSD, 'f', -1, 64),
			"success":     strconv.FormatBool(event.Success),
			"recorded_at": event.RecordedAt.Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to append usage event: %w", err)
	}
	return nil
}
