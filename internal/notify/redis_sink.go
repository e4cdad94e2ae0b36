package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink appends intents to a Redis stream with XADD.
type RedisStreamSink struct {
	client streamAdder
	stream string
}

// NewRedisStreamSink creates a sink writing to stream.
func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream}
}

func (s *RedisStreamSink) Publish(ctx context.Context, intent domain.NotificationIntent) error {
	body, err := encode(intent)
	if err != nil {
		return err
	}
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":        intent.ID,
			"type":      string(intent.Type),
			"ticket_id": strconv.FormatInt(intent.TicketID, 10),
			"payload":   string(body),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Close leaves the shared client open; it is owned by the persistence layer.
func (s *RedisStreamSink) Close() error {
	return nil
}

func (s *RedisStreamSink) Name() string {
	return "redis"
}
