package notify

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/config"
)

// New builds the configured sink wrapped with retries. redisClient may be nil
// unless the redis sink is selected.
func New(cfg config.NotificationConfig, redisClient *redis.Client, logger *zap.Logger) (Sink, error) {
	var sink Sink
	switch cfg.Sink {
	case config.SinkLog, "":
		sink = NewLogSink(logger)
	case config.SinkRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis sink selected without a redis client")
		}
		sink = NewRedisStreamSink(redisClient, cfg.RedisStream)
	case config.SinkKafka:
		k, err := NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return nil, err
		}
		sink = k
	case config.SinkNATS:
		n, err := NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, err
		}
		sink = n
	default:
		return nil, fmt.Errorf("unknown notification sink %q", cfg.Sink)
	}
	return NewRetrying(sink, cfg.RetryCount, cfg.RetryBackoff(), logger), nil
}
