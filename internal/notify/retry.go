package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/observability"
)

// Retrying wraps a sink with bounded exponential backoff.
type Retrying struct {
	next    Sink
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// NewRetrying retries failed publishes up to retries times, doubling backoff
// after each attempt.
func NewRetrying(next Sink, retries int, backoff time.Duration, logger *zap.Logger) *Retrying {
	if retries < 0 {
		retries = 0
	}
	return &Retrying{next: next, retries: retries, backoff: backoff, logger: logger}
}

func (r *Retrying) Publish(ctx context.Context, intent domain.NotificationIntent) error {
	var lastErr error
	delay := r.backoff
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("retrying notification intent",
				zap.String("sink", r.next.Name()),
				zap.String("intent_id", intent.ID),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				observability.NotificationFailures.WithLabelValues(r.next.Name()).Inc()
				return fmt.Errorf("publish cancelled after %d attempts: %w", attempt, lastErr)
			case <-time.After(delay):
			}
			delay *= 2
		}
		if lastErr = r.next.Publish(ctx, intent); lastErr == nil {
			observability.NotificationsPublished.WithLabelValues(r.next.Name(), string(intent.Type)).Inc()
			return nil
		}
	}
	observability.NotificationFailures.WithLabelValues(r.next.Name()).Inc()
	return fmt.Errorf("publish failed after %d attempts: %w", r.retries+1, lastErr)
}

func (r *Retrying) Close() error {
	return r.next.Close()
}

func (r *Retrying) Name() string {
	return r.next.Name()
}
