// Package notify hands escalation notification intents to an external
// delivery pipeline. Delivery itself (email, push, websocket) happens
// downstream; sinks only publish the intent.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// Sink publishes notification intents.
type Sink interface {
	Publish(ctx context.Context, intent domain.NotificationIntent) error
	Close() error
	Name() string
}

// LogSink writes intents to the structured logger. It is the default sink
// when no broker is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("notify")}
}

func (s *LogSink) Publish(_ context.Context, intent domain.NotificationIntent) error {
	fields := []zap.Field{
		zap.String("intent_id", intent.ID),
		zap.String("type", string(intent.Type)),
		zap.Int64("ticket_id", intent.TicketID),
		zap.Int64("history_id", intent.HistoryID),
		zap.Int("level", intent.Level),
		zap.String("reason", intent.Reason),
		zap.Bool("fanout", intent.NotifyManagerFanout),
	}
	if intent.TargetUserID != nil {
		fields = append(fields, zap.Int64("target_user_id", *intent.TargetUserID))
	}
	if intent.TargetRole != nil {
		fields = append(fields, zap.String("target_role", *intent.TargetRole))
	}
	if len(intent.RecipientUserIDs) > 0 {
		fields = append(fields, zap.Int64s("recipients", intent.RecipientUserIDs))
	}
	s.logger.Info("notification_intent", fields...)
	return nil
}

// Close is a no-op for LogSink.
func (s *LogSink) Close() error {
	return nil
}

func (s *LogSink) Name() string {
	return "log"
}

func encode(intent domain.NotificationIntent) ([]byte, error) {
	body, err := json.Marshal(intent)
	if err != nil {
		return nil, fmt.Errorf("marshal notification intent: %w", err)
	}
	return body, nil
}
