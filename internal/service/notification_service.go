package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/events"
	"github.com/spec-kit/ticket-escalation/internal/notify"
)

// NotificationService forwards escalation events to the notification sink.
type NotificationService struct {
	dispatcher events.Dispatcher
	sink       notify.Sink
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, sink notify.Sink, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleIntent)
	n.dispatcher.Subscribe(events.EventRuleMisconfigured, n.handleIntent)
	n.dispatcher.Subscribe(events.EventEscalationLevelReset, n.handleLevelReset)
}

func (n *NotificationService) handleIntent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Debug("forwarding notification intent",
		zap.Int64("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)),
		zap.String("intent_id", payload.Intent.ID))
	return n.sink.Publish(ctx, payload.Intent)
}

func (n *NotificationService) handleLevelReset(_ context.Context, event events.Event) error {
	n.logger.Info("EscalationLevelReset", zap.Int64("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// DispatchNotifier adapts the event dispatcher to the engine's Notifier.
type DispatchNotifier struct {
	dispatcher events.Dispatcher
}

var _ escalation.Notifier = (*DispatchNotifier)(nil)

// NewDispatchNotifier creates the adapter.
func NewDispatchNotifier(dispatcher events.Dispatcher) *DispatchNotifier {
	return &DispatchNotifier{dispatcher: dispatcher}
}

// Notify publishes the intent as a domain event.
func (d *DispatchNotifier) Notify(ctx context.Context, intent domain.NotificationIntent) error {
	return d.dispatcher.Publish(ctx, events.Event{
		ID:        intent.ID,
		Type:      events.TypeFor(intent),
		TicketID:  intent.TicketID,
		Timestamp: intent.CreatedAt,
		Payload:   events.TicketEscalatedPayload{Intent: intent},
	})
}
