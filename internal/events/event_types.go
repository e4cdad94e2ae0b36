package events

import (
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketEscalated      EventType = "ticket_escalated"
	EventRuleMisconfigured    EventType = "rule_misconfigured"
	EventEscalationLevelReset EventType = "escalation_level_reset"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketEscalatedPayload carries the intent produced by a committed transition.
type TicketEscalatedPayload struct {
	Intent domain.NotificationIntent `json:"intent"`
}

// EscalationLevelResetPayload payload.
type EscalationLevelResetPayload struct {
	PreviousLevel int `json:"previous_level"`
}

// TypeFor maps an intent to the event it travels on.
func TypeFor(intent domain.NotificationIntent) EventType {
	if intent.Type == domain.NotificationRuleMisconfigured {
		return EventRuleMisconfigured
	}
	return EventTicketEscalated
}
