package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In_Progress"
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// MaxEscalationLevel is the terminal level of the escalation ratchet.
const MaxEscalationLevel = 5

// Ticket is the read view of a support ticket consumed by the escalation engine.
// EscalationLevel is written only by the engine; AssigneeID only when a rule's
// target policy reassigns.
type Ticket struct {
	ID              int64
	Title           string
	Priority        TicketPriority
	Status          TicketStatus
	CategoryID      *int64
	AssigneeID      *int64
	CreatedAt       time.Time
	LastResponseAt  *time.Time
	EscalationLevel int
}

// IsOpen excludes terminal states from evaluation.
func (t Ticket) IsOpen() bool {
	return t.Status != TicketStatusResolved && t.Status != TicketStatusClosed
}
