package domain

import "time"

// EscalatedBySystem marks transitions produced by the sweep.
const EscalatedBySystem = "system"

// EscalationHistory is an immutable ledger entry for one level transition.
type EscalationHistory struct {
	ID                int64
	TicketID          int64
	RuleID            *int64
	FromLevel         int
	ToLevel           int
	EscalatedBy       string
	EscalatedToUserID *int64
	EscalatedToRole   *string
	Reason            string
	CreatedAt         time.Time
}
