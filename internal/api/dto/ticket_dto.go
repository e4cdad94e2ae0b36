package dto

import (
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// TicketSLAResponse describes a ticket's SLA position.
type TicketSLAResponse struct {
	TicketID        int64                 `json:"ticket_id"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	EscalationLevel int                   `json:"escalation_level"`
	CreatedAt       time.Time             `json:"created_at"`
	ResponseDue     *time.Time            `json:"response_due"`
	ResolutionDue   *time.Time            `json:"resolution_due"`
	HasSLA          bool                  `json:"has_sla"`
	ConsumedPercent float64               `json:"consumed_percent"`
	ResponseOverdue bool                  `json:"response_overdue"`
	AtRisk          bool                  `json:"at_risk"`
	Breached        bool                  `json:"breached"`
	EvaluatedAt     time.Time             `json:"evaluated_at"`
}

// TicketLevelResponse is returned after an external level reset.
type TicketLevelResponse struct {
	TicketID        int64 `json:"ticket_id"`
	EscalationLevel int   `json:"escalation_level"`
}
