package escalation

import (
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func slaRules() []domain.SLARule {
	return []domain.SLARule{
		{ID: 1, Priority: domain.TicketPriorityHigh, ResponseTimeHours: 4, ResolutionTimeHours: 24, IsActive: true, CreatedAt: t0.Add(-720 * time.Hour)},
		{ID: 2, Priority: domain.TicketPriorityLow, ResponseTimeHours: 24, ResolutionTimeHours: 120, IsActive: true, CreatedAt: t0.Add(-720 * time.Hour)},
	}
}

func openTicket(id int64) domain.Ticket {
	return domain.Ticket{
		ID:        id,
		Title:     "printer on fire",
		Priority:  domain.TicketPriorityHigh,
		Status:    domain.TicketStatusOpen,
		CreatedAt: t0,
	}
}

func roleRule(id int64, level int, trigger domain.TriggerType, role string) domain.EscalationRule {
	return domain.EscalationRule{
		ID:              id,
		Name:            "rule",
		TriggerType:     trigger,
		EscalationLevel: level,
		Target:          domain.Target{Type: domain.TargetRole, Role: ptr(role)},
		IsActive:        true,
		CreatedAt:       t0.Add(-24 * time.Hour),
	}
}
