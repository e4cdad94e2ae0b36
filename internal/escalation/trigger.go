package escalation

import (
	"fmt"
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/sla"
)

// Evaluator decides whether a rule's trigger currently holds for a ticket.
type Evaluator struct {
	AtRiskPercent int
}

// Fires dispatches on the rule's trigger type. Rules missing a required
// field never fire.
func (e Evaluator) Fires(rule domain.EscalationRule, ticket domain.Ticket, slaRules []domain.SLARule, now time.Time) bool {
	switch rule.TriggerType {
	case domain.TriggerSLABreached:
		return sla.IsBreached(ticket, slaRules, now)
	case domain.TriggerSLAAtRisk:
		return sla.IsAtRisk(ticket, slaRules, now, e.AtRiskPercent) && !sla.IsBreached(ticket, slaRules, now)
	case domain.TriggerNoAssignment:
		window, ok := rule.TriggerWindow()
		if !ok || ticket.AssigneeID != nil {
			return false
		}
		return now.Sub(ticket.CreatedAt) >= window
	case domain.TriggerNoResponse:
		window, ok := rule.TriggerWindow()
		if !ok {
			return false
		}
		return now.Sub(responseReference(ticket)) >= window
	default:
		return false
	}
}

// Firing filters matched rules down to those whose trigger holds, keeping order.
func (e Evaluator) Firing(matched []domain.EscalationRule, ticket domain.Ticket, slaRules []domain.SLARule, now time.Time) []domain.EscalationRule {
	firing := make([]domain.EscalationRule, 0, len(matched))
	for _, rule := range matched {
		if e.Fires(rule, ticket, slaRules, now) {
			firing = append(firing, rule)
		}
	}
	return firing
}

// responseReference returns the last staff reply, or the creation time when
// staff never replied.
func responseReference(ticket domain.Ticket) time.Time {
	if ticket.LastResponseAt != nil {
		return *ticket.LastResponseAt
	}
	return ticket.CreatedAt
}

// Reason renders a human readable explanation naming the trigger and elapsed time.
func (e Evaluator) Reason(rule domain.EscalationRule, ticket domain.Ticket, slaRules []domain.SLARule, now time.Time) string {
	switch rule.TriggerType {
	case domain.TriggerSLABreached:
		due := sla.DueAt(ticket, slaRules).ResolutionDue
		if due == nil {
			return "sla_breached"
		}
		return fmt.Sprintf("sla_breached: resolution deadline passed %s ago (%s elapsed since creation)",
			formatHours(now.Sub(*due)), formatHours(now.Sub(ticket.CreatedAt)))
	case domain.TriggerSLAAtRisk:
		due := sla.DueAt(ticket, slaRules).ResolutionDue
		if due == nil {
			return "sla_at_risk"
		}
		pct := e.AtRiskPercent
		if pct <= 0 {
			pct = sla.DefaultAtRiskPercent
		}
		return fmt.Sprintf("sla_at_risk: %s elapsed of %s resolution window (threshold %d%%)",
			formatHours(now.Sub(ticket.CreatedAt)), formatHours(due.Sub(ticket.CreatedAt)), pct)
	case domain.TriggerNoAssignment:
		window, _ := rule.TriggerWindow()
		return fmt.Sprintf("no_assignment: unassigned for %s (threshold %s)",
			formatHours(now.Sub(ticket.CreatedAt)), formatHours(window))
	case domain.TriggerNoResponse:
		window, _ := rule.TriggerWindow()
		return fmt.Sprintf("no_response: no staff response for %s (threshold %s)",
			formatHours(now.Sub(responseReference(ticket))), formatHours(window))
	default:
		return string(rule.TriggerType)
	}
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
