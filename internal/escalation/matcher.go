package escalation

import (
	"sort"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// Match returns the active rules applicable to ticket in ascending level
// order. Non-nil priority and category narrow a rule; nil fields match all.
func Match(ticket domain.Ticket, rules []domain.EscalationRule) []domain.EscalationRule {
	matched := make([]domain.EscalationRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if rule.Priority != nil && *rule.Priority != ticket.Priority {
			continue
		}
		if rule.CategoryID != nil && (ticket.CategoryID == nil || *rule.CategoryID != *ticket.CategoryID) {
			continue
		}
		matched = append(matched, rule)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].EscalationLevel != matched[j].EscalationLevel {
			return matched[i].EscalationLevel < matched[j].EscalationLevel
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}
