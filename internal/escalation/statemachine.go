package escalation

import "github.com/spec-kit/ticket-escalation/internal/domain"

// Decide picks the first firing rule whose level exceeds currentLevel. firing
// must be in ascending level order, as returned by Match. The guard is a
// strict greater-than so re-evaluating unchanged state never repeats a step,
// and taking the lowest qualifying level moves one step at a time.
func Decide(currentLevel int, firing []domain.EscalationRule) (domain.EscalationRule, bool) {
	if currentLevel >= domain.MaxEscalationLevel {
		return domain.EscalationRule{}, false
	}
	for _, rule := range firing {
		if rule.EscalationLevel > currentLevel && rule.EscalationLevel <= domain.MaxEscalationLevel {
			return rule, true
		}
	}
	return domain.EscalationRule{}, false
}
