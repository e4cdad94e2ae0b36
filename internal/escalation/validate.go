package escalation

import (
	"strings"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// ValidateRule checks the fields a rule needs for its trigger and target
// types. It is meant for the rule save path; the sweep also drops rules that
// fail it.
func ValidateRule(rule domain.EscalationRule) error {
	fields := map[string]string{}

	if strings.TrimSpace(rule.Name) == "" {
		fields["name"] = "required"
	}
	if rule.Priority != nil && !rule.Priority.Valid() {
		fields["priority"] = "must be one of Low, Medium, High"
	}
	if !rule.TriggerType.Valid() {
		fields["triggerType"] = "must be one of sla_at_risk, sla_breached, no_assignment, no_response"
	} else if rule.TriggerType.RequiresHours() {
		if rule.TriggerHours == nil {
			fields["triggerHours"] = "required for " + string(rule.TriggerType)
		} else if *rule.TriggerHours <= 0 {
			fields["triggerHours"] = "must be greater than 0"
		}
	}
	if rule.EscalationLevel < 1 || rule.EscalationLevel > domain.MaxEscalationLevel {
		fields["escalationLevel"] = "must be between 1 and 5"
	}
	switch rule.Target.Type {
	case domain.TargetRole:
		if rule.Target.Role == nil || strings.TrimSpace(*rule.Target.Role) == "" {
			fields["targetRole"] = "required when targetType is role"
		}
	case domain.TargetUser:
		if rule.Target.UserID == nil {
			fields["targetUserId"] = "required when targetType is user"
		}
	case domain.TargetManager:
	default:
		fields["targetType"] = "must be one of role, user, manager"
	}

	if len(fields) == 0 {
		return nil
	}
	details := map[string]any{"fields": fields}
	if rule.ID != 0 {
		details["rule_id"] = rule.ID
	}
	return apperrors.NewConfigError("invalid escalation rule", details)
}
