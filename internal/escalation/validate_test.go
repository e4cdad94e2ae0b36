package escalation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

func TestValidateRuleAcceptsWellFormedRules(t *testing.T) {
	noAssign := roleRule(1, 1, domain.TriggerNoAssignment, "IT_Staff")
	noAssign.TriggerHours = ptr(2.0)

	manager := roleRule(2, 3, domain.TriggerSLABreached, "")
	manager.Target = domain.Target{Type: domain.TargetManager}

	user := roleRule(3, 2, domain.TriggerSLAAtRisk, "")
	user.Target = domain.Target{Type: domain.TargetUser, UserID: ptr(int64(12))}

	for _, rule := range []domain.EscalationRule{noAssign, manager, user} {
		assert.NoError(t, ValidateRule(rule))
	}
}

func TestValidateRuleReportsEveryField(t *testing.T) {
	rule := domain.EscalationRule{
		ID:              44,
		TriggerType:     domain.TriggerNoResponse,
		EscalationLevel: 6,
		Target:          domain.Target{Type: domain.TargetRole},
		Priority:        ptr(domain.TicketPriority("Urgent")),
	}

	err := ValidateRule(rule)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfig))

	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	fields := domainErr.Details["fields"].(map[string]string)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "priority")
	assert.Contains(t, fields, "triggerHours")
	assert.Contains(t, fields, "escalationLevel")
	assert.Contains(t, fields, "targetRole")
	assert.Equal(t, int64(44), domainErr.Details["rule_id"])
}

func TestValidateRuleUserTargetNeedsID(t *testing.T) {
	rule := roleRule(1, 1, domain.TriggerSLABreached, "")
	rule.Target = domain.Target{Type: domain.TargetUser}

	err := ValidateRule(rule)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfig, apperrors.CodeOf(err))
}
