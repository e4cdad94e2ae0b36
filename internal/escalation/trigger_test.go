package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

func TestFiresSLATriggers(t *testing.T) {
	e := Evaluator{AtRiskPercent: 80}
	atRisk := roleRule(1, 1, domain.TriggerSLAAtRisk, "IT_Staff")
	breached := roleRule(2, 2, domain.TriggerSLABreached, "IT_Staff")
	ticket := openTicket(1)

	cases := []struct {
		name     string
		elapsed  time.Duration
		atRisk   bool
		breached bool
	}{
		{"early", 10 * time.Hour, false, false},
		{"just below threshold", 19*time.Hour + 11*time.Minute, false, false},
		{"at threshold", 19*time.Hour + 12*time.Minute, true, false},
		{"at deadline", 24 * time.Hour, true, false},
		{"past deadline", 25 * time.Hour, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := t0.Add(tc.elapsed)
			assert.Equal(t, tc.atRisk, e.Fires(atRisk, ticket, slaRules(), now))
			assert.Equal(t, tc.breached, e.Fires(breached, ticket, slaRules(), now))
		})
	}
}

func TestFiresWithoutSLARule(t *testing.T) {
	e := Evaluator{AtRiskPercent: 80}
	ticket := openTicket(1)
	ticket.Priority = domain.TicketPriorityMedium

	assert.False(t, e.Fires(roleRule(1, 1, domain.TriggerSLABreached, "IT_Staff"), ticket, slaRules(), t0.Add(1000*time.Hour)))
}

func TestFiresNoAssignment(t *testing.T) {
	e := Evaluator{}
	rule := roleRule(1, 1, domain.TriggerNoAssignment, "IT_Staff")
	rule.TriggerHours = ptr(2.0)
	ticket := openTicket(1)

	assert.False(t, e.Fires(rule, ticket, nil, t0.Add(119*time.Minute)))
	assert.True(t, e.Fires(rule, ticket, nil, t0.Add(2*time.Hour)))

	ticket.AssigneeID = ptr(int64(4))
	assert.False(t, e.Fires(rule, ticket, nil, t0.Add(10*time.Hour)))

	rule.TriggerHours = nil
	ticket.AssigneeID = nil
	assert.False(t, e.Fires(rule, ticket, nil, t0.Add(10*time.Hour)), "missing hours never fires")
}

func TestHugeTriggerHoursDoNotWrap(t *testing.T) {
	rule := roleRule(1, 1, domain.TriggerNoAssignment, "IT_Staff")
	rule.TriggerHours = ptr(1e7)
	require.NoError(t, ValidateRule(rule))

	assert.False(t, Evaluator{}.Fires(rule, openTicket(1), nil, t0.Add(time.Minute)))
	assert.False(t, Evaluator{}.Fires(rule, openTicket(1), nil, t0.Add(10*365*24*time.Hour)))
}

func TestFiresNoResponse(t *testing.T) {
	e := Evaluator{}
	rule := roleRule(1, 1, domain.TriggerNoResponse, "IT_Staff")
	rule.TriggerHours = ptr(4.0)
	ticket := openTicket(1)

	assert.True(t, e.Fires(rule, ticket, nil, t0.Add(4*time.Hour)))

	ticket.LastResponseAt = ptr(t0.Add(3 * time.Hour))
	assert.False(t, e.Fires(rule, ticket, nil, t0.Add(6*time.Hour)))
	assert.True(t, e.Fires(rule, ticket, nil, t0.Add(7*time.Hour)))
}

func TestUnknownTriggerNeverFires(t *testing.T) {
	rule := roleRule(1, 1, domain.TriggerType("moon_phase"), "IT_Staff")
	assert.False(t, Evaluator{}.Fires(rule, openTicket(1), slaRules(), t0.Add(100*time.Hour)))
}

func TestReason(t *testing.T) {
	e := Evaluator{AtRiskPercent: 80}
	ticket := openTicket(1)

	reason := e.Reason(roleRule(1, 1, domain.TriggerSLAAtRisk, "IT_Staff"), ticket, slaRules(), t0.Add(19*time.Hour+12*time.Minute))
	assert.Equal(t, "sla_at_risk: 19.2h elapsed of 24.0h resolution window (threshold 80%)", reason)

	reason = e.Reason(roleRule(2, 2, domain.TriggerSLABreached, "IT_Staff"), ticket, slaRules(), t0.Add(25*time.Hour))
	assert.Contains(t, reason, "sla_breached")
	assert.Contains(t, reason, "25.0h elapsed")
}
