package domain

import "time"

// TriggerType selects the condition an escalation rule watches.
type TriggerType string

const (
	TriggerSLAAtRisk    TriggerType = "sla_at_risk"
	TriggerSLABreached  TriggerType = "sla_breached"
	TriggerNoAssignment TriggerType = "no_assignment"
	TriggerNoResponse   TriggerType = "no_response"
)

// RequiresHours reports whether the trigger needs TriggerHours.
func (t TriggerType) RequiresHours() bool {
	return t == TriggerNoAssignment || t == TriggerNoResponse
}

// Valid reports whether t is a known trigger type.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerSLAAtRisk, TriggerSLABreached, TriggerNoAssignment, TriggerNoResponse:
		return true
	}
	return false
}

// TargetType selects how a rule's recipient is resolved.
type TargetType string

const (
	TargetRole    TargetType = "role"
	TargetUser    TargetType = "user"
	TargetManager TargetType = "manager"
)

// Target is the recipient of an escalation. Role is set iff Type is role,
// UserID iff Type is user.
type Target struct {
	Type   TargetType
	Role   *string
	UserID *int64
}

// EscalationRule moves a matching ticket to EscalationLevel when its trigger fires.
// Nil Priority or CategoryID match any ticket.
type EscalationRule struct {
	ID              int64
	Name            string
	Description     *string
	Priority        *TicketPriority
	CategoryID      *int64
	TriggerType     TriggerType
	TriggerHours    *float64
	EscalationLevel int
	Target          Target
	NotifyManager   bool
	IsActive        bool
	CreatedAt       time.Time
}

// TriggerWindow returns TriggerHours as a duration.
func (r EscalationRule) TriggerWindow() (time.Duration, bool) {
	if r.TriggerHours == nil {
		return 0, false
	}
	return hours(*r.TriggerHours), true
}
