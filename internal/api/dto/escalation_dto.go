package dto

import (
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// SweepErrorResponse is one failed ticket of a sweep.
type SweepErrorResponse struct {
	TicketID int64  `json:"ticket_id"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

// SweepReportResponse is the wire form of a sweep report.
type SweepReportResponse struct {
	SweepID      string                      `json:"sweep_id"`
	Trigger      string                      `json:"trigger"`
	StartedAt    time.Time                   `json:"started_at"`
	FinishedAt   time.Time                   `json:"finished_at"`
	Evaluated    int                         `json:"evaluated"`
	Escalated    int                         `json:"escalated"`
	Skipped      int                         `json:"skipped"`
	Unassigned   int                         `json:"unassigned"`
	Errors       []SweepErrorResponse        `json:"errors"`
	Transitions  []EscalationHistoryResponse `json:"transitions"`
	InvalidRules []int64                     `json:"invalid_rules,omitempty"`
	Cancelled    bool                        `json:"cancelled"`
}

// EscalationHistoryResponse is one ledger entry.
type EscalationHistoryResponse struct {
	ID                int64     `json:"id"`
	TicketID          int64     `json:"ticket_id"`
	RuleID            *int64    `json:"rule_id"`
	FromLevel         int       `json:"from_level"`
	ToLevel           int       `json:"to_level"`
	EscalatedBy       string    `json:"escalated_by"`
	EscalatedToUserID *int64    `json:"escalated_to_user_id"`
	EscalatedToRole   *string   `json:"escalated_to_role"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
}

// HistoryPage wraps a page of ledger entries.
type HistoryPage struct {
	Items    []EscalationHistoryResponse `json:"items"`
	Page     int                         `json:"page"`
	PageSize int                         `json:"page_size"`
}

// EscalationRuleRequest is a rule definition submitted for validation.
type EscalationRuleRequest struct {
	ID              int64    `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Description     *string  `json:"description" yaml:"description"`
	Priority        *string  `json:"priority" yaml:"priority"`
	CategoryID      *int64   `json:"category_id" yaml:"category_id"`
	TriggerType     string   `json:"trigger_type" yaml:"trigger_type"`
	TriggerHours    *float64 `json:"trigger_hours" yaml:"trigger_hours"`
	EscalationLevel int      `json:"escalation_level" yaml:"escalation_level"`
	TargetType      string   `json:"target_type" yaml:"target_type"`
	TargetRole      *string  `json:"target_role" yaml:"target_role"`
	TargetUserID    *int64   `json:"target_user_id" yaml:"target_user_id"`
	NotifyManager   bool     `json:"notify_manager" yaml:"notify_manager"`
	IsActive        *bool    `json:"is_active" yaml:"is_active"`
}

// ToDomain converts the request. IsActive defaults to true.
func (r EscalationRuleRequest) ToDomain() domain.EscalationRule {
	rule := domain.EscalationRule{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		CategoryID:      r.CategoryID,
		TriggerType:     domain.TriggerType(r.TriggerType),
		TriggerHours:    r.TriggerHours,
		EscalationLevel: r.EscalationLevel,
		Target: domain.Target{
			Type:   domain.TargetType(r.TargetType),
			Role:   r.TargetRole,
			UserID: r.TargetUserID,
		},
		NotifyManager: r.NotifyManager,
		IsActive:      r.IsActive == nil || *r.IsActive,
	}
	if r.Priority != nil {
		p := domain.TicketPriority(*r.Priority)
		rule.Priority = &p
	}
	return rule
}

// RuleValidationResponse reports a rule that passed validation.
type RuleValidationResponse struct {
	Valid bool `json:"valid"`
}
