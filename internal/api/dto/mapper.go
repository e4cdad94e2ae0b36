package dto

import (
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/service"
)

// SweepReport converts an engine report.
func SweepReport(r escalation.SweepReport) SweepReportResponse {
	resp := SweepReportResponse{
		SweepID:      r.SweepID,
		Trigger:      string(r.Trigger),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Evaluated:    r.Evaluated,
		Escalated:    r.Escalated,
		Skipped:      r.Skipped,
		Unassigned:   r.Unassigned,
		Errors:       make([]SweepErrorResponse, 0, len(r.Errors)),
		Transitions:  History(r.Transitions),
		InvalidRules: r.InvalidRules,
		Cancelled:    r.Cancelled,
	}
	for _, e := range r.Errors {
		resp.Errors = append(resp.Errors, SweepErrorResponse{TicketID: e.TicketID, Code: e.Code, Error: e.Error})
	}
	return resp
}

// History converts ledger entries.
func History(entries []domain.EscalationHistory) []EscalationHistoryResponse {
	items := make([]EscalationHistoryResponse, 0, len(entries))
	for _, h := range entries {
		items = append(items, EscalationHistoryResponse{
			ID:                h.ID,
			TicketID:          h.TicketID,
			RuleID:            h.RuleID,
			FromLevel:         h.FromLevel,
			ToLevel:           h.ToLevel,
			EscalatedBy:       h.EscalatedBy,
			EscalatedToUserID: h.EscalatedToUserID,
			EscalatedToRole:   h.EscalatedToRole,
			Reason:            h.Reason,
			CreatedAt:         h.CreatedAt,
		})
	}
	return items
}

// TicketSLA converts an SLA view.
func TicketSLA(v *service.SLAView) TicketSLAResponse {
	return TicketSLAResponse{
		TicketID:        v.Ticket.ID,
		Priority:        v.Ticket.Priority,
		Status:          v.Ticket.Status,
		EscalationLevel: v.Ticket.EscalationLevel,
		CreatedAt:       v.Ticket.CreatedAt,
		ResponseDue:     v.Status.ResponseDue,
		ResolutionDue:   v.Status.ResolutionDue,
		HasSLA:          v.Status.HasSLA,
		ConsumedPercent: v.Status.ConsumedPercent,
		ResponseOverdue: v.Status.ResponseOverdue,
		AtRisk:          v.Status.AtRisk,
		Breached:        v.Status.Breached,
		EvaluatedAt:     v.At,
	}
}
