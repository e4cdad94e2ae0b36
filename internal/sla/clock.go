// Package sla computes service-level deadlines for tickets from
// priority-keyed rules. Every function is pure; callers pass now.
package sla

import (
	"time"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// DefaultAtRiskPercent is the share of the resolution window after which a
// ticket counts as at risk.
const DefaultAtRiskPercent = 80

// Deadlines holds the computed due timestamps of a ticket. Both are nil when
// no active rule covers the ticket's priority.
type Deadlines struct {
	ResponseDue   *time.Time
	ResolutionDue *time.Time
}

// RuleFor returns the active rule for priority. When several are active the
// most recently created wins.
func RuleFor(priority domain.TicketPriority, rules []domain.SLARule) (domain.SLARule, bool) {
	var (
		found domain.SLARule
		ok    bool
	)
	for _, rule := range rules {
		if !rule.IsActive || rule.Priority != priority {
			continue
		}
		if rule.ResolutionTimeHours <= 0 || rule.ResponseTimeHours <= 0 {
			continue
		}
		if !ok || rule.CreatedAt.After(found.CreatedAt) {
			found, ok = rule, true
		}
	}
	return found, ok
}

// DueAt computes response and resolution deadlines.
func DueAt(ticket domain.Ticket, rules []domain.SLARule) Deadlines {
	rule, ok := RuleFor(ticket.Priority, rules)
	if !ok {
		return Deadlines{}
	}
	response := ticket.CreatedAt.Add(rule.ResponseWindow())
	resolution := ticket.CreatedAt.Add(rule.ResolutionWindow())
	return Deadlines{ResponseDue: &response, ResolutionDue: &resolution}
}

// IsBreached reports whether now is past the resolution deadline.
func IsBreached(ticket domain.Ticket, rules []domain.SLARule, now time.Time) bool {
	due := DueAt(ticket, rules).ResolutionDue
	return due != nil && now.After(*due)
}

// IsAtRisk reports whether now has consumed at least thresholdPct of the
// resolution window without breaching it. A non-positive threshold falls back
// to DefaultAtRiskPercent.
func IsAtRisk(ticket domain.Ticket, rules []domain.SLARule, now time.Time, thresholdPct int) bool {
	due := DueAt(ticket, rules).ResolutionDue
	if due == nil || now.After(*due) {
		return false
	}
	if thresholdPct <= 0 {
		thresholdPct = DefaultAtRiskPercent
	}
	window := due.Sub(ticket.CreatedAt)
	if window <= 0 {
		return false
	}
	elapsed := now.Sub(ticket.CreatedAt)
	return float64(elapsed)*100 >= float64(window)*float64(thresholdPct)
}

// Status is a point-in-time SLA summary of a ticket.
type Status struct {
	Deadlines
	HasSLA          bool
	ConsumedPercent float64
	ResponseOverdue bool
	AtRisk          bool
	Breached        bool
}

// StatusOf summarizes ticket SLA state at now.
func StatusOf(ticket domain.Ticket, rules []domain.SLARule, now time.Time, thresholdPct int) Status {
	deadlines := DueAt(ticket, rules)
	status := Status{Deadlines: deadlines}
	if deadlines.ResolutionDue == nil {
		return status
	}
	status.HasSLA = true
	if window := deadlines.ResolutionDue.Sub(ticket.CreatedAt); window > 0 {
		status.ConsumedPercent = float64(now.Sub(ticket.CreatedAt)) * 100 / float64(window)
	}
	status.ResponseOverdue = ticket.LastResponseAt == nil && now.After(*deadlines.ResponseDue)
	status.Breached = IsBreached(ticket, rules, now)
	status.AtRisk = IsAtRisk(ticket, rules, now, thresholdPct)
	return status
}
