package escalation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/observability"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// Trigger names what started a sweep.
type Trigger string

const (
	TriggerPeriodic Trigger = "periodic"
	TriggerManual   Trigger = "manual"
)

// SweepInput is the snapshot a sweep evaluates.
type SweepInput struct {
	Tickets  []domain.Ticket
	Rules    []domain.EscalationRule
	SLARules []domain.SLARule
	Now      time.Time
	Trigger  Trigger
}

// SweepError records a per-ticket failure.
type SweepError struct {
	TicketID int64
	Code     string
	Error    string
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	SweepID      string
	Trigger      Trigger
	StartedAt    time.Time
	FinishedAt   time.Time
	Evaluated    int
	Escalated    int
	Skipped      int
	Unassigned   int
	Errors       []SweepError
	Transitions  []domain.EscalationHistory
	InvalidRules []int64
	Cancelled    bool
}

// Sweep evaluates every open ticket in the input independently. A failing
// ticket is recorded in the report and never aborts the others. Once ctx is
// cancelled no further ticket is started, while tickets already in progress
// run to completion under their own deadline.
func (e *Engine) Sweep(ctx context.Context, in SweepInput) SweepReport {
	report := SweepReport{
		SweepID:   uuid.NewString(),
		Trigger:   in.Trigger,
		StartedAt: e.clock.Now(),
	}
	logger := e.logger.With(zap.String("sweep_id", report.SweepID), zap.String("trigger", string(in.Trigger)))

	rules, invalid := e.usableRules(logger, in.Rules)
	report.InvalidRules = invalid

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)

	for _, ticket := range in.Tickets {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if !ticket.IsOpen() {
			continue
		}
		g.Go(func() error {
			// g.Go may have blocked on a full pool while ctx was cancelled.
			if ctx.Err() != nil {
				mu.Lock()
				report.Cancelled = true
				mu.Unlock()
				return nil
			}
			tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.TicketTimeout)
			defer cancel()

			outcome, err := e.Process(tctx, ticket, rules, in.SLARules, in.Now)

			mu.Lock()
			defer mu.Unlock()
			report.Evaluated++
			switch {
			case err != nil:
				code := classify(err)
				observability.TicketErrors.WithLabelValues(code).Inc()
				logger.Warn("ticket evaluation failed", zap.Int64("ticket_id", ticket.ID), zap.String("code", code), zap.Error(err))
				report.Errors = append(report.Errors, SweepError{TicketID: ticket.ID, Code: code, Error: err.Error()})
			case outcome.Skipped:
				report.Skipped++
			case outcome.Transition != nil:
				report.Escalated++
				if outcome.Unassigned {
					report.Unassigned++
				}
				report.Transitions = append(report.Transitions, *outcome.Transition)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].TicketID < report.Errors[j].TicketID })
	sort.Slice(report.Transitions, func(i, j int) bool { return report.Transitions[i].TicketID < report.Transitions[j].TicketID })
	report.FinishedAt = e.clock.Now()

	observability.SweepsTotal.WithLabelValues(string(in.Trigger)).Inc()
	observability.TicketsEvaluated.Add(float64(report.Evaluated))
	observability.SweepDuration.WithLabelValues(string(in.Trigger)).Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	logger.Info("sweep finished",
		zap.Int("evaluated", report.Evaluated),
		zap.Int("escalated", report.Escalated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", len(report.Errors)),
		zap.Bool("cancelled", report.Cancelled))
	return report
}

func (e *Engine) usableRules(logger *zap.Logger, rules []domain.EscalationRule) ([]domain.EscalationRule, []int64) {
	usable := make([]domain.EscalationRule, 0, len(rules))
	var invalid []int64
	for _, rule := range rules {
		if err := ValidateRule(rule); err != nil {
			invalid = append(invalid, rule.ID)
			logger.Warn("ignoring invalid escalation rule", zap.Int64("rule_id", rule.ID), zap.Error(err))
			continue
		}
		usable = append(usable, rule)
	}
	return usable, invalid
}

func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.CodeTimeout
	}
	return apperrors.CodeOf(err)
}
