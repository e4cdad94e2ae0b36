package escalation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/clock"
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/observability"
)

// Ledger persists escalation transitions.
type Ledger interface {
	// Commit appends entry and moves the ticket from entry.FromLevel to
	// entry.ToLevel in one atomic step, optionally reassigning it. It returns
	// an error matching ErrConcurrentModification when the ticket is no
	// longer at FromLevel. On success entry.ID and entry.CreatedAt are set.
	Commit(ctx context.Context, entry *domain.EscalationHistory, reassignTo *int64) error
}

// TicketLocker hands out short-lived per-ticket mutual exclusion markers.
type TicketLocker interface {
	// Lock returns ok=false when another holder owns the ticket.
	Lock(ctx context.Context, ticketID int64) (unlock func(), ok bool, err error)
}

// Notifier forwards notification intents to the delivery sink.
type Notifier interface {
	Notify(ctx context.Context, intent domain.NotificationIntent) error
}

// Dependencies bundles the engine's collaborators.
type Dependencies struct {
	Directory Directory
	Ledger    Ledger
	Locker    TicketLocker
	Notifier  Notifier
	Clock     clock.Clock
	Logger    *zap.Logger
}

// Options tunes engine behavior.
type Options struct {
	AtRiskPercent int
	Workers       int
	TicketTimeout time.Duration
	// Reassign lets role and user resolutions take over ticket ownership.
	Reassign bool
}

// Engine evaluates and applies escalations.
type Engine struct {
	evaluator Evaluator
	resolver  *Resolver
	ledger    Ledger
	locker    TicketLocker
	notifier  Notifier
	clock     clock.Clock
	logger    *zap.Logger
	opts      Options
}

// NewEngine builds an engine. Locker and Notifier may be nil.
func NewEngine(deps Dependencies, opts Options) *Engine {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.TicketTimeout <= 0 {
		opts.TicketTimeout = 5 * time.Second
	}
	return &Engine{
		evaluator: Evaluator{AtRiskPercent: opts.AtRiskPercent},
		resolver:  NewResolver(deps.Directory),
		ledger:    deps.Ledger,
		locker:    deps.Locker,
		notifier:  deps.Notifier,
		clock:     deps.Clock,
		logger:    deps.Logger,
		opts:      opts,
	}
}

// Evaluator returns the trigger evaluator used by the engine.
func (e *Engine) Evaluator() Evaluator {
	return e.evaluator
}

// Outcome is the result of processing one ticket.
type Outcome struct {
	Transition *domain.EscalationHistory
	// Skipped is set when a concurrent writer owned or advanced the ticket.
	Skipped bool
	// Unassigned is set when the target could not be resolved.
	Unassigned bool
}

// Process evaluates one ticket and applies at most one transition.
func (e *Engine) Process(ctx context.Context, ticket domain.Ticket, rules []domain.EscalationRule, slaRules []domain.SLARule, now time.Time) (Outcome, error) {
	if !ticket.IsOpen() {
		return Outcome{}, nil
	}
	firing := e.evaluator.Firing(Match(ticket, rules), ticket, slaRules, now)
	rule, ok := Decide(ticket.EscalationLevel, firing)
	if !ok {
		return Outcome{}, nil
	}

	if e.locker != nil {
		unlock, acquired, err := e.locker.Lock(ctx, ticket.ID)
		if err != nil {
			return Outcome{}, unavailableLock(err)
		}
		if !acquired {
			observability.CASConflicts.Inc()
			return Outcome{Skipped: true}, nil
		}
		defer unlock()
	}

	return e.apply(ctx, ticket, rule, slaRules, now)
}

func (e *Engine) apply(ctx context.Context, ticket domain.Ticket, rule domain.EscalationRule, slaRules []domain.SLARule, now time.Time) (Outcome, error) {
	logger := e.logger.With(
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("rule_id", rule.ID),
		zap.Int("from_level", ticket.EscalationLevel),
		zap.Int("to_level", rule.EscalationLevel))

	resolution, err := e.resolver.Resolve(ctx, rule, ticket)
	unassigned := false
	if err != nil {
		if !errors.Is(err, ErrTargetNotFound) {
			return Outcome{}, err
		}
		unassigned = true
		resolution = Resolution{}
		observability.RuleMisconfigured.WithLabelValues(strconv.FormatInt(rule.ID, 10)).Inc()
		logger.Warn("escalation target not found; recording unassigned transition", zap.Error(err))
	}

	reason := e.evaluator.Reason(rule, ticket, slaRules, now)
	if unassigned {
		reason += "; target not found, left unassigned"
	}
	ruleID := rule.ID
	entry := &domain.EscalationHistory{
		TicketID:          ticket.ID,
		RuleID:            &ruleID,
		FromLevel:         ticket.EscalationLevel,
		ToLevel:           rule.EscalationLevel,
		EscalatedBy:       domain.EscalatedBySystem,
		EscalatedToUserID: resolution.UserID,
		EscalatedToRole:   resolution.Role,
		Reason:            reason,
		CreatedAt:         now,
	}
	var reassignTo *int64
	if e.opts.Reassign && resolution.Reassign && resolution.UserID != nil {
		reassignTo = resolution.UserID
	}

	if err := e.ledger.Commit(ctx, entry, reassignTo); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			observability.CASConflicts.Inc()
			logger.Debug("ticket level changed concurrently; skipping")
			return Outcome{Skipped: true}, nil
		}
		return Outcome{}, err
	}
	observability.Escalations.WithLabelValues(string(rule.TriggerType), strconv.Itoa(rule.EscalationLevel)).Inc()
	logger.Info("ticket escalated", zap.Int64("history_id", entry.ID), zap.String("reason", reason))

	e.announce(ctx, logger, rule, resolution, entry, unassigned)
	return Outcome{Transition: entry, Unassigned: unassigned}, nil
}

// announce emits notification intents; failures are logged and never undo the transition.
func (e *Engine) announce(ctx context.Context, logger *zap.Logger, rule domain.EscalationRule, resolution Resolution, entry *domain.EscalationHistory, unassigned bool) {
	if e.notifier == nil {
		return
	}
	base := domain.NotificationIntent{
		Type:      domain.NotificationEscalation,
		TicketID:  entry.TicketID,
		RuleID:    entry.RuleID,
		HistoryID: entry.ID,
		Level:     entry.ToLevel,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	}

	if unassigned {
		alert := base
		alert.ID = uuid.NewString()
		alert.Type = domain.NotificationRuleMisconfigured
		e.notify(ctx, logger, alert)
	} else {
		intent := base
		intent.ID = uuid.NewString()
		intent.TargetUserID = resolution.UserID
		intent.TargetRole = resolution.Role
		intent.RecipientUserIDs = resolution.Recipients
		e.notify(ctx, logger, intent)
	}

	// A manager target already addresses every admin.
	if !rule.NotifyManager || rule.Target.Type == domain.TargetManager {
		return
	}
	admins, err := e.resolver.Admins(ctx)
	if err != nil {
		logger.Warn("admin fan-out lookup failed", zap.Error(err))
		return
	}
	role := string(domain.StaffRoleAdmin)
	fanout := base
	fanout.ID = uuid.NewString()
	fanout.TargetRole = &role
	fanout.RecipientUserIDs = admins
	fanout.NotifyManagerFanout = true
	e.notify(ctx, logger, fanout)
}

func (e *Engine) notify(ctx context.Context, logger *zap.Logger, intent domain.NotificationIntent) {
	if err := e.notifier.Notify(ctx, intent); err != nil {
		logger.Error("notification intent not delivered",
			zap.String("intent_id", intent.ID),
			zap.String("type", string(intent.Type)),
			zap.Bool("fanout", intent.NotifyManagerFanout),
			zap.Error(err))
	}
}

func unavailableLock(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return wrapUnavailable("ticket lock", err)
}
