package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/clock"
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/events"
	"github.com/spec-kit/ticket-escalation/internal/repository"
	"github.com/spec-kit/ticket-escalation/internal/sla"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

const maxHistoryPageSize = 500

// EscalationService exposes sweeps and the escalation ledger to transports.
type EscalationService struct {
	tickets     repository.TicketRepository
	rules       repository.RuleRepository
	historyRepo repository.EscalationHistoryRepository
	engine      *escalation.Engine
	dispatcher  events.Dispatcher
	clock       clock.Clock
	logger      *zap.Logger
	atRiskPct   int
	pageSize    int
}

// EscalationDependencies bundles repositories and collaborators.
type EscalationDependencies struct {
	TicketRepo      repository.TicketRepository
	RuleRepo        repository.RuleRepository
	HistoryRepo     repository.EscalationHistoryRepository
	Engine          *escalation.Engine
	Dispatcher      events.Dispatcher
	Clock           clock.Clock
	Logger          *zap.Logger
	AtRiskPercent   int
	HistoryPageSize int
}

// NewEscalationService creates the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.HistoryPageSize <= 0 {
		deps.HistoryPageSize = 50
	}
	return &EscalationService{
		tickets:     deps.TicketRepo,
		rules:       deps.RuleRepo,
		historyRepo: deps.HistoryRepo,
		engine:      deps.Engine,
		dispatcher:  deps.Dispatcher,
		clock:       deps.Clock,
		logger:      deps.Logger,
		atRiskPct:   deps.AtRiskPercent,
		pageSize:    deps.HistoryPageSize,
	}
}

// CheckNow runs a manual sweep and returns its report synchronously.
func (s *EscalationService) CheckNow(ctx context.Context) (escalation.SweepReport, error) {
	return s.runSweep(ctx, escalation.TriggerManual)
}

// RunScheduled runs the periodic sweep.
func (s *EscalationService) RunScheduled(ctx context.Context) (escalation.SweepReport, error) {
	return s.runSweep(ctx, escalation.TriggerPeriodic)
}

// runSweep is shared by the manual and periodic paths.
func (s *EscalationService) runSweep(ctx context.Context, trigger escalation.Trigger) (escalation.SweepReport, error) {
	tickets, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return escalation.SweepReport{}, apperrors.NewDependencyUnavailable("ticket store", err)
	}
	rules, err := s.rules.ListActiveEscalationRules(ctx)
	if err != nil {
		return escalation.SweepReport{}, apperrors.NewDependencyUnavailable("rule store", err)
	}
	slaRules, err := s.rules.ListActiveSLARules(ctx)
	if err != nil {
		return escalation.SweepReport{}, apperrors.NewDependencyUnavailable("rule store", err)
	}
	return s.engine.Sweep(ctx, escalation.SweepInput{
		Tickets:  tickets,
		Rules:    rules,
		SLARules: slaRules,
		Now:      s.clock.Now(),
		Trigger:  trigger,
	}), nil
}

// HistoryQuery filters the escalation ledger. Page starts at 1.
type HistoryQuery struct {
	TicketID *int64
	RuleID   *int64
	UserID   *int64
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ListHistory returns ledger entries newest first.
func (s *EscalationService) ListHistory(ctx context.Context, q HistoryQuery) ([]domain.EscalationHistory, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = s.pageSize
	}
	if q.PageSize > maxHistoryPageSize {
		return nil, apperrors.NewValidationError("page_size too large", map[string]any{"max": maxHistoryPageSize})
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, apperrors.NewValidationError("from must not be after to", nil)
	}
	items, err := s.historyRepo.List(ctx, repository.HistoryFilter{
		TicketID: q.TicketID,
		RuleID:   q.RuleID,
		UserID:   q.UserID,
		From:     q.From,
		To:       q.To,
		Limit:    q.PageSize,
		Offset:   (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// TicketHistory returns the ledger of one ticket.
func (s *EscalationService) TicketHistory(ctx context.Context, ticketID int64, page, pageSize int) ([]domain.EscalationHistory, error) {
	if _, err := s.loadTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.ListHistory(ctx, HistoryQuery{TicketID: &ticketID, Page: page, PageSize: pageSize})
}

// SLAView is a ticket with its SLA status at a point in time.
type SLAView struct {
	Ticket domain.Ticket
	Status sla.Status
	At     time.Time
}

// SLAStatus computes the current SLA state of a ticket.
func (s *EscalationService) SLAStatus(ctx context.Context, ticketID int64) (*SLAView, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	slaRules, err := s.rules.ListActiveSLARules(ctx)
	if err != nil {
		return nil, apperrors.NewDependencyUnavailable("rule store", err)
	}
	now := s.clock.Now()
	return &SLAView{
		Ticket: *ticket,
		Status: sla.StatusOf(*ticket, slaRules, now, s.atRiskPct),
		At:     now,
	}, nil
}

// ResetLevel accepts an external reset of the ticket's escalation level to
// 0, e.g. after a reopen. The ledger is left untouched.
func (s *EscalationService) ResetLevel(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	previous := ticket.EscalationLevel
	if err := s.tickets.ResetEscalation(ctx, ticketID); err != nil {
		return nil, s.mapTicketError(err, ticketID)
	}
	ticket.EscalationLevel = 0
	s.logger.Info("escalation level reset", zap.Int64("ticket_id", ticketID), zap.Int("previous_level", previous))

	if s.dispatcher != nil {
		if err := s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventEscalationLevelReset,
			TicketID:  ticketID,
			Timestamp: s.clock.Now(),
			Payload:   events.EscalationLevelResetPayload{PreviousLevel: previous},
		}); err != nil {
			s.logger.Warn("publish level reset event", zap.Int64("ticket_id", ticketID), zap.Error(err))
		}
	}
	return ticket, nil
}

// ValidateRule checks a rule definition before it is saved.
func (s *EscalationService) ValidateRule(rule domain.EscalationRule) error {
	return escalation.ValidateRule(rule)
}

func (s *EscalationService) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapTicketError(err, ticketID)
	}
	return ticket, nil
}

func (s *EscalationService) mapTicketError(err error, ticketID int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return apperrors.MapError(err)
}
