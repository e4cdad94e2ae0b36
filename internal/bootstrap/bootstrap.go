// Package bootstrap wires configuration into the escalation runtime shared by
// the API server and the operator CLI.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/clock"
	"github.com/spec-kit/ticket-escalation/internal/config"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/events"
	"github.com/spec-kit/ticket-escalation/internal/fixtures"
	"github.com/spec-kit/ticket-escalation/internal/lock"
	"github.com/spec-kit/ticket-escalation/internal/notify"
	"github.com/spec-kit/ticket-escalation/internal/persistence"
	"github.com/spec-kit/ticket-escalation/internal/repository"
	"github.com/spec-kit/ticket-escalation/internal/repository/memory"
	"github.com/spec-kit/ticket-escalation/internal/service"
	"github.com/spec-kit/ticket-escalation/internal/worker"
)

// Runtime holds the wired service and the resources it owns.
type Runtime struct {
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Service    *service.EscalationService
	Dispatcher events.Dispatcher

	stopNotifications func()
}

type stores struct {
	tickets repository.TicketRepository
	staff   repository.StaffRepository
	rules   repository.RuleRepository
	history repository.EscalationHistoryRepository
}

// Build opens dependencies and assembles the escalation service. The caller
// must call Close.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rd := persistence.NewRedis(ctx, cfg.Redis, logger)

	var s stores
	if pg.Enabled() {
		pool := pg.PoolHandle()
		s = stores{
			tickets: repository.NewTicketRepository(pool),
			staff:   repository.NewStaffRepository(pool),
			rules:   repository.NewRuleRepository(pool),
			history: repository.NewEscalationHistoryRepository(pool),
		}
	} else {
		store := memory.NewStore()
		if cfg.App.SeedFile != "" {
			fixture, err := fixtures.Load(cfg.App.SeedFile)
			if err != nil {
				rd.Close()
				return nil, err
			}
			fixture.Seed(store)
			logger.Info("seeded in-memory store", zap.String("file", cfg.App.SeedFile),
				zap.Int("tickets", len(fixture.Tickets)), zap.Int("rules", len(fixture.EscalationRules)))
		}
		s = stores{tickets: store, staff: store, rules: store, history: store}
	}

	var locker escalation.TicketLocker
	if rd.Enabled() {
		locker = lock.NewRedis(rd.Client, cfg.Escalation.LockKeyPrefix, cfg.Escalation.LockTTL(), logger)
	} else {
		locker = lock.NewLocal(cfg.Escalation.LockTTL())
	}

	sink, err := notify.New(cfg.Notification, rd.Client, logger)
	if err != nil {
		rd.Close()
		pg.Close()
		return nil, fmt.Errorf("notification sink: %w", err)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, sink, logger)
	stop := worker.StartNotificationWorker(notificationService, sink, logger)

	engine := escalation.NewEngine(escalation.Dependencies{
		Directory: s.staff,
		Ledger:    s.history,
		Locker:    locker,
		Notifier:  service.NewDispatchNotifier(dispatcher),
		Clock:     clock.Real{},
		Logger:    logger.Named("escalation"),
	}, escalation.Options{
		AtRiskPercent: cfg.Escalation.AtRiskPercent,
		Workers:       cfg.Escalation.WorkerCount(),
		TicketTimeout: cfg.Escalation.TicketTimeout(),
		Reassign:      cfg.Escalation.ReassignOnEscalation,
	})

	svc := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:      s.tickets,
		RuleRepo:        s.rules,
		HistoryRepo:     s.history,
		Engine:          engine,
		Dispatcher:      dispatcher,
		Logger:          logger,
		AtRiskPercent:   cfg.Escalation.AtRiskPercent,
		HistoryPageSize: cfg.Escalation.HistoryPageSize,
	})

	return &Runtime{
		Postgres:          pg,
		Redis:             rd,
		Service:           svc,
		Dispatcher:        dispatcher,
		stopNotifications: stop,
	}, nil
}

// Close releases the sink, Redis and Postgres in that order.
func (r *Runtime) Close() {
	if r.stopNotifications != nil {
		r.stopNotifications()
	}
	r.Redis.Close()
	r.Postgres.Close()
}
