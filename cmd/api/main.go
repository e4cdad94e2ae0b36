package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-escalation/internal/api/http"
	"github.com/spec-kit/ticket-escalation/internal/api/http/handlers"
	"github.com/spec-kit/ticket-escalation/internal/bootstrap"
	"github.com/spec-kit/ticket-escalation/internal/config"
	"github.com/spec-kit/ticket-escalation/internal/observability"
	"github.com/spec-kit/ticket-escalation/internal/persistence"
	"github.com/spec-kit/ticket-escalation/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build runtime", zap.Error(err))
	}
	defer rt.Close()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": rt.Postgres,
		"redis":    rt.Redis,
	}, persistence.ErrNotConfigured)
	escalationHandler := handlers.NewEscalationHandler(rt.Service, cfg.Escalation.CheckNowPerMinute, cfg.Escalation.HistoryPageSize)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     healthHandler,
		Escalation: escalationHandler,
	})

	sweepCtx, stopSweeps := context.WithCancel(ctx)
	var escalationWorker *worker.EscalationWorker
	if cfg.Escalation.SchedulerEnabled {
		escalationWorker = worker.NewEscalationWorker(rt.Service, cfg.Escalation.SweepInterval(), logger)
		escalationWorker.Start(sweepCtx, cfg.Escalation.RunSweepOnStart)
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
	stopSweeps()
	if escalationWorker != nil {
		<-escalationWorker.Done()
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
