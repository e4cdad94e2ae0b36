package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/observability"
)

// SweepRunner runs one periodic sweep.
type SweepRunner interface {
	RunScheduled(ctx context.Context) (escalation.SweepReport, error)
}

// EscalationWorker triggers a sweep on every tick. A tick that arrives while
// the previous sweep is still running is dropped.
type EscalationWorker struct {
	runner   SweepRunner
	interval time.Duration
	logger   *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewEscalationWorker creates the worker.
func NewEscalationWorker(runner SweepRunner, interval time.Duration, logger *zap.Logger) *EscalationWorker {
	return &EscalationWorker{
		runner:   runner,
		interval: interval,
		logger:   logger.Named("escalation-worker"),
		done:     make(chan struct{}),
	}
}

// Start launches the ticker loop. It returns immediately; the loop stops when
// ctx is cancelled. runNow triggers a first sweep without waiting a full interval.
func (w *EscalationWorker) Start(ctx context.Context, runNow bool) {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		if runNow {
			w.tick(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				w.wg.Wait()
				w.logger.Info("escalation worker stopped")
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
}

// Done is closed once the loop and any in-flight sweep have finished.
func (w *EscalationWorker) Done() <-chan struct{} {
	return w.done
}

func (w *EscalationWorker) tick(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		observability.SweepsSkipped.Inc()
		w.logger.Warn("previous sweep still running; skipping tick")
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.running.Store(false)

		report, err := w.runner.RunScheduled(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.logger.Error("periodic sweep failed", zap.Error(err))
			}
			return
		}
		if len(report.Errors) > 0 {
			w.logger.Warn("periodic sweep finished with ticket errors",
				zap.String("sweep_id", report.SweepID),
				zap.Int("errors", len(report.Errors)))
		}
	}()
}
