package escalation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ticket-escalation/internal/clock"
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/lock"
	"github.com/spec-kit/ticket-escalation/internal/repository/memory"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

type recordingNotifier struct {
	mu      sync.Mutex
	intents []domain.NotificationIntent
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, intent domain.NotificationIntent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intent)
	return n.err
}

func (n *recordingNotifier) all() []domain.NotificationIntent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.NotificationIntent(nil), n.intents...)
}

// flakyDirectory fails lookups for one role and blocks forever on another.
type flakyDirectory struct {
	Directory
	failRole  domain.StaffRole
	blockRole domain.StaffRole
}

func (d flakyDirectory) ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error) {
	switch role {
	case d.failRole:
		return nil, errors.New("directory offline")
	case d.blockRole:
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return d.Directory.ListActiveByRole(ctx, role)
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	engine   *Engine
	clock    *clock.Fake
	rules    []domain.EscalationRule
}

func newFixture(t *testing.T, dir Directory, opts Options) *fixture {
	t.Helper()
	store := staffStore()
	for _, r := range slaRules() {
		store.AddSLARule(r)
	}
	if dir == nil {
		dir = store
	}
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	if opts.AtRiskPercent == 0 {
		opts.AtRiskPercent = 80
	}
	f := &fixture{store: store, notifier: &recordingNotifier{}, clock: clock.NewFake(t0)}
	f.engine = NewEngine(Dependencies{
		Directory: dir,
		Ledger:    store,
		Locker:    lock.NewLocal(time.Minute),
		Notifier:  f.notifier,
		Clock:     f.clock,
		Logger:    zaptest.NewLogger(t),
	}, opts)
	f.rules = []domain.EscalationRule{
		roleRule(1, 1, domain.TriggerSLAAtRisk, "IT_Staff"),
		roleRule(2, 2, domain.TriggerSLABreached, "IT_Staff"),
	}
	return f
}

func (f *fixture) sweep(t *testing.T, ctx context.Context, at time.Duration) SweepReport {
	t.Helper()
	tickets, err := f.store.ListOpen(context.Background())
	require.NoError(t, err)
	f.clock.Set(t0.Add(at))
	return f.engine.Sweep(ctx, SweepInput{
		Tickets:  tickets,
		Rules:    f.rules,
		SLARules: slaRules(),
		Now:      t0.Add(at),
		Trigger:  TriggerPeriodic,
	})
}

func TestSweepAtRiskEscalatesToLevelOne(t *testing.T) {
	f := newFixture(t, nil, Options{Reassign: true})
	f.store.AddTicket(openTicket(100))

	report := f.sweep(t, context.Background(), 19*time.Hour+12*time.Minute)

	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Escalated)
	require.Len(t, report.Transitions, 1)
	tr := report.Transitions[0]
	assert.Equal(t, 0, tr.FromLevel)
	assert.Equal(t, 1, tr.ToLevel)
	assert.Equal(t, domain.EscalatedBySystem, tr.EscalatedBy)
	assert.Equal(t, int64(2), *tr.EscalatedToUserID)
	assert.True(t, strings.HasPrefix(tr.Reason, "sla_at_risk"))

	ticket, _ := f.store.Ticket(100)
	assert.Equal(t, 1, ticket.EscalationLevel)
	assert.Equal(t, int64(2), *ticket.AssigneeID)

	intents := f.notifier.all()
	require.Len(t, intents, 1)
	assert.Equal(t, domain.NotificationEscalation, intents[0].Type)
	assert.Equal(t, tr.ID, intents[0].HistoryID)
}

func TestSweepBreachMovesOneToTwo(t *testing.T) {
	f := newFixture(t, nil, Options{})
	ticket := openTicket(100)
	ticket.EscalationLevel = 1
	f.store.AddTicket(ticket)

	report := f.sweep(t, context.Background(), 25*time.Hour)

	require.Len(t, report.Transitions, 1)
	assert.Equal(t, 1, report.Transitions[0].FromLevel)
	assert.Equal(t, 2, report.Transitions[0].ToLevel)

	stored, _ := f.store.Ticket(100)
	assert.Nil(t, stored.AssigneeID, "reassignment disabled")
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.store.AddTicket(openTicket(100))

	first := f.sweep(t, context.Background(), 20*time.Hour)
	second := f.sweep(t, context.Background(), 20*time.Hour)

	assert.Equal(t, 1, first.Escalated)
	assert.Equal(t, 0, second.Escalated)
	assert.Len(t, f.store.History(), 1)
}

func TestSweepMovesOneStepAtATime(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.rules = []domain.EscalationRule{
		roleRule(2, 2, domain.TriggerSLABreached, "IT_Staff"),
		roleRule(3, 3, domain.TriggerSLABreached, "IT_Staff"),
		roleRule(4, 4, domain.TriggerSLABreached, "IT_Staff"),
	}
	ticket := openTicket(100)
	ticket.EscalationLevel = 1
	f.store.AddTicket(ticket)

	var levels []int
	for i := 0; i < 4; i++ {
		f.sweep(t, context.Background(), 30*time.Hour)
		stored, _ := f.store.Ticket(100)
		levels = append(levels, stored.EscalationLevel)
	}
	assert.Equal(t, []int{2, 3, 4, 4}, levels)

	for _, h := range f.store.History() {
		assert.Equal(t, h.FromLevel+1, h.ToLevel)
	}
}

func TestSweepLevelNeverDecreases(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.store.AddTicket(openTicket(100))

	prev := 0
	for _, at := range []time.Duration{time.Hour, 20 * time.Hour, 21 * time.Hour, 26 * time.Hour, 20 * time.Hour, 40 * time.Hour} {
		f.sweep(t, context.Background(), at)
		stored, _ := f.store.Ticket(100)
		assert.GreaterOrEqual(t, stored.EscalationLevel, prev)
		prev = stored.EscalationLevel
	}
	assert.Equal(t, 2, prev)
}

func TestSweepIsolatesTicketFailures(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.engine.resolver = NewResolver(flakyDirectory{Directory: f.store, failRole: "Network"})

	flaky := roleRule(9, 1, domain.TriggerSLAAtRisk, "Network")
	flaky.CategoryID = ptr(int64(2))
	plain := f.rules[0]
	plain.CategoryID = ptr(int64(1))
	f.rules = []domain.EscalationRule{plain, flaky}

	for id, category := range map[int64]int64{1: 1, 2: 2, 3: 1} {
		ticket := openTicket(id)
		ticket.CategoryID = ptr(category)
		f.store.AddTicket(ticket)
	}

	report := f.sweep(t, context.Background(), 20*time.Hour)

	assert.Equal(t, 3, report.Evaluated)
	assert.Equal(t, 2, report.Escalated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, int64(2), report.Errors[0].TicketID)
	assert.Equal(t, apperrors.CodeDependencyUnavailable, report.Errors[0].Code)
	assert.Equal(t, []int64{1, 3}, []int64{report.Transitions[0].TicketID, report.Transitions[1].TicketID})

	stored, _ := f.store.Ticket(2)
	assert.Zero(t, stored.EscalationLevel)
}

func TestSweepTicketTimeout(t *testing.T) {
	f := newFixture(t, nil, Options{TicketTimeout: 20 * time.Millisecond})
	f.engine.resolver = NewResolver(flakyDirectory{Directory: f.store, blockRole: "Slow"})
	f.rules = []domain.EscalationRule{roleRule(1, 1, domain.TriggerSLAAtRisk, "Slow")}
	f.store.AddTicket(openTicket(100))

	report := f.sweep(t, context.Background(), 20*time.Hour)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, apperrors.CodeTimeout, report.Errors[0].Code)
	assert.Empty(t, f.store.History())
}

func TestSweepStopsOnCancellation(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.store.AddTicket(openTicket(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := f.sweep(t, ctx, 20*time.Hour)

	assert.True(t, report.Cancelled)
	assert.Zero(t, report.Evaluated)
}

// cancellingDirectory cancels the sweep on its first lookup.
type cancellingDirectory struct {
	Directory
	once   sync.Once
	cancel context.CancelFunc
}

func (d *cancellingDirectory) ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error) {
	d.once.Do(d.cancel)
	return d.Directory.ListActiveByRole(ctx, role)
}

func TestSweepDoesNotStartQueuedTicketAfterCancellation(t *testing.T) {
	f := newFixture(t, nil, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.engine.resolver = NewResolver(&cancellingDirectory{Directory: f.store, cancel: cancel})
	for id := int64(100); id < 103; id++ {
		f.store.AddTicket(openTicket(id))
	}

	report := f.sweep(t, ctx, 20*time.Hour)

	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Escalated)
	assert.Len(t, f.store.History(), 1)
}

func TestConcurrentSweepsEscalateEachTicketOnce(t *testing.T) {
	f := newFixture(t, nil, Options{Workers: 4})
	for id := int64(1); id <= 40; id++ {
		f.store.AddTicket(openTicket(id))
	}

	var wg sync.WaitGroup
	reports := make([]SweepReport, 6)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets, err := f.store.ListOpen(context.Background())
			if err != nil {
				return
			}
			reports[i] = f.engine.Sweep(context.Background(), SweepInput{
				Tickets:  tickets,
				Rules:    f.rules,
				SLARules: slaRules(),
				Now:      t0.Add(20 * time.Hour),
				Trigger:  TriggerManual,
			})
		}()
	}
	wg.Wait()

	escalated := 0
	for _, r := range reports {
		assert.Empty(t, r.Errors)
		escalated += r.Escalated
	}
	assert.Equal(t, 40, escalated)

	history := f.store.History()
	require.Len(t, history, 40)
	seen := map[int64]bool{}
	for _, h := range history {
		assert.False(t, seen[h.TicketID], "ticket %d escalated twice", h.TicketID)
		seen[h.TicketID] = true
		assert.Equal(t, 1, h.ToLevel)
	}
}

func TestStaleSnapshotIsSkipped(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.store.AddTicket(openTicket(100))
	stale, err := f.store.ListOpen(context.Background())
	require.NoError(t, err)
	f.store.SetLevel(100, 1)

	report := f.engine.Sweep(context.Background(), SweepInput{
		Tickets:  stale,
		Rules:    f.rules,
		SLARules: slaRules(),
		Now:      t0.Add(20 * time.Hour),
		Trigger:  TriggerManual,
	})

	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, report.Errors)
	assert.Empty(t, f.store.History())
}

func TestLockedTicketIsSkipped(t *testing.T) {
	f := newFixture(t, nil, Options{})
	locker := lock.NewLocal(time.Minute)
	f.engine.locker = locker
	f.store.AddTicket(openTicket(100))

	unlock, ok, err := locker.Lock(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	outcome, err := f.engine.Process(context.Background(), openTicket(100), f.rules, slaRules(), t0.Add(20*time.Hour))
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
}

func TestNotifierFailureKeepsTransition(t *testing.T) {
	f := newFixture(t, nil, Options{})
	f.notifier.err = errors.New("sink down")
	f.store.AddTicket(openTicket(100))

	report := f.sweep(t, context.Background(), 20*time.Hour)

	assert.Equal(t, 1, report.Escalated)
	assert.Empty(t, report.Errors)
	stored, _ := f.store.Ticket(100)
	assert.Equal(t, 1, stored.EscalationLevel)
}

func TestMissingTargetRecordsUnassignedTransition(t *testing.T) {
	f := newFixture(t, nil, Options{Reassign: true})
	f.rules = []domain.EscalationRule{roleRule(7, 1, domain.TriggerSLAAtRisk, "Facilities")}
	f.store.AddTicket(openTicket(100))

	report := f.sweep(t, context.Background(), 20*time.Hour)

	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 1, report.Unassigned)
	require.Len(t, report.Transitions, 1)
	assert.Nil(t, report.Transitions[0].EscalatedToUserID)
	assert.True(t, strings.HasSuffix(report.Transitions[0].Reason, "target not found, left unassigned"))

	intents := f.notifier.all()
	require.Len(t, intents, 1)
	assert.Equal(t, domain.NotificationRuleMisconfigured, intents[0].Type)
}

func TestNotifyManagerAddsAdminFanout(t *testing.T) {
	f := newFixture(t, nil, Options{})
	rule := f.rules[0]
	rule.NotifyManager = true
	f.rules = []domain.EscalationRule{rule}
	f.store.AddTicket(openTicket(100))

	f.sweep(t, context.Background(), 20*time.Hour)

	intents := f.notifier.all()
	require.Len(t, intents, 2)
	assert.False(t, intents[0].NotifyManagerFanout)
	assert.True(t, intents[1].NotifyManagerFanout)
	assert.Equal(t, []int64{10, 20}, intents[1].RecipientUserIDs)
}

func TestManagerTargetSkipsDuplicateFanout(t *testing.T) {
	f := newFixture(t, nil, Options{})
	rule := f.rules[0]
	rule.Target = domain.Target{Type: domain.TargetManager}
	rule.NotifyManager = true
	f.rules = []domain.EscalationRule{rule}
	f.store.AddTicket(openTicket(100))

	f.sweep(t, context.Background(), 20*time.Hour)

	intents := f.notifier.all()
	require.Len(t, intents, 1)
	assert.False(t, intents[0].NotifyManagerFanout)
	assert.Equal(t, []int64{10, 20}, intents[0].RecipientUserIDs)
}

func TestInvalidRulesAreIgnored(t *testing.T) {
	f := newFixture(t, nil, Options{})
	broken := roleRule(50, 1, domain.TriggerNoAssignment, "IT_Staff")
	f.rules = []domain.EscalationRule{broken}
	f.store.AddTicket(openTicket(100))

	report := f.sweep(t, context.Background(), 20*time.Hour)

	assert.Equal(t, []int64{50}, report.InvalidRules)
	assert.Zero(t, report.Escalated)
}

func TestClosedTicketsAreNotEvaluated(t *testing.T) {
	f := newFixture(t, nil, Options{})
	closed := openTicket(100)
	closed.Status = domain.TicketStatusResolved

	report := f.engine.Sweep(context.Background(), SweepInput{
		Tickets:  []domain.Ticket{closed},
		Rules:    f.rules,
		SLARules: slaRules(),
		Now:      t0.Add(30 * time.Hour),
		Trigger:  TriggerManual,
	})
	assert.Zero(t, report.Evaluated)
}
