package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ticket-escalation/internal/api/http/handlers"
	"github.com/spec-kit/ticket-escalation/internal/clock"
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/events"
	"github.com/spec-kit/ticket-escalation/internal/lock"
	"github.com/spec-kit/ticket-escalation/internal/repository/memory"
	"github.com/spec-kit/ticket-escalation/internal/service"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return context.DeadlineExceeded }

func newTestApp(t *testing.T, checkNowPerMinute int) (*fiber.App, *memory.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	role := string(domain.StaffRoleITStaff)
	store.AddStaff(domain.StaffMember{ID: 2, Name: "B", Role: domain.StaffRoleITStaff, Active: true})
	store.AddSLARule(domain.SLARule{ID: 1, Priority: domain.TicketPriorityHigh, ResponseTimeHours: 4, ResolutionTimeHours: 24, IsActive: true})
	store.AddEscalationRule(domain.EscalationRule{
		ID: 1, Name: "at risk", TriggerType: domain.TriggerSLAAtRisk, EscalationLevel: 1,
		Target: domain.Target{Type: domain.TargetRole, Role: &role}, IsActive: true,
	})
	store.AddTicket(domain.Ticket{ID: 100, Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusOpen, CreatedAt: t0})

	fake := clock.NewFake(t0.Add(20 * time.Hour))
	dispatcher := events.NewInMemoryDispatcher()
	engine := escalation.NewEngine(escalation.Dependencies{
		Directory: store,
		Ledger:    store,
		Locker:    lock.NewLocal(time.Minute),
		Notifier:  service.NewDispatchNotifier(dispatcher),
		Clock:     fake,
		Logger:    logger,
	}, escalation.Options{AtRiskPercent: 80, Workers: 2, TicketTimeout: time.Second})
	svc := service.NewEscalationService(service.EscalationDependencies{
		TicketRepo:    store,
		RuleRepo:      store,
		HistoryRepo:   store,
		Engine:        engine,
		Dispatcher:    dispatcher,
		Clock:         fake,
		Logger:        logger,
		AtRiskPercent: 80,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:     handlers.NewHealthHandler("ticket-escalation", "test", map[string]handlers.Pinger{}, nil),
		Escalation: handlers.NewEscalationHandler(svc, checkNowPerMinute, 50),
	})
	return app, store
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &payload))
	}
	return resp.StatusCode, payload
}

func TestCheckNowReturnsReport(t *testing.T) {
	app, store := newTestApp(t, 0)

	status, body := do(t, app, fiber.MethodPost, "/escalation/check-now", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "manual", data["trigger"])
	assert.Equal(t, float64(1), data["escalated"])

	ticket, _ := store.Ticket(100)
	assert.Equal(t, 1, ticket.EscalationLevel)
}

func TestCheckNowIsRateLimited(t *testing.T) {
	app, _ := newTestApp(t, 1)

	status, _ := do(t, app, fiber.MethodPost, "/escalation/check-now", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, body := do(t, app, fiber.MethodPost, "/escalation/check-now", "")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["error"].(map[string]any)["code"])
}

func TestHistoryEndpoints(t *testing.T) {
	app, _ := newTestApp(t, 0)
	do(t, app, fiber.MethodPost, "/escalation/check-now", "")

	status, body := do(t, app, fiber.MethodGet, "/escalation/history?ticket_id=100", "")
	require.Equal(t, fiber.StatusOK, status)
	items := body["data"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	entry := items[0].(map[string]any)
	assert.Equal(t, float64(0), entry["from_level"])
	assert.Equal(t, float64(1), entry["to_level"])
	assert.Equal(t, "system", entry["escalated_by"])

	status, body = do(t, app, fiber.MethodGet, "/escalation/tickets/100/history", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].(map[string]any)["items"], 1)

	status, _ = do(t, app, fiber.MethodGet, "/escalation/tickets/999/history", "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = do(t, app, fiber.MethodGet, "/escalation/history?from=yesterday", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]any)["code"])
}

func TestTicketSLAAndReset(t *testing.T) {
	app, store := newTestApp(t, 0)
	store.SetLevel(100, 3)

	status, body := do(t, app, fiber.MethodGet, "/escalation/tickets/100/sla", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["at_risk"])
	assert.Equal(t, false, data["breached"])

	status, body = do(t, app, fiber.MethodPost, "/escalation/tickets/100/reset", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(0), body["data"].(map[string]any)["escalation_level"])

	status, _ = do(t, app, fiber.MethodGet, "/escalation/tickets/abc/sla", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestValidateRule(t *testing.T) {
	app, _ := newTestApp(t, 0)

	status, _ := do(t, app, fiber.MethodPost, "/escalation/rules/validate",
		`{"name":"stale","trigger_type":"no_response","trigger_hours":4,"escalation_level":1,"target_type":"role","target_role":"IT_Staff"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, fiber.MethodPost, "/escalation/rules/validate",
		`{"name":"stale","trigger_type":"no_response","escalation_level":1,"target_type":"user"}`)
	require.Equal(t, fiber.StatusBadRequest, status)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "CONFIG_ERROR", errBody["code"])
	fields := errBody["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "triggerHours")
	assert.Contains(t, fields, "targetUserId")
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newTestApp(t, 0)

	status, body := do(t, app, fiber.MethodGet, "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	status, _ = do(t, app, fiber.MethodGet, "/nope", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := handlers.NewHealthHandler("svc", "v", map[string]handlers.Pinger{"postgres": downPinger{}}, nil)
	app := fiber.New()
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
