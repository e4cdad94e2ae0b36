package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/spec-kit/ticket-escalation/internal/api/dto"
	"github.com/spec-kit/ticket-escalation/internal/service"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// EscalationHandler serves sweep, ledger and SLA endpoints.
type EscalationHandler struct {
	service  *service.EscalationService
	limiter  *rate.Limiter
	pageSize int
}

// NewEscalationHandler constructs handler. checkNowPerMinute bounds manual
// sweeps; zero or less disables the limit.
func NewEscalationHandler(escalationService *service.EscalationService, checkNowPerMinute, pageSize int) *EscalationHandler {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if checkNowPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(checkNowPerMinute)/60), checkNowPerMinute)
	}
	return &EscalationHandler{service: escalationService, limiter: limiter, pageSize: pageSize}
}

// CheckNow POST /escalation/check-now.
func (h *EscalationHandler) CheckNow(c *fiber.Ctx) error {
	if !h.limiter.Allow() {
		return apperrors.NewTooManyRequests("manual sweep rate limit exceeded")
	}
	report, err := h.service.CheckNow(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepReport(report)})
}

// ListHistory GET /escalation/history.
func (h *EscalationHandler) ListHistory(c *fiber.Ctx) error {
	query, err := h.parseHistoryQuery(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListHistory(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryPage{Items: dto.History(items), Page: query.Page, PageSize: query.PageSize}})
}

// TicketHistory GET /escalation/tickets/:id/history.
func (h *EscalationHandler) TicketHistory(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), h.pageSize)
	items, err := h.service.TicketHistory(c.UserContext(), id, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryPage{Items: dto.History(items), Page: page, PageSize: pageSize}})
}

// TicketSLA GET /escalation/tickets/:id/sla.
func (h *EscalationHandler) TicketSLA(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.service.SLAStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketSLA(view)})
}

// ResetLevel POST /escalation/tickets/:id/reset.
func (h *EscalationHandler) ResetLevel(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.ResetLevel(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketLevelResponse{TicketID: ticket.ID, EscalationLevel: ticket.EscalationLevel}})
}

// ValidateRule POST /escalation/rules/validate.
func (h *EscalationHandler) ValidateRule(c *fiber.Ctx) error {
	var req dto.EscalationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.ValidateRule(req.ToDomain()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RuleValidationResponse{Valid: true}})
}

func (h *EscalationHandler) parseHistoryQuery(c *fiber.Ctx) (service.HistoryQuery, error) {
	query := service.HistoryQuery{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), h.pageSize),
	}
	invalid := map[string]any{}
	var err error
	if query.TicketID, err = parseID(c.Query("ticket_id")); err != nil {
		invalid["ticket_id"] = c.Query("ticket_id")
	}
	if query.RuleID, err = parseID(c.Query("rule_id")); err != nil {
		invalid["rule_id"] = c.Query("rule_id")
	}
	if query.UserID, err = parseID(c.Query("user_id")); err != nil {
		invalid["user_id"] = c.Query("user_id")
	}
	if query.From, err = parseTime(c.Query("from")); err != nil {
		invalid["from"] = c.Query("from")
	}
	if query.To, err = parseTime(c.Query("to")); err != nil {
		invalid["to"] = c.Query("to")
	}
	if len(invalid) > 0 {
		return service.HistoryQuery{}, apperrors.NewValidationError("invalid query parameters", invalid)
	}
	return query, nil
}
