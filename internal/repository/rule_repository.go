package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// RuleRepository reads the active SLA and escalation rule sets. Rule CRUD
// belongs to the ticket application; this service only reads active rows.
type RuleRepository interface {
	ListActiveSLARules(ctx context.Context) ([]domain.SLARule, error)
	ListActiveEscalationRules(ctx context.Context) ([]domain.EscalationRule, error)
}

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository instantiates the repository.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

func (r *ruleRepository) ListActiveSLARules(ctx context.Context) ([]domain.SLARule, error) {
	const query = `
        SELECT id, priority, response_time_hours, resolution_time_hours, is_active, created_at
        FROM sla_rules WHERE is_active = TRUE
        ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLARule
	for rows.Next() {
		var (
			rule     domain.SLARule
			priority string
		)
		if err := rows.Scan(
			&rule.ID,
			&priority,
			&rule.ResponseTimeHours,
			&rule.ResolutionTimeHours,
			&rule.IsActive,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}
		rule.Priority = domain.TicketPriority(priority)
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *ruleRepository) ListActiveEscalationRules(ctx context.Context) ([]domain.EscalationRule, error) {
	const query = `
        SELECT id, name, description, priority, category_id, trigger_type, trigger_hours,
               escalation_level, target_type, target_role, target_user_id, notify_manager, is_active, created_at
        FROM escalation_rules WHERE is_active = TRUE
        ORDER BY escalation_level ASC, id ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationRule
	for rows.Next() {
		rule, err := scanEscalationRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func scanEscalationRule(row pgx.Row) (domain.EscalationRule, error) {
	var (
		rule        domain.EscalationRule
		priority    *string
		triggerType string
		targetType  string
	)
	if err := row.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&priority,
		&rule.CategoryID,
		&triggerType,
		&rule.TriggerHours,
		&rule.EscalationLevel,
		&targetType,
		&rule.Target.Role,
		&rule.Target.UserID,
		&rule.NotifyManager,
		&rule.IsActive,
		&rule.CreatedAt,
	); err != nil {
		return domain.EscalationRule{}, err
	}
	if priority != nil {
		p := domain.TicketPriority(*priority)
		rule.Priority = &p
	}
	rule.TriggerType = domain.TriggerType(triggerType)
	rule.Target.Type = domain.TargetType(targetType)
	return rule, nil
}
