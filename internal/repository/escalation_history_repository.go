package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// HistoryFilter narrows escalation history queries. UserID matches the
// escalated-to user.
type HistoryFilter struct {
	TicketID *int64
	RuleID   *int64
	UserID   *int64
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// EscalationHistoryRepository is the append-only escalation ledger.
type EscalationHistoryRepository interface {
	// Commit inserts entry and advances the ticket level with a
	// compare-and-set on entry.FromLevel inside one transaction.
	Commit(ctx context.Context, entry *domain.EscalationHistory, reassignTo *int64) error
	List(ctx context.Context, filter HistoryFilter) ([]domain.EscalationHistory, error)
}

type escalationHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationHistoryRepository builds repository.
func NewEscalationHistoryRepository(pool *pgxpool.Pool) EscalationHistoryRepository {
	return &escalationHistoryRepository{pool: pool}
}

func (r *escalationHistoryRepository) Commit(ctx context.Context, entry *domain.EscalationHistory, reassignTo *int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO escalation_history (ticket_id, rule_id, from_level, to_level, escalated_by,
            escalated_to_user_id, escalated_to_role, reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,COALESCE($9::timestamptz, NOW()))
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		entry.TicketID,
		entry.RuleID,
		entry.FromLevel,
		entry.ToLevel,
		entry.EscalatedBy,
		entry.EscalatedToUserID,
		entry.EscalatedToRole,
		entry.Reason,
		createdAtArg(entry.CreatedAt),
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return err
	}

	const advance = `
        UPDATE tickets SET escalation_level=$1, assignee_id=COALESCE($2, assignee_id), updated_at=NOW()
        WHERE id=$3 AND escalation_level=$4 AND status NOT IN ('Resolved', 'Closed')`
	cmd, err := tx.Exec(ctx, advance, entry.ToLevel, reassignTo, entry.TicketID, entry.FromLevel)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewConcurrentModification(map[string]any{
			"ticket_id":      entry.TicketID,
			"expected_level": entry.FromLevel,
		})
	}
	return tx.Commit(ctx)
}

func (r *escalationHistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]domain.EscalationHistory, error) {
	base := `SELECT id, ticket_id, rule_id, from_level, to_level, escalated_by,
                    escalated_to_user_id, escalated_to_role, reason, created_at
             FROM escalation_history`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if filter.RuleID != nil {
		args = append(args, *filter.RuleID)
		clauses = append(clauses, fmt.Sprintf("rule_id=$%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("escalated_to_user_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationHistory
	for rows.Next() {
		var history domain.EscalationHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.RuleID,
			&history.FromLevel,
			&history.ToLevel,
			&history.EscalatedBy,
			&history.EscalatedToUserID,
			&history.EscalatedToRole,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

// createdAtArg keeps the sweep's clock on the ledger row; a zero time lets the
// database stamp it.
func createdAtArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// NormalizePage applies the default page size and clamps negatives.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
