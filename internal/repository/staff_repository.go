package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-escalation/internal/domain"
)

// StaffRepository is the staff directory: active users by role with their
// current open-ticket workload.
type StaffRepository interface {
	ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error)
	LookupStaff(ctx context.Context, id int64) (domain.StaffMember, bool, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffWorkloadSelect = `
        SELECT s.id, s.name, s.email, s.role, s.active_flag,
               COUNT(t.id) FILTER (WHERE t.status NOT IN ('Resolved', 'Closed')) AS open_tickets
        FROM staff_members s
        LEFT JOIN tickets t ON t.assignee_id = s.id`

func (r *staffRepository) ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error) {
	query := staffWorkloadSelect + `
        WHERE s.role=$1 AND s.active_flag = TRUE
        GROUP BY s.id
        ORDER BY open_tickets ASC, s.id ASC`
	rows, err := r.pool.Query(ctx, query, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}

func (r *staffRepository) LookupStaff(ctx context.Context, id int64) (domain.StaffMember, bool, error) {
	query := staffWorkloadSelect + `
        WHERE s.id=$1
        GROUP BY s.id`
	staff, err := scanStaff(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StaffMember{}, false, nil
	}
	if err != nil {
		return domain.StaffMember{}, false, err
	}
	return staff, true, nil
}

func scanStaff(row pgx.Row) (domain.StaffMember, error) {
	var (
		staff domain.StaffMember
		role  string
	)
	if err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&role,
		&staff.Active,
		&staff.OpenTickets,
	); err != nil {
		return domain.StaffMember{}, err
	}
	staff.Role = domain.StaffRole(role)
	return staff, nil
}
