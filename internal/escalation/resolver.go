package escalation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// Directory is the staff directory consulted for escalation recipients.
type Directory interface {
	// ListActiveByRole returns active staff holding role with their open ticket counts.
	ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error)
	// LookupStaff returns the staff member with id; ok is false when unknown.
	LookupStaff(ctx context.Context, id int64) (member domain.StaffMember, ok bool, err error)
}

// Resolution is the concrete recipient of an escalation.
type Resolution struct {
	UserID     *int64
	Role       *string
	Recipients []int64
	// Reassign reports whether ticket ownership may move to UserID.
	Reassign bool
}

// Resolver turns a rule target into recipients.
type Resolver struct {
	directory Directory
}

// NewResolver builds a resolver backed by directory.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve dispatches on the rule's target type.
func (r *Resolver) Resolve(ctx context.Context, rule domain.EscalationRule, ticket domain.Ticket) (Resolution, error) {
	switch rule.Target.Type {
	case domain.TargetUser:
		return r.resolveUser(ctx, rule)
	case domain.TargetRole:
		return r.resolveRole(ctx, rule)
	case domain.TargetManager:
		return r.resolveManagers(ctx)
	default:
		return Resolution{}, apperrors.NewConfigError("unknown target type", map[string]any{
			"rule_id":     rule.ID,
			"target_type": rule.Target.Type,
		})
	}
}

func (r *Resolver) resolveUser(ctx context.Context, rule domain.EscalationRule) (Resolution, error) {
	if rule.Target.UserID == nil {
		return Resolution{}, apperrors.NewConfigError("user target requires target user id", map[string]any{"rule_id": rule.ID})
	}
	userID := *rule.Target.UserID
	member, ok, err := r.directory.LookupStaff(ctx, userID)
	if err != nil {
		return Resolution{}, unavailable(err)
	}
	if !ok || !member.Active {
		return Resolution{}, apperrors.NewTargetNotFound("target user not found or inactive", map[string]any{
			"rule_id": rule.ID,
			"user_id": userID,
		})
	}
	return Resolution{UserID: &member.ID, Recipients: []int64{member.ID}, Reassign: true}, nil
}

func (r *Resolver) resolveRole(ctx context.Context, rule domain.EscalationRule) (Resolution, error) {
	if rule.Target.Role == nil || *rule.Target.Role == "" {
		return Resolution{}, apperrors.NewConfigError("role target requires target role", map[string]any{"rule_id": rule.ID})
	}
	role := *rule.Target.Role
	candidates, err := r.directory.ListActiveByRole(ctx, domain.StaffRole(role))
	if err != nil {
		return Resolution{}, unavailable(err)
	}
	chosen, ok := LeastLoaded(candidates)
	if !ok {
		return Resolution{}, apperrors.NewTargetNotFound("no active staff hold target role", map[string]any{
			"rule_id": rule.ID,
			"role":    role,
		})
	}
	return Resolution{UserID: &chosen.ID, Role: &role, Recipients: []int64{chosen.ID}, Reassign: true}, nil
}

func (r *Resolver) resolveManagers(ctx context.Context) (Resolution, error) {
	admins, err := r.Admins(ctx)
	if err != nil {
		return Resolution{}, err
	}
	role := string(domain.StaffRoleAdmin)
	if len(admins) == 0 {
		return Resolution{Role: &role}, apperrors.NewTargetNotFound("no active admins", map[string]any{"role": role})
	}
	return Resolution{Role: &role, Recipients: admins}, nil
}

// Admins returns the ids of all active Admin users in ascending order.
func (r *Resolver) Admins(ctx context.Context) ([]int64, error) {
	members, err := r.directory.ListActiveByRole(ctx, domain.StaffRoleAdmin)
	if err != nil {
		return nil, unavailable(err)
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m.Active {
			ids = append(ids, m.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// LeastLoaded picks the active member with the fewest open tickets, breaking
// ties by lowest id.
func LeastLoaded(candidates []domain.StaffMember) (domain.StaffMember, bool) {
	var (
		best  domain.StaffMember
		found bool
	)
	for _, c := range candidates {
		if !c.Active {
			continue
		}
		if !found || c.OpenTickets < best.OpenTickets || (c.OpenTickets == best.OpenTickets && c.ID < best.ID) {
			best, found = c, true
		}
	}
	return best, found
}

func unavailable(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("staff directory: %w", err)
	}
	return wrapUnavailable("staff directory", err)
}
