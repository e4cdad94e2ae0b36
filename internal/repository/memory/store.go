// Package memory is an in-process implementation of the repository
// interfaces. It backs the service when no Postgres DSN is configured and is
// the store used by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/repository"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// Store keeps tickets, staff, rules and the escalation ledger in memory.
type Store struct {
	mu       sync.RWMutex
	tickets  map[int64]domain.Ticket
	staff    map[int64]domain.StaffMember
	slaRules []domain.SLARule
	rules    []domain.EscalationRule
	history  []domain.EscalationHistory
	nextID   int64
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tickets: make(map[int64]domain.Ticket),
		staff:   make(map[int64]domain.StaffMember),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ repository.TicketRepository            = (*Store)(nil)
	_ repository.StaffRepository             = (*Store)(nil)
	_ repository.RuleRepository              = (*Store)(nil)
	_ repository.EscalationHistoryRepository = (*Store)(nil)
)

// AddTicket inserts or replaces a ticket.
func (s *Store) AddTicket(t domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ID] = t
}

// AddStaff inserts or replaces a staff member. OpenTickets is derived from
// the stored tickets plus the value given here as a baseline.
func (s *Store) AddStaff(m domain.StaffMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staff[m.ID] = m
}

// AddSLARule appends an SLA rule.
func (s *Store) AddSLARule(r domain.SLARule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slaRules = append(s.slaRules, r)
}

// AddEscalationRule appends an escalation rule.
func (s *Store) AddEscalationRule(r domain.EscalationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
}

// Ticket returns a snapshot of the stored ticket.
func (s *Store) Ticket(id int64) (domain.Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	return t, ok
}

// SetLevel overwrites a ticket level, simulating a concurrent writer.
func (s *Store) SetLevel(id int64, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tickets[id]; ok {
		t.EscalationLevel = level
		s.tickets[id] = t
	}
}

// History returns every ledger entry in insertion order.
func (s *Store) History() []domain.EscalationHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.EscalationHistory(nil), s.history...)
}

func (s *Store) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if t.IsOpen() {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (s *Store) ResetEscalation(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	t.EscalationLevel = 0
	s.tickets[id] = t
	return nil
}

func (s *Store) ListActiveByRole(ctx context.Context, role domain.StaffRole) ([]domain.StaffMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.StaffMember
	for _, m := range s.staff {
		if m.Active && m.Role == role {
			result = append(result, s.withWorkload(m))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenTickets != result[j].OpenTickets {
			return result[i].OpenTickets < result[j].OpenTickets
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) LookupStaff(ctx context.Context, id int64) (domain.StaffMember, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.StaffMember{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.staff[id]
	if !ok {
		return domain.StaffMember{}, false, nil
	}
	return s.withWorkload(m), true, nil
}

// withWorkload adds open tickets assigned in the store. Caller holds mu.
func (s *Store) withWorkload(m domain.StaffMember) domain.StaffMember {
	for _, t := range s.tickets {
		if t.AssigneeID != nil && *t.AssigneeID == m.ID && t.IsOpen() {
			m.OpenTickets++
		}
	}
	return m
}

func (s *Store) ListActiveSLARules(context.Context) ([]domain.SLARule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.SLARule
	for _, r := range s.slaRules {
		if r.IsActive {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *Store) ListActiveEscalationRules(context.Context) ([]domain.EscalationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.EscalationRule
	for _, r := range s.rules {
		if r.IsActive {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].EscalationLevel != result[j].EscalationLevel {
			return result[i].EscalationLevel < result[j].EscalationLevel
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Commit appends entry and advances the ticket under one lock, mirroring the
// compare-and-set of the Postgres ledger.
func (s *Store) Commit(ctx context.Context, entry *domain.EscalationHistory, reassignTo *int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[entry.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	if t.EscalationLevel != entry.FromLevel || !t.IsOpen() {
		return apperrors.NewConcurrentModification(map[string]any{
			"ticket_id":      entry.TicketID,
			"expected_level": entry.FromLevel,
			"actual_level":   t.EscalationLevel,
		})
	}

	s.nextID++
	entry.ID = s.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.history = append(s.history, *entry)

	t.EscalationLevel = entry.ToLevel
	if reassignTo != nil {
		id := *reassignTo
		t.AssigneeID = &id
	}
	s.tickets[t.ID] = t
	return nil
}

func (s *Store) List(_ context.Context, filter repository.HistoryFilter) ([]domain.EscalationHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.EscalationHistory
	for _, h := range s.history {
		if filter.TicketID != nil && h.TicketID != *filter.TicketID {
			continue
		}
		if filter.RuleID != nil && (h.RuleID == nil || *h.RuleID != *filter.RuleID) {
			continue
		}
		if filter.UserID != nil && (h.EscalatedToUserID == nil || *h.EscalatedToUserID != *filter.UserID) {
			continue
		}
		if filter.From != nil && h.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && h.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, h)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	limit, offset := repository.NormalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return []domain.EscalationHistory{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
