// Package fixtures reads YAML rule and ticket fixtures used to seed the
// in-memory store and to lint rule files from the CLI.
package fixtures

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-escalation/internal/api/dto"
	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/repository/memory"
)

// Fixture is the document layout of a seed file.
type Fixture struct {
	Staff           []Staff                     `yaml:"staff"`
	Tickets         []Ticket                    `yaml:"tickets"`
	SLARules        []SLARule                   `yaml:"sla_rules"`
	EscalationRules []dto.EscalationRuleRequest `yaml:"escalation_rules"`
}

// Staff is a staff directory row.
type Staff struct {
	ID     int64  `yaml:"id"`
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	Role   string `yaml:"role"`
	Active bool   `yaml:"active"`
}

// Ticket is a ticket row.
type Ticket struct {
	ID              int64      `yaml:"id"`
	Title           string     `yaml:"title"`
	Priority        string     `yaml:"priority"`
	Status          string     `yaml:"status"`
	CategoryID      *int64     `yaml:"category_id"`
	AssigneeID      *int64     `yaml:"assignee_id"`
	CreatedAt       time.Time  `yaml:"created_at"`
	LastResponseAt  *time.Time `yaml:"last_response_at"`
	EscalationLevel int        `yaml:"escalation_level"`
}

// SLARule is an SLA rule row.
type SLARule struct {
	ID                  int64     `yaml:"id"`
	Priority            string    `yaml:"priority"`
	ResponseTimeHours   float64   `yaml:"response_time_hours"`
	ResolutionTimeHours float64   `yaml:"resolution_time_hours"`
	IsActive            *bool     `yaml:"is_active"`
	CreatedAt           time.Time `yaml:"created_at"`
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes a fixture document.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Rules converts the escalation rules in file order.
func (f *Fixture) Rules() []domain.EscalationRule {
	rules := make([]domain.EscalationRule, 0, len(f.EscalationRules))
	for _, r := range f.EscalationRules {
		rules = append(rules, r.ToDomain())
	}
	return rules
}

// Seed loads every row into store.
func (f *Fixture) Seed(store *memory.Store) {
	for _, s := range f.Staff {
		store.AddStaff(domain.StaffMember{
			ID:     s.ID,
			Name:   s.Name,
			Email:  s.Email,
			Role:   domain.StaffRole(s.Role),
			Active: s.Active,
		})
	}
	for _, t := range f.Tickets {
		status := domain.TicketStatus(t.Status)
		if status == "" {
			status = domain.TicketStatusOpen
		}
		store.AddTicket(domain.Ticket{
			ID:              t.ID,
			Title:           t.Title,
			Priority:        domain.TicketPriority(t.Priority),
			Status:          status,
			CategoryID:      t.CategoryID,
			AssigneeID:      t.AssigneeID,
			CreatedAt:       t.CreatedAt.UTC(),
			LastResponseAt:  t.LastResponseAt,
			EscalationLevel: t.EscalationLevel,
		})
	}
	for _, r := range f.SLARules {
		store.AddSLARule(domain.SLARule{
			ID:                  r.ID,
			Priority:            domain.TicketPriority(r.Priority),
			ResponseTimeHours:   r.ResponseTimeHours,
			ResolutionTimeHours: r.ResolutionTimeHours,
			IsActive:            r.IsActive == nil || *r.IsActive,
			CreatedAt:           r.CreatedAt,
		})
	}
	for _, r := range f.Rules() {
		store.AddEscalationRule(r)
	}
}
