package domain

import (
	"math"
	"time"
)

// SLARule defines response and resolution windows for a priority.
type SLARule struct {
	ID                  int64
	Priority            TicketPriority
	ResponseTimeHours   float64
	ResolutionTimeHours float64
	IsActive            bool
	CreatedAt           time.Time
}

// ResponseWindow returns the response window as a duration.
func (r SLARule) ResponseWindow() time.Duration {
	return hours(r.ResponseTimeHours)
}

// ResolutionWindow returns the resolution window as a duration.
func (r SLARule) ResolutionWindow() time.Duration {
	return hours(r.ResolutionTimeHours)
}

// hours saturates at the largest Duration instead of wrapping negative.
func hours(h float64) time.Duration {
	d := h * float64(time.Hour)
	if d >= math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(d)
}
