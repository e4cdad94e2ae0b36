// Package lock provides short-lived per-ticket mutual exclusion markers.
package lock

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Local is an in-process locker used when Redis is not configured.
type Local struct {
	mu    sync.Mutex
	held  map[int64]time.Time
	ttl   time.Duration
	nowFn func() time.Time
}

// NewLocal returns a Local locker whose markers expire after ttl.
func NewLocal(ttl time.Duration) *Local {
	return &Local{held: make(map[int64]time.Time), ttl: ttl, nowFn: time.Now}
}

// Lock marks ticketID as owned until unlock is called or the ttl lapses.
func (l *Local) Lock(_ context.Context, ticketID int64) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if expires, ok := l.held[ticketID]; ok && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(l.ttl)
	l.held[ticketID] = expires

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[ticketID] == expires {
				delete(l.held, ticketID)
			}
		})
	}, true, nil
}

func key(prefix string, ticketID int64) string {
	return prefix + strconv.FormatInt(ticketID, 10)
}
