package listener

import (
	"sync"
	"time"
)

// CooldownGate suppresses repeated notifications within a configured
// interval. The loop is single-threaded, but the state is mutex-guarded so
// the at-most-one-notification-per-interval invariant survives if capture is
// ever parallelized.
type CooldownGate struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewCooldownGate creates a gate with the given minimum interval between
// notifications.
func NewCooldownGate(interval time.Duration) *CooldownGate {
	return &CooldownGate{interval: interval}
}

// Allow reports whether a notification may fire at the given time: true if
// none has ever fired, or the interval has fully elapsed since the last one.
func (g *CooldownGate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last.IsZero() {
		return true
	}
	return now.Sub(g.last) >= g.interval
}

// Record marks a notification as fired at the given time.
func (g *CooldownGate) Record(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = now
}
