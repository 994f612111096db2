package settlement

import (
	"sync"
	"time"
)

// NudgeReason says why staff are nudging the guests on a tab.
type NudgeReason string

const (
	// NudgeUnclaimed asks guests to claim the remaining items.
	NudgeUnclaimed NudgeReason = "UNCLAIMED"

	// NudgeUnpaid asks guests to settle what they owe the host.
	NudgeUnpaid NudgeReason = "UNPAID"
)

// Valid reports whether the reason is one of the known nudge reasons.
func (r NudgeReason) Valid() bool {
	return r == NudgeUnclaimed || r == NudgeUnpaid
}

// DefaultNudgeCooldown is the interval during which repeat nudges to the
// same tab are rejected.
const DefaultNudgeCooldown = 30 * time.Second

// NudgeLimiter enforces the per-tab nudge cooldown. This is advisory UX
// state, not a settlement invariant, but staff tooling depends on its
// timing contract. Safe for concurrent use.
type NudgeLimiter struct {
	mu       sync.Mutex
	cooldown time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewNudgeLimiter creates a limiter with the given cooldown interval.
func NewNudgeLimiter(cooldown time.Duration) *NudgeLimiter {
	return &NudgeLimiter{
		cooldown: cooldown,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow records a nudge to the given tab, or returns ErrCooldown if the
// previous nudge was inside the cooldown interval.
func (l *NudgeLimiter) Allow(tabID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[tabID]; ok && now.Sub(last) < l.cooldown {
		return ErrCooldown
	}
	l.last[tabID] = now
	return nil
}

// Remaining reports how long until the tab can be nudged again. Zero means
// a nudge is allowed now.
func (l *NudgeLimiter) Remaining(tabID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[tabID]
	if !ok {
		return 0
	}
	return max(0, l.cooldown-l.now().Sub(last))
}
