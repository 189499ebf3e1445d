// Package ratelimit enforces a minimum interval between console commands
// issued by the same identity.
package ratelimit

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultCooldown is the minimum spacing between two accepted commands from
// one identity.
const DefaultCooldown = time.Second

// Limiter tracks one token bucket per identity. Buckets hold a single token
// that refills once per cooldown, so at most one command is accepted per
// rolling cooldown window. Identities never share a bucket.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	cooldown time.Duration
	now      func() time.Time
}

// New creates a limiter with the given cooldown. A non-positive cooldown
// disables limiting.
func New(cooldown time.Duration) *Limiter {
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	} else {
		cooldown = 0
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// Allow reports whether identity may issue a command now. A rejected call
// leaves the identity's state untouched.
func (l *Limiter) Allow(identity string) bool {
	key := strings.ToLower(identity)

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, 1)
		l.limiters[key] = lim
	}
	return lim.AllowN(l.now(), 1)
}

// Cooldown returns the configured interval, zero when limiting is disabled.
func (l *Limiter) Cooldown() time.Duration {
	return l.cooldown
}

// Tracked returns the number of identities seen so far.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
