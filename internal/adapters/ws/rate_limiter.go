package ws

import (
	"sync"
	"time"

	"github.com/modoostudy/roomserver/internal/domain"
)

// JoinRateLimiter caps join-room attempts per connection over a sliding
// window, so a misbehaving client cannot churn the registry.
type JoinRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnID][]time.Time
	limit    int
	interval time.Duration
}

func NewJoinRateLimiter(limit int, interval time.Duration) *JoinRateLimiter {
	return &JoinRateLimiter{
		history:  make(map[domain.ConnID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *JoinRateLimiter) Allow(cid domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[cid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[cid] = fresh
		return false
	}
	fresh = append(fresh, now)
	rl.history[cid] = fresh
	return true
}

// Forget drops a connection's history once it disconnects.
func (rl *JoinRateLimiter) Forget(cid domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, cid)
}
