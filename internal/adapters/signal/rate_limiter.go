package signal

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RoomRateLimiter budgets create/join attempts per client address: limit
// attempts per interval, refilled evenly.
type RoomRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     int
	interval  time.Duration
	lastSweep time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		interval: interval,
	}
}

func (rl *RoomRateLimiter) Allow(key string) bool {
	return rl.allowAt(key, time.Now())
}

func (rl *RoomRateLimiter) allowAt(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.interval {
		rl.evict(now)
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		every := rl.interval / time.Duration(rl.limit)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), rl.limit)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evict forgets visitors idle long enough for their bucket to be full again.
func (rl *RoomRateLimiter) evict(now time.Time) {
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.interval {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RoomRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
