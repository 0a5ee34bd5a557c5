package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type timedLimiter struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// Keyed is a token bucket per key (a phone number, a client ip) held in memory
type Keyed struct {
	mu       sync.RWMutex
	limiters map[string]*timedLimiter
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// New allows burst events at once per key, refilling one every interval
func New(interval time.Duration, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*timedLimiter),
		limit:    rate.Every(interval),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow takes a token for key; false means the key is over its rate
func (k *Keyed) Allow(key string) bool {
	return k.get(key).AllowN(k.now(), 1)
}

func (k *Keyed) get(key string) *rate.Limiter {
	now := k.now().UnixNano()

	k.mu.RLock()
	if tl, ok := k.limiters[key]; ok {
		tl.lastUsed.Store(now)
		lim := tl.limiter
		k.mu.RUnlock()
		return lim
	}
	k.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if tl, ok := k.limiters[key]; ok {
		tl.lastUsed.Store(now)
		return tl.limiter
	}

	tl := &timedLimiter{limiter: rate.NewLimiter(k.limit, k.burst)}
	tl.lastUsed.Store(now)
	k.limiters[key] = tl
	return tl.limiter
}

// Prune forgets keys unused for longer than idle; a forgotten key starts again with a full bucket
func (k *Keyed) Prune(idle time.Duration) int {
	cutoff := k.now().Add(-idle).UnixNano()

	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for key, tl := range k.limiters {
		if tl.lastUsed.Load() < cutoff {
			delete(k.limiters, key)
			n++
		}
	}
	return n
}

func (k *Keyed) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.limiters)
}
