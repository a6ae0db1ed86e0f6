package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// KeyLimiter rate-limits per key (client address, account, ...).
type KeyLimiter struct {
	mu  sync.Mutex
	m   map[string]*entry
	r   rate.Limit
	b   int
	now func() time.Time
}

func NewKeyLimiter(reqPerSec float64, burst int) *KeyLimiter {
	return &KeyLimiter{
		m:   make(map[string]*entry),
		r:   rate.Limit(reqPerSec),
		b:   burst,
		now: time.Now,
	}
}

func (kl *KeyLimiter) limiterFor(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if e, ok := kl.m[key]; ok {
		e.lastSeen = kl.now()
		return e.lim
	}
	lim := rate.NewLimiter(kl.r, kl.b)
	kl.m[key] = &entry{lim: lim, lastSeen: kl.now()}
	return lim
}

func (kl *KeyLimiter) Allow(key string) bool {
	return kl.limiterFor(key).Allow()
}

// Sweep forgets keys idle for longer than idle and returns how many
// were dropped.
func (kl *KeyLimiter) Sweep(idle time.Duration) int {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	cutoff := kl.now().Add(-idle)
	n := 0
	for k, e := range kl.m {
		if e.lastSeen.Before(cutoff) {
			delete(kl.m, k)
			n++
		}
	}
	return n
}

func (kl *KeyLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.m)
}
