package security

import (
	"sync"
	"time"
)

// RateLimiter implements a simple token bucket rate limiter keyed by
// client address.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.RWMutex
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens     int
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// rate: number of requests allowed per window
// window: time window for rate limiting
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanupVisitors()
	return rl
}

// Allow checks if a request from an address should be allowed
func (rl *RateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[addr]
	if !exists {
		v = &visitor{
			tokens:     rl.rate,
			lastRefill: time.Now(),
		}
		rl.visitors[addr] = v
	}
	rl.mu.Unlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Refill tokens based on time passed
	now := time.Now()
	if now.Sub(v.lastRefill) >= rl.window {
		v.tokens = rl.rate
		v.lastRefill = now
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// cleanupVisitors periodically drops visitors that have gone quiet
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for addr, v := range rl.visitors {
			v.mu.Lock()
			stale := time.Since(v.lastRefill) > 3*rl.window
			v.mu.Unlock()
			if stale {
				delete(rl.visitors, addr)
			}
		}
		rl.mu.Unlock()
	}
}
