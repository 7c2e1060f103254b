package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Visitors idle past visitorTTL are dropped by an inline sweep on the
// next request, so no background goroutine is needed per limiter.
const visitorTTL = 10 * time.Minute

type rateLimiter struct {
	visitors  map[string]*visitor
	lastSweep time.Time
	mutex     sync.Mutex
}

type visitor struct {
	limiter  *tokenBucket
	lastSeen time.Time
}

type tokenBucket struct {
	tokens     int
	capacity   int
	refillRate int
	lastRefill time.Time
	mutex      sync.Mutex
}

// RateLimit allows requestsPerMinute per client IP. Limiter state lives in
// the closure, not in a package variable, so separate routers (tests) get
// separate limiters.
func RateLimit(requestsPerMinute int) gin.HandlerFunc {
	limiter := &rateLimiter{
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), requestsPerMinute) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *rateLimiter) allow(ip string, requestsPerMinute int) bool {
	rl.mutex.Lock()
	rl.sweepLocked()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{
			limiter: &tokenBucket{
				tokens:     requestsPerMinute,
				capacity:   requestsPerMinute,
				refillRate: requestsPerMinute,
				lastRefill: time.Now(),
			},
		}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mutex.Unlock()

	return v.limiter.allow()
}

func (tb *tokenBucket) allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	tokensToAdd := int(now.Sub(tb.lastRefill).Minutes()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// sweepLocked drops stale visitors at most once per TTL. Caller holds
// the mutex.
func (rl *rateLimiter) sweepLocked() {
	if time.Since(rl.lastSweep) < visitorTTL {
		return
	}
	for ip, v := range rl.visitors {
		if time.Since(v.lastSeen) > visitorTTL {
			delete(rl.visitors, ip)
		}
	}
	rl.lastSweep = time.Now()
}
