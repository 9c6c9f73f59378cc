package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter tracks one token bucket per client IP. Entries that have
// not been seen for ttl are dropped by a background sweep so the map does
// not grow with every IP that ever hit the API.
type clientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	rps     rate.Limit
	burst   int
	ttl     time.Duration
}

type clientEntry struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newClientLimiter(rps float64, burst int, ttl time.Duration) *clientLimiter {
	cl := &clientLimiter{
		clients: make(map[string]*clientEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
	go cl.sweep()
	return cl
}

func (cl *clientLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cl.mu.Lock()
		for ip, e := range cl.clients {
			if time.Since(e.lastSeen) > cl.ttl {
				delete(cl.clients, ip)
			}
		}
		cl.mu.Unlock()
	}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	e, ok := cl.clients[ip]
	if !ok {
		e = &clientEntry{bucket: rate.NewLimiter(cl.rps, cl.burst)}
		cl.clients[ip] = e
	}
	e.lastSeen = time.Now()
	cl.mu.Unlock()

	return e.bucket.Allow()
}

// RateLimitMiddleware rejects clients that exceed rps sustained requests
// per second with a burst allowance.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	limiter := newClientLimiter(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
