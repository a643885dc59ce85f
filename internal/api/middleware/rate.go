package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines per-client rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
	}
}

const clientTTL = 10 * time.Minute

type rateClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientRegistry tracks per-IP limiters. Idle entries are swept opportunistically
// from the request path, at most once per TTL, so the registry needs no
// background goroutine and the map does not grow without bound.
type clientRegistry struct {
	mu        sync.Mutex
	clients   map[string]*rateClient
	ttl       time.Duration
	lastSweep time.Time
}

func newClientRegistry(ttl time.Duration) *clientRegistry {
	return &clientRegistry{
		clients:   make(map[string]*rateClient),
		ttl:       ttl,
		lastSweep: time.Now(),
	}
}

// get returns the limiter for ip, creating it on first sight.
func (r *clientRegistry) get(ip string, cfg RateLimitConfig) *rate.Limiter {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	if now.Sub(r.lastSweep) >= r.ttl {
		cutoff := now.Add(-r.ttl)
		for key, cl := range r.clients {
			if cl.lastSeen.Before(cutoff) {
				delete(r.clients, key)
			}
		}
		r.lastSweep = now
	}

	cl, exists := r.clients[ip]
	if !exists {
		cl = &rateClient{
			limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		}
		r.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

func (r *clientRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	registry := newClientRegistry(clientTTL)

	return func(c *gin.Context) {
		if !registry.get(c.ClientIP(), cfg).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
