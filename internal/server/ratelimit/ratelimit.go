// Package ratelimit throttles expensive local-server routes with token buckets.
package ratelimit

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// Rule limits one method and path
type Rule struct {
	Method string
	Path   string
	Limit  int           // Requests per window
	Window time.Duration // Refill window
	Burst  int           // Bucket capacity (defaults to Limit if 0)
}

// DefaultRules throttles the routes that call the analysis service.
// Every other route is unlimited.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Path: "/sessions", Limit: 30, Window: time.Minute, Burst: 5},
		{Method: "POST", Path: "/download", Limit: 30, Window: time.Minute, Burst: 5},
	}
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Rules   []Rule
}

// LoadConfig reads RESUME_MATCHER_RATE_LIMIT (default true).
func LoadConfig() *Config {
	enabled := true
	if v := os.Getenv("RESUME_MATCHER_RATE_LIMIT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			enabled = b
		}
	}
	return &Config{Enabled: enabled, Rules: DefaultRules()}
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// tokenBucket refills at a steady rate up to capacity
type tokenBucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (b *tokenBucket) take(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// retryAfter is the wait until one token is available
func (b *tokenBucket) retryAfter() time.Duration {
	if b.tokens >= 1 || b.refillRate <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
}

// Limiter keeps one bucket per client and rule
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: true, Rules: DefaultRules()}
	}
	return &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow reports whether clientID may call method and path now.
func (l *Limiter) Allow(clientID, method, path string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}
	rule := l.match(method, path)
	if rule == nil || rule.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + " " + rule.Method + " " + rule.Path
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &tokenBucket{
			capacity:   float64(capacity),
			refillRate: float64(rule.Limit) / rule.Window.Seconds(),
			tokens:     float64(capacity),
			lastRefill: now,
		}
		l.buckets[key] = b
	}

	allowed := b.take(now)
	info := Info{Allowed: allowed, Limit: rule.Limit, Remaining: int(b.tokens)}
	if !allowed {
		info.RetryAfter = b.retryAfter()
	}
	return allowed, info
}

// Sweep drops buckets that have been full for at least idle
func (l *Limiter) Sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) match(method, path string) *Rule {
	for i := range l.config.Rules {
		r := &l.config.Rules[i]
		if r.Method == method && r.Path == path {
			return r
		}
	}
	return nil
}
